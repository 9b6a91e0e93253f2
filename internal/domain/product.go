package domain

type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	ImageURL     string  `json:"imageUrl"`
	Availability bool    `json:"availability"`
	Stock        int     `json:"stock"`
}

type SortField string

const (
	SortByName  SortField = "NAME"
	SortByPrice SortField = "PRICE"
)

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ProductQuery describes one page of the catalog listing.
type ProductQuery struct {
	Query     string
	Category  string
	Sort      SortField
	Direction SortDirection
	Page      int
	PageSize  int
}

func (q ProductQuery) Skip() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

type ProductPage struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"totalCount"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
}

// StockLevel is the live stock figure returned for a product id.
type StockLevel struct {
	ID    string
	Name  string
	Stock int
}
