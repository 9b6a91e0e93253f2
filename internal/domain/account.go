package domain

type Account struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role,omitempty"`
}

type AccountDetails struct {
	Account
	Orders []Order `json:"orders"`
}

type NewAccount struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type StockUpdate struct {
	ProductID string
	NewStock  int
}
