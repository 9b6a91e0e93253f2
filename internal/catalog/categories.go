package catalog

import "strings"

type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var categories = []Category{
	{"Auto Care", "auto_care"},
	{"Baby Products", "baby_products"},
	{"Bakery", "bakery"},
	{"Beverages", "beverages"},
	{"Cooking essentials", "cooking_essentials"},
	{"Dairy", "dairy"},
	{"Desserts Ingredients", "desserts_ingredients"},
	{"Fashion", "fashion"},
	{"Food cupboard", "food_cupboard"},
	{"Frozen Food", "frozen_food"},
	{"Fruits", "fruits"},
	{"Gifting", "gifting"},
	{"Health Beauty", "health_beauty"},
	{"Household", "household"},
	{"Meats", "meats"},
	{"Party Shop", "party_shop"},
	{"Pet Products", "pet_products"},
	{"Rice", "rice"},
	{"Seafood", "seafood"},
	{"Seeds Spices", "seeds_spices"},
	{"Snacks Confectionery", "snacks_confectionery"},
	{"Stationary", "stationary"},
	{"Tea Coffee", "tea_coffee"},
	{"Vegetables", "vegetables"},
}

// Categories lists the fixed catalog categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// CategorySlug resolves a slug or display name to the slug the API filters by.
// "" and "all_categories" mean no filter.
func CategorySlug(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || v == "all_categories" || strings.EqualFold(v, "All Categories") {
		return "", true
	}
	for _, c := range categories {
		if v == c.Slug || strings.EqualFold(v, c.Name) {
			return c.Slug, true
		}
	}
	return "", false
}
