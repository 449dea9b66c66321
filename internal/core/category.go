package core

// Category is the fixed set of expense categories.
type Category string

const (
	Groceries   Category = "GROCERIES"
	Leisure     Category = "LEISURE"
	Electronics Category = "ELECTRONICS"
	Utilities   Category = "UTILITIES"
	Clothing    Category = "CLOTHING"
	Health      Category = "HEALTH"
	Others      Category = "OTHERS"
)

var categoryLabels = map[Category]string{
	Groceries:   "Comestibles",
	Leisure:     "Entretenimiento",
	Electronics: "Electrónicos",
	Utilities:   "Servicios Públicos",
	Clothing:    "Ropa",
	Health:      "Salud",
	Others:      "Otros",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{Groceries, Leisure, Electronics, Utilities, Clothing, Health, Others}
}

// Label returns the human-readable name for the category, falling back to
// the raw code for unknown values.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory validates a category code.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, c.Valid()
}
