package domain

// Category is static reference data grouping catalog items.
type Category struct {
	ID   int64
	Name string
}

// Item is a sellable catalog entry. Price is whole currency units.
type Item struct {
	ID          int64
	Name        string
	Description string
	Price       int64
	CategoryID  int64
}
