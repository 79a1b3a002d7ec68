package scrape

// Category identifies the kind of business data a scrape targets.
type Category string

const (
	CategoryProducts Category = "products"
	CategoryContact  Category = "contact"
	CategoryAbout    Category = "about"
	CategoryFAQ      Category = "faq"
	CategoryPolicies Category = "policies"
)

// FieldsFor maps a category to the field set the worker should populate.
// Unknown categories fall back to a generic content field.
func FieldsFor(c Category) []string {
	switch c {
	case CategoryProducts:
		return []string{"name", "description", "price", "imageUrl", "availability", "category"}
	case CategoryContact:
		return []string{"email", "phone", "address", "hours", "socialMedia"}
	case CategoryAbout:
		return []string{"companyName", "history", "mission", "team", "values"}
	case CategoryFAQ:
		return []string{"question", "answer", "category"}
	case CategoryPolicies:
		return []string{"title", "content", "lastUpdated"}
	default:
		return []string{"content"}
	}
}

// Singleton reports whether the category aggregates to a single object.
// about and contact describe one entity; everything else is a list of items.
func (c Category) Singleton() bool {
	return c == CategoryAbout || c == CategoryContact
}
