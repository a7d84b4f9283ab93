package viewmodel

// Searchable exposes the text fields a free-text search looks at.
type Searchable interface {
	SearchFields() []string
}

// Search keeps the items with a field containing q, ignoring case. An empty
// query keeps everything.
func Search[T Searchable](items []T, q string) []T {
	q = normalizeQuery(q)
	return Filter(items, func(it T) bool {
		if q == "" {
			return true
		}
		for _, f := range it.SearchFields() {
			if containsFold(f, q) {
				return true
			}
		}
		return false
	})
}
