package shared

const (
	// Pagination defaults for master data listings.
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit caps page size so search endpoints cannot dump whole tables.
	MaxLimit = 200

	// Sort directions accepted by list filters.
	SortAsc  = "asc"
	SortDesc = "desc"
)
