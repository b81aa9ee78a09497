package domain

// Record is implemented by every canonical record kind. RecordID returns
// the content-addressed identifier in string form, suffixed or not.
type Record interface {
	RecordID() string
}

// SearchOptions configures a search query against any backend.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero means backend default.
	Limit int

	// Offset is the number of results to skip.
	Offset int
}
