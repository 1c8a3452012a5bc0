package services

// Page is one window of a listing.
type Page[T any] struct {
	Items []T
	Page  int
	Limit int
	// Total counts every match, independent of the window.
	Total int64
}
