// Package utils provides small helpers shared across layers that carry no
// domain knowledge.
package utils

// Page limits used when a caller does not choose its own.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Window normalizes a 1-based page and a page size and returns the row
// offset they select. A page below 1 becomes 1, a non-positive limit becomes
// def and a limit above max is capped.
//
//	page, limit, offset := utils.Window(3, 0, 20, 100) // 3, 20, 40
func Window(page, limit, def, max int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	return page, limit, (page - 1) * limit
}
