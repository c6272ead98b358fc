package data

import "strings"

// ListFilter holds the raw query parameters accepted by the list operation.
// Only one dimension is ever applied; precedence is Name, then Reading, then
// Finished, and the first non-empty parameter wins.
type ListFilter struct {
	Name     string // Case-insensitive substring of the book name
	Reading  string // "0" or "1"
	Finished string // "0" or "1"
}

// Predicate returns the match function for the winning filter dimension.
// The boolean result is false when no filter applies, either because every
// parameter is empty or because the winning boolean parameter is neither
// "0" nor "1"; callers then list the whole collection.
func (f ListFilter) Predicate() (func(Book) bool, bool) {
	switch {
	case f.Name != "":
		needle := strings.ToLower(f.Name)
		return func(b Book) bool {
			return strings.Contains(strings.ToLower(b.Name), needle)
		}, true
	case f.Reading != "":
		want, ok := parseFlag(f.Reading)
		if !ok {
			return nil, false
		}
		return func(b Book) bool { return b.Reading == want }, true
	case f.Finished != "":
		want, ok := parseFlag(f.Finished)
		if !ok {
			return nil, false
		}
		return func(b Book) bool { return b.Finished == want }, true
	}
	return nil, false
}

func parseFlag(s string) (bool, bool) {
	switch strings.TrimSpace(s) {
	case "0":
		return false, true
	case "1":
		return true, true
	}
	return false, false
}
