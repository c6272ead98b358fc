// Package data provides the book model, the typed request input, list
// filtering and the in-memory store that holds every book for the lifetime
// of the process.
package data

import (
	"strings"
	"time"

	"github.com/aoideee/bookshelf-api/internal/validator"
)

// TimestampFormat is the ISO-8601 layout used for insertedAt and updatedAt.
// Times are always rendered in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Timestamp is a time.Time that marshals to TimestampFormat.
type Timestamp time.Time

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON writes the timestamp as a quoted ISO-8601 UTC string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(TimestampFormat) + `"`), nil
}

// UnmarshalJSON parses a quoted ISO-8601 string. RFC 3339 values with any
// precision are accepted.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// Book is a single record on the bookshelf.
type Book struct {
	ID         string    `json:"id"`         // 16 character alphanumeric id, immutable
	Name       string    `json:"name"`       // Required title of the book
	Year       int       `json:"year"`       // Publication year
	Author     string    `json:"author"`     // Author name
	Summary    string    `json:"summary"`    // Short description
	Publisher  string    `json:"publisher"`  // Publishing company
	PageCount  int       `json:"pageCount"`  // Total number of pages
	ReadPage   int       `json:"readPage"`   // Pages read so far, never above PageCount
	Finished   bool      `json:"finished"`   // Derived: ReadPage == PageCount
	Reading    bool      `json:"reading"`    // Whether the book is currently being read
	InsertedAt Timestamp `json:"insertedAt"` // Set once at creation
	UpdatedAt  Timestamp `json:"updatedAt"`  // Refreshed on every successful update
}

// Projection returns the reduced {id, name, publisher} view used by list
// responses.
func (b Book) Projection() BookSummary {
	return BookSummary{ID: b.ID, Name: b.Name, Publisher: b.Publisher}
}

// BookSummary is the {id, name, publisher} projection of a Book.
type BookSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

// BookInput holds the fields a client supplies when creating or replacing a
// book. Name is a pointer so that an absent field can be told apart from a
// supplied one. Any id, finished or timestamp fields in the payload are
// ignored.
type BookInput struct {
	Name      *string `json:"name"`
	Year      int     `json:"year"`
	Author    string  `json:"author"`
	Summary   string  `json:"summary"`
	Publisher string  `json:"publisher"`
	PageCount int     `json:"pageCount"`
	ReadPage  int     `json:"readPage"`
	Reading   bool    `json:"reading"`
}

// Validation keys, in the order they are checked.
const (
	FieldName      = "name"
	FieldReadPage  = "readPage"
	FieldPageCount = "pageCount"
)

// ValidateBookInput records every rule the input breaks on v. Rules are
// checked in a fixed order so v.First reports the highest priority failure:
// the name must be provided, readPage must not exceed pageCount, and neither
// page count may be negative.
func ValidateBookInput(v *validator.Validator, in BookInput) {
	v.Check(in.Name != nil && *in.Name != "", FieldName, "Please provide the book name")
	v.Check(in.ReadPage <= in.PageCount, FieldReadPage, "readPage must not be greater than pageCount")
	v.Check(in.PageCount >= 0 && in.ReadPage >= 0, FieldPageCount, "pageCount and readPage must not be negative")
}

// Apply copies the mutable fields of in onto b and recomputes Finished.
// The id and both timestamps are left untouched.
func (in BookInput) Apply(b *Book) {
	if in.Name != nil {
		b.Name = *in.Name
	}
	b.Year = in.Year
	b.Author = in.Author
	b.Summary = in.Summary
	b.Publisher = in.Publisher
	b.PageCount = in.PageCount
	b.ReadPage = in.ReadPage
	b.Reading = in.Reading
	b.Finished = b.ReadPage == b.PageCount
}
