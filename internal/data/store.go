package data

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIndexOutOfRange is returned when a positional operation is given an
// index that does not address a stored book.
var ErrIndexOutOfRange = errors.New("book index out of range")

// Store is an ordered, in-memory collection of books. Books are held by
// value, so nothing read from the store aliases its contents.
//
// Store is not safe for concurrent use. Callers must serialize access.
type Store struct {
	books []Book
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{books: []Book{}}
}

// Len returns the number of stored books.
func (s *Store) Len() int {
	return len(s.books)
}

// Append adds book to the end of the collection. No uniqueness check is made
// on book.ID.
func (s *Store) Append(book Book) {
	s.books = append(s.books, book)
}

// FindIndex returns the position of the first book with the given id.
func (s *Store) FindIndex(id string) (int, bool) {
	for i := range s.books {
		if s.books[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindByID returns a copy of the first book with the given id.
func (s *Store) FindByID(id string) (Book, bool) {
	i, ok := s.FindIndex(id)
	if !ok {
		return Book{}, false
	}
	return s.books[i], true
}

// At returns a copy of the book at index i.
func (s *Store) At(i int) (Book, bool) {
	if i < 0 || i >= len(s.books) {
		return Book{}, false
	}
	return s.books[i], true
}

// FilterAll returns copies of every book matching keep, in insertion order.
// A nil keep matches everything. The result is never nil.
func (s *Store) FilterAll(keep func(Book) bool) []Book {
	out := make([]Book, 0, len(s.books))
	for _, b := range s.books {
		if keep == nil || keep(b) {
			out = append(out, b)
		}
	}
	return out
}

// ReplaceAt overwrites the book at index i.
func (s *Store) ReplaceAt(i int, book Book) error {
	if i < 0 || i >= len(s.books) {
		return fmt.Errorf("replace at %d: %w", i, ErrIndexOutOfRange)
	}
	s.books[i] = book
	return nil
}

// RemoveAt deletes the book at index i, shifting later books down by one.
func (s *Store) RemoveAt(i int) error {
	if i < 0 || i >= len(s.books) {
		return fmt.Errorf("remove at %d: %w", i, ErrIndexOutOfRange)
	}
	s.books = slices.Delete(s.books, i, i+1)
	return nil
}
