// Package bookshelf implements the create, list, get, update and delete
// operations over an in-memory book store.
package bookshelf

import (
	"context"
	"errors"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/aoideee/bookshelf-api/internal/data"
	"github.com/aoideee/bookshelf-api/internal/events"
	"github.com/aoideee/bookshelf-api/internal/validator"
)

// Client-facing messages.
const (
	MsgBookAdded     = "Book added successfully"
	MsgBookUpdated   = "Book updated successfully"
	MsgBookDeleted   = "Book deleted successfully"
	MsgBookNotFound  = "Book not found"
	msgAddFailed     = "Failed to add book"
	msgUpdateFailed  = "Failed to update book"
	msgDeleteFailed  = "Failed to delete book"
	msgBookNotStored = "Book failed to be added"
	msgIDNotFound    = "Id not found"
)

const (
	idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	idLength   = 16
)

// NewID returns a random 16 character alphanumeric book id.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// Publisher delivers book lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service owns a Store and serializes every access to it.
type Service struct {
	mu        sync.Mutex
	store     *data.Store
	log       *zap.Logger
	publisher Publisher
	now       func() time.Time
	newID     func() (string, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces NewID as the source of book ids.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newID = gen }
}

// WithPublisher sets where lifecycle events are sent. The default discards
// them.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New returns a Service operating on store.
func New(store *data.Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		log:       log,
		publisher: events.Nop{},
		now:       time.Now,
		newID:     NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Count returns the number of stored books.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// Create validates in, stores a new book and returns its id.
func (s *Service) Create(ctx context.Context, in data.BookInput) (id string, err error) {
	defer s.trap("create", &err)

	if err := validate(in, msgAddFailed); err != nil {
		return "", err
	}

	id, err = s.newID()
	if err != nil {
		return "", internalError(err)
	}

	now := data.Timestamp(s.now().UTC())
	book := data.Book{ID: id, InsertedAt: now, UpdatedAt: now}
	in.Apply(&book)

	var stored bool
	s.locked(func(st *data.Store) {
		st.Append(book)
		_, stored = st.FindByID(id)
	})
	if !stored {
		return "", internalError(errors.New(msgBookNotStored))
	}

	s.log.Info("Book added", zap.String("id", id), zap.String("name", book.Name))
	s.publish(ctx, events.BookCreated(ctx, book))
	return id, nil
}

// List returns the {id, name, publisher} projection of the books selected
// by filter, in insertion order.
func (s *Service) List(ctx context.Context, filter data.ListFilter) (books []data.BookSummary, err error) {
	defer s.trap("list", &err)

	keep, _ := filter.Predicate()

	var matched []data.Book
	s.locked(func(st *data.Store) {
		matched = st.FilterAll(keep)
	})

	books = make([]data.BookSummary, 0, len(matched))
	for _, b := range matched {
		books = append(books, b.Projection())
	}
	return books, nil
}

// Get returns the book with the given id.
func (s *Service) Get(ctx context.Context, id string) (book data.Book, err error) {
	defer s.trap("get", &err)

	var found bool
	s.locked(func(st *data.Store) {
		book, found = st.FindByID(id)
	})
	if !found {
		return data.Book{}, notFoundError(MsgBookNotFound)
	}
	return book, nil
}

// Update replaces every mutable field of the book with the given id.
// Validation runs before the id is looked up.
func (s *Service) Update(ctx context.Context, id string, in data.BookInput) (err error) {
	defer s.trap("update", &err)

	if err := validate(in, msgUpdateFailed); err != nil {
		return err
	}

	var (
		book  data.Book
		found bool
	)
	s.locked(func(st *data.Store) {
		var i int
		i, found = st.FindIndex(id)
		if !found {
			return
		}
		book, _ = st.At(i)
		in.Apply(&book)
		book.UpdatedAt = data.Timestamp(s.now().UTC())
		err = st.ReplaceAt(i, book)
	})
	if !found {
		return notFoundError(msgUpdateFailed + ". " + msgIDNotFound)
	}
	if err != nil {
		return internalError(err)
	}

	s.log.Info("Book updated", zap.String("id", id))
	s.publish(ctx, events.BookUpdated(ctx, book))
	return nil
}

// Delete removes the book with the given id.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer s.trap("delete", &err)

	var found bool
	s.locked(func(st *data.Store) {
		var i int
		i, found = st.FindIndex(id)
		if found {
			err = st.RemoveAt(i)
		}
	})
	if !found {
		return notFoundError(msgDeleteFailed + ". " + msgIDNotFound)
	}
	if err != nil {
		return internalError(err)
	}

	s.log.Info("Book deleted", zap.String("id", id))
	s.publish(ctx, events.BookDeleted(ctx, id))
	return nil
}

func validate(in data.BookInput, prefix string) error {
	v := validator.New()
	data.ValidateBookInput(v, in)
	if _, message, failed := v.First(); failed {
		return validationError(prefix, message)
	}
	return nil
}

func (s *Service) locked(fn func(st *data.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

// publish never fails the calling operation; the mutation has already
// happened.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish event",
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

// trap converts a panic in op into an internal error.
func (s *Service) trap(op string, err *error) {
	if v := recover(); v != nil {
		e := recovered(v)
		s.log.Error("Recovered from fault", zap.String("operation", op), zap.Error(e))
		*err = e
	}
}
