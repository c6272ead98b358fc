package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aoideee/bookshelf-api/internal/bookshelf"
	"github.com/aoideee/bookshelf-api/internal/config"
	"github.com/aoideee/bookshelf-api/internal/data"
	"github.com/aoideee/bookshelf-api/internal/events"
)

func newTestApplication(t *testing.T) *applicationDependencies {
	t.Helper()

	var cfg config.Config
	cfg.Environment = "development"
	cfg.Limiter.Enabled = false

	log := zap.NewNop()
	books := bookshelf.New(data.NewStore(), log)
	return newApplication(cfg, log, books, events.Nop{})
}

type response struct {
	code    int
	headers http.Header
	body    map[string]any
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := response{code: rec.Code, headers: rec.Header()}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.body))
	}
	return res
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	d, ok := r.body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", r.body)
	return d
}

func createBook(t *testing.T, h http.Handler, body string) string {
	t.Helper()
	res := doRequest(t, h, http.MethodPost, "/books", body)
	require.Equal(t, http.StatusCreated, res.code, "%v", res.body)
	id, ok := res.data(t)["bookId"].(string)
	require.True(t, ok)
	return id
}

func TestCreateBookScenario(t *testing.T) {
	h := newTestApplication(t).routes()

	res := doRequest(t, h, http.MethodPost, "/books", `{
		"name": "Dicoding", "year": 2010, "author": "John Doe",
		"summary": "Lorem ipsum", "publisher": "Dicoding Indonesia",
		"pageCount": 300, "readPage": 300, "reading": false
	}`)
	require.Equal(t, http.StatusCreated, res.code)
	assert.Equal(t, "success", res.body["status"])
	assert.Equal(t, "Book added successfully", res.body["message"])
	id, _ := res.data(t)["bookId"].(string)
	assert.Len(t, id, 16)
	assert.Equal(t, "/books/"+id, res.headers.Get("Location"))

	got := doRequest(t, h, http.MethodGet, "/books/"+id, "")
	require.Equal(t, http.StatusOK, got.code)
	book := got.data(t)["book"].(map[string]any)
	assert.Equal(t, true, book["finished"])
	assert.Equal(t, "Dicoding", book["name"])
	assert.Equal(t, 300.0, book["pageCount"])
	assert.Equal(t, book["insertedAt"], book["updatedAt"])

	res = doRequest(t, h, http.MethodPost, "/books", `{"pageCount": 100, "readPage": 50}`)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "fail", res.body["status"])
	assert.Equal(t, "Failed to add book. Please provide the book name", res.body["message"])

	res = doRequest(t, h, http.MethodPost, "/books", `{"name": "X", "pageCount": 50, "readPage": 100}`)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "fail", res.body["status"])
	assert.Equal(t, "Failed to add book. readPage must not be greater than pageCount", res.body["message"])

	list := doRequest(t, h, http.MethodGet, "/books", "")
	assert.Len(t, list.data(t)["books"], 1)
}

func TestCreateBookBadBody(t *testing.T) {
	h := newTestApplication(t).routes()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "malformed", body: `{"name": `},
		{name: "wrong type", body: `{"name": 42}`},
		{name: "two values", body: `{"name": "a"}{"name": "b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := doRequest(t, h, http.MethodPost, "/books", tt.body)
			assert.Equal(t, http.StatusBadRequest, res.code)
			assert.Equal(t, "fail", res.body["status"])
			assert.NotEmpty(t, res.body["message"])
		})
	}

	list := doRequest(t, h, http.MethodGet, "/books", "")
	assert.Empty(t, list.data(t)["books"])
}

func TestListBooks(t *testing.T) {
	h := newTestApplication(t).routes()

	idA := createBook(t, h, `{"name": "Kelas Dicoding", "publisher": "Dicoding", "pageCount": 10, "readPage": 2, "reading": true}`)
	idB := createBook(t, h, `{"name": "Bumi Manusia", "publisher": "Hasta Mitra", "pageCount": 10, "readPage": 10}`)
	idC := createBook(t, h, `{"name": "dicoding academy", "publisher": "Dicoding", "pageCount": 10, "readPage": 0}`)

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{idA, idB, idC}},
		{query: "?name=DICODING", want: []string{idA, idC}},
		{query: "?name=nothing", want: []string{}},
		{query: "?reading=1", want: []string{idA}},
		{query: "?reading=0", want: []string{idB, idC}},
		{query: "?finished=1", want: []string{idB}},
		{query: "?finished=0", want: []string{idA, idC}},
		{query: "?finished=maybe", want: []string{idA, idB, idC}},
		{query: "?name=bumi&reading=1", want: []string{idB}},
		{query: "?name=&finished=1", want: []string{idB}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := doRequest(t, h, http.MethodGet, "/books"+tt.query, "")
			require.Equal(t, http.StatusOK, res.code)
			assert.Equal(t, "success", res.body["status"])

			books, ok := res.data(t)["books"].([]any)
			require.True(t, ok)

			ids := make([]string, 0, len(books))
			for _, b := range books {
				book := b.(map[string]any)
				assert.Len(t, book, 3)
				assert.Contains(t, book, "name")
				assert.Contains(t, book, "publisher")
				ids = append(ids, book["id"].(string))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestShowBookNotFound(t *testing.T) {
	h := newTestApplication(t).routes()

	res := doRequest(t, h, http.MethodGet, "/books/xxxxx", "")
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "fail", res.body["status"])
	assert.Equal(t, "Book not found", res.body["message"])
}

func TestUpdateBook(t *testing.T) {
	app := newTestApplication(t)
	h := app.routes()

	id := createBook(t, h, `{"name": "A", "pageCount": 100, "readPage": 100}`)
	before := doRequest(t, h, http.MethodGet, "/books/"+id, "").data(t)["book"].(map[string]any)

	res := doRequest(t, h, http.MethodPut, "/books/"+id, `{"name": "A revised", "publisher": "P", "pageCount": 100, "readPage": 50, "reading": true}`)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "success", res.body["status"])
	assert.Equal(t, "Book updated successfully", res.body["message"])
	assert.NotContains(t, res.body, "data")

	after := doRequest(t, h, http.MethodGet, "/books/"+id, "").data(t)["book"].(map[string]any)
	assert.Equal(t, id, after["id"])
	assert.Equal(t, "A revised", after["name"])
	assert.Equal(t, false, after["finished"])
	assert.Equal(t, true, after["reading"])
	assert.Equal(t, before["insertedAt"], after["insertedAt"])
}

func TestUpdateBookFailures(t *testing.T) {
	h := newTestApplication(t).routes()
	id := createBook(t, h, `{"name": "A", "pageCount": 10, "readPage": 1}`)

	tests := []struct {
		name    string
		path    string
		body    string
		code    int
		message string
	}{
		{name: "missing name", path: "/books/" + id, body: `{"pageCount": 10}`, code: http.StatusBadRequest, message: "Failed to update book. Please provide the book name"},
		{name: "readPage too high", path: "/books/" + id, body: `{"name": "A", "pageCount": 1, "readPage": 10}`, code: http.StatusBadRequest, message: "Failed to update book. readPage must not be greater than pageCount"},
		{name: "unknown id", path: "/books/missing", body: `{"name": "A", "pageCount": 10, "readPage": 1}`, code: http.StatusNotFound, message: "Failed to update book. Id not found"},
		{name: "validation before lookup", path: "/books/missing", body: `{"pageCount": 10}`, code: http.StatusBadRequest, message: "Failed to update book. Please provide the book name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := doRequest(t, h, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.code, res.code)
			assert.Equal(t, "fail", res.body["status"])
			assert.Equal(t, tt.message, res.body["message"])
		})
	}

	book := doRequest(t, h, http.MethodGet, "/books/"+id, "").data(t)["book"].(map[string]any)
	assert.Equal(t, "A", book["name"])
	assert.Equal(t, 1.0, book["readPage"])
}

func TestDeleteBook(t *testing.T) {
	h := newTestApplication(t).routes()
	id := createBook(t, h, `{"name": "A"}`)
	other := createBook(t, h, `{"name": "B"}`)

	res := doRequest(t, h, http.MethodDelete, "/books/"+id, "")
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, "success", res.body["status"])
	assert.Equal(t, "Book deleted successfully", res.body["message"])

	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodGet, "/books/"+id, "").code)
	assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/books/"+other, "").code)

	res = doRequest(t, h, http.MethodDelete, "/books/"+id, "")
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "fail", res.body["status"])
	assert.Equal(t, "Failed to delete book. Id not found", res.body["message"])
}

func TestRouterErrors(t *testing.T) {
	h := newTestApplication(t).routes()

	res := doRequest(t, h, http.MethodGet, "/shelves", "")
	assert.Equal(t, http.StatusNotFound, res.code)
	assert.Equal(t, "fail", res.body["status"])

	res = doRequest(t, h, http.MethodPatch, "/books/abc", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, res.code)
	assert.Equal(t, "fail", res.body["status"])
	assert.Equal(t, "the PATCH method is not supported for this resource", res.body["message"])
}

func TestBookErrorResponseMapsInternal(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "bookshelf internal", err: &bookshelf.Error{Kind: bookshelf.KindInternal, Message: "store corrupted"}, message: "store corrupted"},
		{name: "foreign error", err: errors.New("disk on fire"), message: "disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.bookErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/books", nil), tt.err)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestHealthcheck(t *testing.T) {
	h := newTestApplication(t).routes()
	createBook(t, h, `{"name": "A"}`)

	res := doRequest(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, res.code)
	d := res.data(t)
	assert.Equal(t, 1.0, d["books"])
	assert.Equal(t, "development", d["environment"])
	assert.Equal(t, appVersion, d["version"])
	assert.Equal(t, "disabled", d["events"])
}

type stubPublisher struct {
	events.Nop
	healthy bool
}

func (s stubPublisher) IsHealthy() bool { return s.healthy }

func TestEventsStatus(t *testing.T) {
	assert.Equal(t, "disabled", eventsStatus(events.Nop{}))
	assert.Equal(t, "connected", eventsStatus(stubPublisher{healthy: true}))
	assert.Equal(t, "disconnected", eventsStatus(stubPublisher{healthy: false}))
}
