package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/bookshelf-api/internal/data"
)

func TestWriteJSON(t *testing.T) {
	app := newTestApplication(t)

	headers := make(http.Header)
	headers.Set("Location", "/books/abc")

	rec := httptest.NewRecorder()
	err := app.writeJSON(rec, http.StatusCreated, envelope{
		"status": statusSuccess,
		"data":   envelope{"book": data.Book{ID: "abc", Name: "Dicoding"}},
	}, headers)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/books/abc", rec.Header().Get("Location"))

	body := rec.Body.String()
	assert.True(t, strings.HasSuffix(body, "\n"))
	assert.Contains(t, body, "\n  \"data\"")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	book := decoded["data"].(map[string]any)["book"].(map[string]any)
	assert.Equal(t, "abc", book["id"])
	assert.Equal(t, "Dicoding", book["name"])
}

func TestReadJSON(t *testing.T) {
	app := newTestApplication(t)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name": "A", "pageCount": 3, "id": "ignored"}` + "\n"},
		{name: "empty", body: "  \n", wantErr: "body must not be empty"},
		{name: "trailing garbage", body: `{"name":"a"} xyz`, wantErr: "body contains invalid JSON"},
		{name: "too large", body: `{"name": "` + strings.Repeat("a", maxBodyBytes) + `"}`, wantErr: "body must not be larger than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))

			var input data.BookInput
			err := app.readJSON(rec, req, &input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, input.Name)
			assert.Equal(t, "A", *input.Name)
			assert.Equal(t, 3, input.PageCount)
		})
	}
}

func TestTrailingGarbageThroughRouter(t *testing.T) {
	h := newTestApplication(t).routes()

	res := doRequest(t, h, http.MethodPost, "/books", `{"name":"a"} xyz`)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "fail", res.body["status"])

	list := doRequest(t, h, http.MethodGet, "/books", "")
	assert.Equal(t, http.StatusOK, list.code)
	assert.Empty(t, list.data(t)["books"])
}
