// cmd/api/helpers.go
// This file contains general-purpose helper functions for the application.
// Error-response helpers live in errors.go; only non-error utilities are here.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1_048_576

// envelope is the top-level JSON wrapper type used for all API responses.
// Every response body carries a "status" key plus "message" and/or "data".
type envelope map[string]any

// readIDParam returns the ":id" URL parameter added by httprouter. Ids are
// opaque, so any value is passed through and unknown ones surface as 404s.
func (app *applicationDependencies) readIDParam(r *http.Request) string {
	return httprouter.ParamsFromContext(r.Context()).ByName("id")
}

// readString reads a string query parameter from qs, returning defaultValue
// if the key is absent or empty.
func (app *applicationDependencies) readString(qs url.Values, key, defaultValue string) string {
	s := qs.Get(key)
	if s == "" {
		return defaultValue
	}
	return s
}

// writeJSON marshals data to indented JSON, applies any custom headers,
// sets Content-Type to "application/json", writes the status code, and
// streams the body to the client.
func (app *applicationDependencies) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	// jsoniter only accepts space indentation.
	js, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
	return nil
}

// readJSON decodes a single JSON value from the request body into dst.
// It enforces a 1 MB size limit and rejects empty bodies and trailing data.
// Unknown fields are ignored.
func (app *applicationDependencies) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		}
		return err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("body must not be empty")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("body contains invalid JSON: %w", err)
	}
	return nil
}
