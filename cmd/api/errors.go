// cmd/api/errors.go
// This file contains all error-response helpers for the application.
// Client-caused failures are reported with status "fail", server faults
// with status "error".
package main

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aoideee/bookshelf-api/internal/bookshelf"
	"github.com/aoideee/bookshelf-api/internal/events"
)

const (
	statusSuccess = "success"
	statusFail    = "fail"
	statusError   = "error"
)

// logError logs an internal error at ERROR level with the request method and URL for context.
func (app *applicationDependencies) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		zap.String("request_method", r.Method),
		zap.String("request_url", r.URL.String()),
		zap.String("request_id", events.CorrelationID(r.Context())),
	)
}

// errorResponse sends a JSON error envelope with the given status code and message.
// It is the low-level building block used by all the specific error helpers below.
func (app *applicationDependencies) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	label := statusFail
	if status >= http.StatusInternalServerError {
		label = statusError
	}

	err := app.writeJSON(w, status, envelope{"status": label, "message": message}, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs a 500-level error and reports the fault's
// description to the client.
func (app *applicationDependencies) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, err.Error())
}

// bookErrorResponse maps a bookshelf error kind to its status code.
func (app *applicationDependencies) bookErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var bookErr *bookshelf.Error
	if !errors.As(err, &bookErr) {
		app.serverErrorResponse(w, r, err)
		return
	}

	switch bookErr.Kind {
	case bookshelf.KindValidation:
		app.errorResponse(w, r, http.StatusBadRequest, bookErr.Message)
	case bookshelf.KindNotFound:
		app.errorResponse(w, r, http.StatusNotFound, bookErr.Message)
	default:
		app.logError(r, err)
		app.errorResponse(w, r, http.StatusInternalServerError, bookErr.Message)
	}
}

// notFoundResponse sends a 404 Not Found error for unknown routes.
func (app *applicationDependencies) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

// methodNotAllowedResponse sends a 405 Method Not Allowed error.
func (app *applicationDependencies) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "the " + r.Method + " method is not supported for this resource"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse sends a 400 Bad Request error with the error message from the caller.
func (app *applicationDependencies) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// rateLimitExceededResponse sends a 429 Too Many Requests error.
func (app *applicationDependencies) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}
