// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router
// wrapped in middleware.
//
// Middleware chain (outermost → innermost):
//
//	requestID → logRequests → recoverPanic → rateLimit → router
//
// Current endpoints:
//
//	POST   /books        – create a new book
//	GET    /books        – list books, optionally filtered by name, reading or finished
//	GET    /books/:id    – retrieve a single book by ID
//	PUT    /books/:id    – replace an existing book
//	DELETE /books/:id    – delete a book by ID
//	GET    /healthz      – liveness and store size
//	GET    /metrics      – Prometheus metrics
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodPost, "/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodGet, "/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodPut, "/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/books/:id", app.deleteBookHandler)

	router.HandlerFunc(http.MethodGet, "/healthz", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", app.metrics.Handler())

	// logRequests sits outside recoverPanic so the 500 written after a panic
	// is still logged and counted.
	return app.requestID(app.logRequests(app.recoverPanic(app.rateLimit(router))))
}
