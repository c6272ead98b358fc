// cmd/api/handlers.go
// This file contains all HTTP request handlers for the books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and the book service.
package main

import (
	"net/http"

	"github.com/aoideee/bookshelf-api/internal/bookshelf"
	"github.com/aoideee/bookshelf-api/internal/data"
	"github.com/aoideee/bookshelf-api/internal/events"
)

// createBookHandler handles POST /books.
// It responds 201 with the generated book id.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.BookInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	id, err := app.books.Create(r.Context(), input)
	if err != nil {
		app.bookErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/books/"+id)

	err = app.writeJSON(w, http.StatusCreated, envelope{
		"status":  statusSuccess,
		"message": bookshelf.MsgBookAdded,
		"data":    envelope{"bookId": id},
	}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /books.
// The optional name, reading and finished query parameters narrow the list;
// only the first non-empty one, in that order, is applied.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	filter := data.ListFilter{
		Name:     app.readString(qs, "name", ""),
		Reading:  app.readString(qs, "reading", ""),
		Finished: app.readString(qs, "finished", ""),
	}

	books, err := app.books.List(r.Context(), filter)
	if err != nil {
		app.bookErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"status": statusSuccess,
		"data":   envelope{"books": books},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /books/:id.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	book, err := app.books.Get(r.Context(), app.readIDParam(r))
	if err != nil {
		app.bookErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"status": statusSuccess,
		"data":   envelope{"book": book},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PUT /books/:id.
// The body replaces every mutable field of the book.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.BookInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.books.Update(r.Context(), app.readIDParam(r), input)
	if err != nil {
		app.bookErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"status":  statusSuccess,
		"message": bookshelf.MsgBookUpdated,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /books/:id.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	err := app.books.Delete(r.Context(), app.readIDParam(r))
	if err != nil {
		app.bookErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"status":  statusSuccess,
		"message": bookshelf.MsgBookDeleted,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// healthcheckHandler handles GET /healthz.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, envelope{
		"status": statusSuccess,
		"data": envelope{
			"environment": app.config.Environment,
			"version":     appVersion,
			"books":       app.books.Count(),
			"events":      eventsStatus(app.publisher),
		},
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// eventsStatus describes the event pipeline for /healthz.
func eventsStatus(p eventPublisher) string {
	if _, ok := p.(events.Nop); ok {
		return "disabled"
	}
	if p.IsHealthy() {
		return "connected"
	}
	return "disconnected"
}
