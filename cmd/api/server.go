// cmd/api/server.go
// This file contains the serve() method which starts the HTTP server and
// handles graceful shutdown when an OS signal is received.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout is how long in-flight requests get to finish after a
// shutdown signal.
const shutdownTimeout = 20 * time.Second

// serve builds the HTTP server, starts it, then blocks until it receives a
// SIGINT or SIGTERM signal and the server has drained.
func (app *applicationDependencies) serve() error {
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     zap.NewStdLog(app.logger),
	}

	shutdownErr := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit
		app.logger.Info("Shutting down server", zap.String("signal", s.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		shutdownErr <- apiServer.Shutdown(ctx)
	}()

	app.logger.Info("Starting server",
		zap.String("address", apiServer.Addr),
		zap.String("environment", app.config.Environment),
	)

	// ListenAndServe always returns a non-nil error; ErrServerClosed means
	// Shutdown was called.
	err := apiServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownErr
	if err != nil {
		return err
	}

	app.logger.Info("Server stopped", zap.String("address", apiServer.Addr))
	return nil
}
