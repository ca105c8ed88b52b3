// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the
// whole dependency chain is assembled in one place:
//
//	config → sqlite store → projection → service → handlers → routes
//
// Each layer only receives what it needs: the service gets the store
// interface (not the concrete sqlite.DB), the handlers get the service
// (not the store), and main.go stays minimal — just "load config, start
// the server".
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/saicojavc/When-Babe/internal/auth"
	"github.com/saicojavc/When-Babe/internal/config"
	"github.com/saicojavc/When-Babe/internal/handler"
	"github.com/saicojavc/When-Babe/internal/middleware"
	"github.com/saicojavc/When-Babe/internal/projection"
	"github.com/saicojavc/When-Babe/internal/service"
	"github.com/saicojavc/When-Babe/internal/store/sqlite"
)

// Server owns the router and every long-lived resource behind it.
//
// RESOURCE MANAGEMENT:
// The server owns the database connection and the projection's update
// goroutine. Both must be shut down in order on exit: projection first
// (it holds a store subscription), then the database (flushes WAL,
// releases the file lock). Start() handles this during graceful
// shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqlite.DB
	list   *projection.EventList
}

// New creates a Server with all dependencies wired.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The projection loads its first snapshot here, so a request arriving
	// the instant the listener opens already sees the stored board.
	list := projection.New(context.Background(), db, logger)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
		list:   list,
	}

	if err := s.setupRoutes(); err != nil {
		list.Close()
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/devices                          → register device, get token
//	GET    /api/events                           → sorted board (JSON)
//	GET    /api/events/watch                     → board snapshots (websocket)
//	GET    /api/calendar/{year}/{month}          → aggregate month grid
//	POST   /api/events                           → create event        [auth]
//	PUT    /api/events/{eventId}                 → update own event    [auth]
//	DELETE /api/users/{ownerId}/events/{eventId} → delete event        [auth]
//	DELETE /api/users/{ownerId}/events           → delete legacy node  [auth]
//
// Reads are public — the board is shared. Writes sit in a sub-router
// behind the device-token middleware.
//
// MIDDLEWARE ORDER MATTERS: RequestID and RealIP run first so the
// logger sees them; Recoverer wraps everything below it.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	svc := service.NewEventService(s.db, s.list, s.cfg.AdminDeviceID, s.cfg.WeekStartDay(), s.logger)

	deviceHandler := handler.NewDeviceHandler(svc, tokens, s.logger)
	eventHandler := handler.NewEventHandler(svc, s.logger)
	calendarHandler := handler.NewCalendarHandler(svc, s.logger)
	watchHandler := handler.NewWatchHandler(s.list, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/devices", deviceHandler.HandleRegister)

		r.Get("/events", eventHandler.HandleList)
		r.Get("/events/watch", watchHandler.HandleWatch)
		r.Get("/calendar/{year}/{month}", calendarHandler.HandleMonth)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireDevice(tokens))

			r.Post("/events", eventHandler.HandleCreate)
			r.Put("/events/{eventId}", eventHandler.HandleUpdate)
			r.Delete("/users/{ownerId}/events/{eventId}", eventHandler.HandleDelete)
			r.Delete("/users/{ownerId}/events", eventHandler.HandleDelete)
		})
	})

	return nil
}

// Router exposes the configured mux for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the projection and database without going through
// Start's signal loop. Tests that mount Router() on httptest use this.
func (s *Server) Close() {
	s.list.Close()
	s.db.Close()
}

// Start runs the HTTP server until a shutdown signal arrives.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections, wait for in-flight requests
// 2. Close the projection (ends the watch streams and its store
//    subscription)
// 3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.list.Close()

	// No WriteTimeout: the watch endpoint holds its connection open
	// indefinitely and enforces its own per-message write deadlines.
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("listen", s.cfg.Listen),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
