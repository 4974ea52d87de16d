// Package app initializes and runs the application service.
// It configures logging, storage, sessions, and routing, and handles
// graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tinylinks/internal/config"
	"tinylinks/internal/ipchecker"
	"tinylinks/internal/logger"
	"tinylinks/internal/memstore"
	"tinylinks/internal/router"
	"tinylinks/internal/service"
	"tinylinks/internal/session"
	"tinylinks/internal/shortcode"
)

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the service.
type App struct {
	cfg         *config.Config
	db          *memstore.MemStore
	httpHandler http.Handler
}

// New initializes a new App by:
// - loading configuration
// - initializing the logger
// - setting up the in-memory store with the short-key generator
// - setting up sessions, the service layer, and the router
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	generator := shortcode.New(app.cfg.ShortKeyLength)
	app.db = memstore.New(generator.Next)

	authCookieSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthCookieSigningSecretKey)
	if err != nil {
		return nil, fmt.Errorf("decoding the cookie signing key: %w", err)
	}

	sessions := session.New(
		app.db,
		app.cfg.AuthCookieName,
		authCookieSigningSecretKey,
	)

	svc := service.New(app.db, app.cfg.ShortURLBase, app.cfg.PasswordHashCost)

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.httpHandler, err = router.New(svc, sessions, ipChecker)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal, exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
