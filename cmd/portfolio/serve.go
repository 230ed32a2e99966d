package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/github-portfolio/internal/api"
	"github.com/Kamar-Folarin/github-portfolio/internal/db"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve portfolios over HTTP",
	Long: `Serve starts the HTTP API. When DB_CONNECTION_STRING is set, stored runs can be
read back and new runs saved; otherwise those endpoints answer 503.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (default PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := cfg.Server.Port
	if servePort != "" {
		port = servePort
	}

	var store db.Store
	if cfg.Database.ConnectionString != "" {
		pgStore, err := db.NewPostgresStore(cfg.Database.ConnectionString)
		if err != nil {
			return err
		}
		defer pgStore.Close()

		// Run migrations with retry logic
		if err := retry(3, 5*time.Second, pgStore.Migrate); err != nil {
			return err
		}
		store = pgStore
	} else {
		logger.Warn("DB_CONNECTION_STRING not set, stored runs are disabled")
	}

	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(newFetcher(cfg), store, cfg.Fetch, logger)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api.SetupRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // a portfolio fetch issues several requests per repository
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
		return err
	}
	logger.Info("Server exited properly")
	return nil
}

// retry retries a function up to a certain number of attempts with a delay between attempts
func retry(attempts int, sleep time.Duration, fn func() error) error {
	if err := fn(); err != nil {
		if attempts--; attempts > 0 {
			logger.WithError(err).Warnf("Retrying in %s", sleep)
			time.Sleep(sleep)
			return retry(attempts, sleep, fn)
		}
		return err
	}
	return nil
}
