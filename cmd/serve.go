package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/backstage/services/devicetype/internal/api"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the Device Type Management API server",
	Long:  `Loads every device-type document, registers a management service per type and serves enrollment and operation endpoints over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer() error {
	logger.Info("Initializing Device Type Management Service...")

	rt, err := buildRuntime(true)
	if err != nil {
		return err
	}
	defer rt.Close()

	// --- Scheduled push delivery ---
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go rt.dispatcher.RunScheduler(schedulerCtx, cfg.DeviceTypes.FlushInterval)

	// --- API Layer Setup ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	handlers := api.NewAPIHandlers(rt.registry, rt.dispatcher)
	api.SetupRoutes(router, handlers, logger)

	// --- HTTP Server ---
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Device Type Management API listening on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-shutdownChan:
		logger.Warn("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	}

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	} else {
		logger.Info("Server stopped gracefully")
	}

	if pending := rt.dispatcher.Pending(); pending > 0 {
		logger.WithField("pending", pending).Warn("Scheduled operations dropped at shutdown")
	}

	logger.Info("Device Type Management Service shutdown complete")
	return nil
}
