// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/database"
	"github.com/scpnet/scp-backend/internal/i18n"
	"github.com/scpnet/scp-backend/internal/router"
	"github.com/scpnet/scp-backend/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "scp-server",
	Short: "Supplier/consumer platform API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo supplier, catalog and consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if !cfg.IsDevelopment() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	}

	if err := i18n.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize i18n: %w", err)
	}
	return cfg, nil
}

func runMigrate() error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.Database.Driver)
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	return database.RunMigrations(db)
}

func runSeed() error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, closeStore, err := database.OpenStore(cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	return database.SeedDemoData(context.Background(), store)
}

func runServe() error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	store, closeStore, err := database.OpenStore(cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Database.SeedDemo {
		if err := database.SeedDemoData(context.Background(), store); err != nil {
			return err
		}
	}

	deps := router.Dependencies{
		Store:    store,
		Config:   cfg,
		Notifier: services.NewNotificationService(store, cfg),
	}

	if cfg.Redis.Enabled() {
		tokens, err := services.NewRedisTokenStore(cfg.Redis)
		if err != nil {
			return err
		}
		defer tokens.Close()
		deps.Revoker = tokens
	} else {
		logrus.Warn("Redis not configured; logout will not revoke tokens")
	}

	if cfg.Kafka.Enabled() {
		events := services.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer events.Close()
		deps.Events = events
	}

	if cfg.Payment.StripeSecretKey != "" {
		deps.Payments = services.NewStripeGateway(cfg.Payment.StripeSecretKey)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
