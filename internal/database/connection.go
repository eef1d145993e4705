// internal/database/connection.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scpnet/scp-backend/internal/config"
	"github.com/scpnet/scp-backend/internal/models"
	"github.com/scpnet/scp-backend/internal/repository"
	"github.com/scpnet/scp-backend/internal/repository/gormstore"
	"github.com/scpnet/scp-backend/internal/repository/memstore"
)

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{"host": cfg.Host, "database": cfg.Database}).Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// OpenStore builds the Store for the configured driver. The returned
// closer releases the underlying connection.
func OpenStore(cfg config.DatabaseConfig) (*repository.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logrus.Warn("Using the in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	case config.DriverPostgres:
		db, err := Initialize(cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := RunMigrations(db); err != nil {
				Close(db)
				return nil, nil, err
			}
		}
		return gormstore.New(db), func() { Close(db) }, nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// gen_random_uuid() on servers older than 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Supplier{},
		&models.SupplierStaff{},
		&models.Link{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Complaint{},
		&models.Message{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed")
	return nil
}

// createIndexes adds the composite and expression indexes gorm tags
// cannot express. Failures are logged and skipped.
func createIndexes(db *gorm.DB) {
	indexes := []string{
		// Link indexes
		"CREATE INDEX IF NOT EXISTS idx_links_supplier_status ON links(supplier_id, status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_links_consumer_status ON links(consumer_id, status, created_at DESC)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_supplier_active ON products(supplier_id, is_active, created_at DESC) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_products_tags ON products USING GIN(tags)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_supplier_status ON orders(supplier_id, status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_consumer_created ON orders(consumer_id, created_at DESC)",

		// Complaint indexes
		"CREATE INDEX IF NOT EXISTS idx_complaints_link_status ON complaints(link_id, status, created_at DESC)",

		// Chat indexes
		"CREATE INDEX IF NOT EXISTS idx_messages_link_created ON messages(link_id, created_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",

		// Supplier directory search
		"CREATE INDEX IF NOT EXISTS idx_suppliers_search ON suppliers USING GIN(to_tsvector('simple', name || ' ' || coalesce(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}
