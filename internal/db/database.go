package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/hallelx2/legal-ai-backend/internal/config"
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Initialize opens the database named by the configuration and migrates it.
func Initialize(cfg *config.Configuration, log *zap.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if cfg.Database.LogQueries {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	database, err := gorm.Open(dialector(cfg.Database), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite(cfg.Database) {
		// one connection keeps in-memory databases shared and serializes writes
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	}

	if err := Migrate(database, log); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// OpenMemory returns a migrated in-memory database.
func OpenMemory(log *zap.Logger) (*gorm.DB, error) {
	cfg := config.Default()
	cfg.Database.URL = sqlitePrefix + "file::memory:"
	return Initialize(cfg, log)
}

func Migrate(database *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations")

	return database.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Agreement{},
		&models.AuthToken{},
	)
}

func dialector(cfg config.DatabaseConfig) gorm.Dialector {
	if isSQLite(cfg) {
		return sqlite.Open(strings.TrimPrefix(cfg.URL, sqlitePrefix))
	}
	if cfg.URL != "" {
		return postgres.Open(cfg.URL)
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host,
		cfg.Username,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
	)
	return postgres.Open(dsn)
}

func isSQLite(cfg config.DatabaseConfig) bool {
	return strings.HasPrefix(cfg.URL, sqlitePrefix)
}

func Ping(ctx context.Context, database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
