package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/model"
)

// Init opens the configured database, sizes the pool and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.LogQueries {
		logLevel = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("database initialization complete")
	return db, nil
}

// Dialector resolves the gorm dialector for a driver name.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates the schema for all persisted models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.Alarm{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
