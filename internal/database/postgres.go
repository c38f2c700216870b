package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vladimiradmaev/mediplus/internal/config"
	"github.com/vladimiradmaev/mediplus/internal/database/migrations"
	"github.com/vladimiradmaev/mediplus/internal/logger"
	"github.com/vladimiradmaev/mediplus/internal/storage"
)

func init() {
	migrations.Register("0001_create_kv_blobs", func(db *gorm.DB) error {
		return db.AutoMigrate(&storage.KVBlob{})
	}, func(db *gorm.DB) error {
		return db.Migrator().DropTable(&storage.KVBlob{})
	})
}

// NewPostgresDB opens the database and brings the schema up to date.
func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("Database connection established and migrations completed", "host", cfg.Host, "db", cfg.DBName)
	return db, nil
}

// Migrate registers the embedded SQL migrations and runs everything pending.
func Migrate(db *gorm.DB) error {
	if err := migrations.LoadSQLMigrations(migrations.SQLFiles, "sql"); err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
