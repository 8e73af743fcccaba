package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"livepoll/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.AppMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdle)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("Database connection established")
	return db, nil
}

// DSN is the keyword/value connection string gorm opens.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
}

// URL is the same connection in URL form, as the migration driver expects it.
func URL(cfg *config.Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:     cfg.DBHost + ":" + cfg.DBPort,
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func Ping(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// HealthCheck verifies the connection and that the ledger tables are present.
func HealthCheck(ctx context.Context) error {
	if err := Ping(ctx); err != nil {
		return err
	}
	for _, table := range LedgerTables {
		exists, err := TableExists(table)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}
	return nil
}

// LedgerTables lists the tables created by the migrations.
var LedgerTables = []string{"users", "polls", "poll_options", "votes"}

func TableExists(table string) (bool, error) {
	var exists bool
	err := DB.Raw(
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?)",
		table,
	).Scan(&exists).Error
	return exists, err
}

func GetTableCount(table string) (int64, error) {
	var count int64
	err := DB.Table(table).Count(&count).Error
	return count, err
}
