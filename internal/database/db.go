package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// Connect establishes a database connection. Postgres DSNs (postgres:// or
// key=value form) use the postgres driver; anything else is treated as a
// sqlite file path, matching the simulation's default single-file setup.
func Connect(dsn string, logLevel logger.LogLevel) error {
	var err error

	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	if isPostgresDSN(dsn) {
		DB, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		DB, err = gorm.Open(sqlite.Open(dsn), cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

// AutoMigrate runs database migrations
func AutoMigrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&SecurityEvent{},
		&Detection{},
		&Alert{},
		&Incident{},
		&ResponseAction{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults seeds reference data that the dashboard expects to
// exist: the detection rule catalog. Event/alert/incident data comes from
// the scenario generator, not from here.
func InitializeDefaults() error {
	log.Println("Initializing default database records...")

	var count int64
	DB.Model(&Detection{}).Count(&count)
	if count > 0 {
		return nil
	}

	detections, err := LoadDetectionCatalog()
	if err != nil {
		return fmt.Errorf("failed to load detection catalog: %w", err)
	}

	for i := range detections {
		if err := DB.Create(&detections[i]).Error; err != nil {
			return fmt.Errorf("failed to seed detection %s: %w", detections[i].DetectionID, err)
		}
	}

	log.Printf("Seeded %d detection rules", len(detections))
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
