package config

import (
	"os"

	"github.com/spirow73/study-ai-pro/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var Database *gorm.DB

// Connect opens Postgres when DB_URL is set, otherwise a local SQLite
// file, and migrates the schema.
func Connect() error {
	var err error
	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		Database, err = gorm.Open(postgres.Open(dbURL), &gorm.Config{})
	} else {
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "studyai.db"
		}
		Database, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	}
	if err != nil {
		panic("failed to connect database")
	}

	err = Database.AutoMigrate(&models.Question{}, &models.ProgressEntry{}, &models.Document{})
	if err != nil {
		panic("failed to auto migrate database")
	}

	return nil
}
