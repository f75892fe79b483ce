package database

import (
	"log"

	"github.com/pitchcraft/pitchcraft-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("Database connection established")

	// Migration: creates/updates the tables in Postgres automatically
	log.Println("Running Migrations...")
	if err := db.AutoMigrate(&models.User{}, &models.Pitch{}, &models.PitchEvent{}); err != nil {
		log.Fatal("Migration failed:", err)
	}
	return db
}
