package main

import (
	"log"

	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Printf("Running AutoMigrate for %d tables...", len(model.All()))
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}
