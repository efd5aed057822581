package config

import (
	"log"

	"github.com/joho/godotenv"
)

// loadDotEnv loads a .env file if present. Missing files are fine in
// production where everything comes from real environment variables.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}
}
