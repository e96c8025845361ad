package main

import (
	"github.com/joho/godotenv"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		logging.New("warehouse-service").Fatal("Command failed", logging.Fields{"error": err.Error()})
	}
}
