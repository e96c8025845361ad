package main

import (
	"database/sql"

	"github.com/spf13/cobra"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"

	_ "github.com/lib/pq"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "Warehouse inventory and order service",
	Long: `warehouse keeps the product catalog and its stock levels, and places
orders against it. Each order reserves stock for all of its lines in a
single database transaction or not at all.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
}

// loadConfig reads the configuration and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(cfg.Log.Level)
	return cfg, nil
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}
