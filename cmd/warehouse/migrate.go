package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the products, orders and order_items tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := initDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	store := repository.NewPostgresStore(db, logging.New("repository"))
	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logging.Infof("Schema migrated on %s/%s", cfg.Database.Host, cfg.Database.Name)
	return nil
}
