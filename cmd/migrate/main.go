package main

import (
	"booknet/internal/config" // Custom import path (Config)
	"booknet/internal/db"     // Custom import path (Database)
	"context"                 // Seeding context
	"flag"                    // Command line flags

	"github.com/sirupsen/logrus" // Structured logging
)

// Main entry point for migration
func main() {
	seed := flag.Bool("seed", false, "insert the default ADMIN, CUSTOMER and DELIVERY users")
	flag.Parse()

	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	config.ConfigureLogger(cfg)

	db.Migrate(cfg.DSN())
	if !*seed {
		return
	}
	gdb, err := db.Open(cfg.DSN(), false)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	n, err := db.Seed(context.Background(), gdb)
	if err != nil {
		logrus.Fatalf("seeding failed: %v", err)
	}
	logrus.WithField("created", n).Info("Seeding completed.")
}
