package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/pkg/config"
	"github.com/PhilVoel/Zitate-Bot/backend/pkg/logger"
)

const (
	schemaVersion     = "quote_schema_v1"
	schemaDescription = "Unique users, platform ids and quotes; user name index"
)

func main() {
	force := flag.Bool("force", false, "Force migration even if already applied")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogFile); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Named("migrate")
	log.Info("Starting Neo4j schema migration...")

	if cfg.StoreBackend != config.StoreBackendNeo4j {
		log.Fatal("Migrations only apply to the neo4j store backend", zap.String("backend", cfg.StoreBackend))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver, cfg.Neo4jDatabase, cfg.QueryTimeout)

	// Check if migration already applied
	if !*force {
		applied, err := repo.MigrationApplied(ctx, schemaVersion)
		if err != nil {
			log.Fatal("Failed to check migration status", zap.Error(err))
		}
		if applied {
			log.Info("Migration already applied. Use -force to reapply.", zap.String("version", schemaVersion))
			os.Exit(0)
		}
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	// Mark migration as applied
	if err := repo.MarkMigrationApplied(ctx, schemaVersion, schemaDescription); err != nil {
		log.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	total, err := repo.TotalQuoteCount(ctx)
	if err != nil {
		log.Warn("Failed to count quotes", zap.Error(err))
	}
	log.Info("Migration completed successfully!",
		zap.String("version", schemaVersion),
		zap.Int("total_quotes", total),
	)
}
