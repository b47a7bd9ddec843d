// Package bootstrap opens the configured store for the bot, server and migrate binaries.
package bootstrap

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/pkg/config"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// Store is an opened store together with its cleanup
type Store struct {
	graph.Store
	// Repository is set for the neo4j backend
	Repository *graph.Repository
	close      func()
}

// Close releases the store's connections
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore connects to the configured backend. Connection failures are
// returned as StartupFailure and are meant to be fatal.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Warn("Using in-memory store, data is lost on exit")
		return &Store{Store: graph.NewMemoryStore()}, nil
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, apperrors.NewStartupFailure("neo4j driver", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(context.Background())
		return nil, apperrors.NewStartupFailure("neo4j connectivity", err)
	}
	log.Info("Connected to Neo4j", zap.String("uri", cfg.Neo4jURI))

	repo := graph.NewRepository(driver, cfg.Neo4jDatabase, cfg.QueryTimeout)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, apperrors.NewStartupFailure("neo4j schema", err)
	}

	return &Store{
		Store:      repo,
		Repository: repo,
		close: func() {
			if err := repo.Close(); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("Failed to close Neo4j driver", zap.Error(err))
			}
		},
	}, nil
}
