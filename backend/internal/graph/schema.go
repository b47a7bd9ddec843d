package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// schemaStatements enforce uniqueness of users, platform ids and quotes.
// SAID/ASSISTED pair uniqueness is enforced in AddRelation and by the
// per-quote lock held by callers.
var schemaStatements = []struct {
	name  string
	query string
}{
	{"user_id_unique", `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`},
	{"platform_id_unique", `CREATE CONSTRAINT platform_id_unique IF NOT EXISTS FOR (p:PlatformID) REQUIRE p.id IS UNIQUE`},
	{"quote_id_unique", `CREATE CONSTRAINT quote_id_unique IF NOT EXISTS FOR (q:Quote) REQUIRE q.id IS UNIQUE`},
	{"user_name_index", `CREATE INDEX user_name_index IF NOT EXISTS FOR (u:User) ON (u.name)`},
}

// EnsureSchema creates the constraints and indexes the repository relies on.
// Schema commands cannot share a transaction with each other, so each runs alone.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := r.runSchemaStatement(ctx, stmt.query); err != nil {
			return fmt.Errorf("schema %s: %w", stmt.name, err)
		}
		r.logger.Debug("Schema statement applied", zap.String("name", stmt.name))
	}
	return nil
}

func (r *Repository) runSchemaStatement(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session := r.newWriteSession(ctx)
	defer session.Close(ctx)

	res, err := session.Run(ctx, query, nil)
	if err != nil {
		return r.classify(ctx, "EnsureSchema", err)
	}
	_, err = res.Consume(ctx)
	return r.classify(ctx, "EnsureSchema", err)
}

// MigrationApplied reports whether a schema version marker exists
func (r *Repository) MigrationApplied(ctx context.Context, version string) (bool, error) {
	result, err := r.read(ctx, "MigrationApplied", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `
			MATCH (m:Migration {version: $version})
			RETURN count(m) as count
		`, map[string]any{"version": version})
		if err != nil {
			return nil, err
		}
		return countResult(records) > 0, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// MarkMigrationApplied records a schema version marker
func (r *Repository) MarkMigrationApplied(ctx context.Context, version, description string) error {
	_, err := r.write(ctx, "MarkMigrationApplied", func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, exec(ctx, tx, `
			MERGE (m:Migration {version: $version})
			SET m.applied_at = datetime(),
			    m.description = $description
		`, map[string]any{"version": version, "description": description})
	})
	return err
}
