package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// ============================================================================
// User-to-Quote Relationship Operations
// ============================================================================

func validKind(kind RelationKind) error {
	if kind.relType() == "" {
		return apperrors.NewValidation("relation kind", string(kind), "unknown kind")
	}
	return nil
}

// AddRelation records a SAID or ASSISTED edge. An existing edge of the same kind
// is reported as AlreadyExists rather than merged silently.
func (r *Repository) AddRelation(ctx context.Context, kind RelationKind, userID, quoteID string) error {
	if kind != Said && kind != Assisted {
		return apperrors.NewValidation("relation kind", string(kind), "only said and assisted can be added")
	}

	params := map[string]any{
		"userID":  userID,
		"quoteID": quoteID,
		"now":     time.Now().UTC().Format(time.RFC3339),
	}

	_, err := r.write(ctx, "AddRelation", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, fmt.Sprintf(`
			OPTIONAL MATCH (u:User {id: $userID})
			OPTIONAL MATCH (q:Quote {id: $quoteID})
			OPTIONAL MATCH (u)-[e:%s]->(q)
			RETURN u IS NOT NULL as has_user, q IS NOT NULL as has_quote, count(e) as count
		`, kind.relType()), params)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 || !getBoolFromRecord(records[0], "has_user") {
			return nil, apperrors.NewNotFound("user", userID)
		}
		if !getBoolFromRecord(records[0], "has_quote") {
			return nil, apperrors.NewNotFound("quote", quoteID)
		}
		if getIntFromRecord(records[0], "count") > 0 {
			return nil, apperrors.NewAlreadyExists(string(kind), userID+"->"+quoteID)
		}

		return nil, exec(ctx, tx, fmt.Sprintf(`
			MATCH (u:User {id: $userID})
			MATCH (q:Quote {id: $quoteID})
			MERGE (u)-[e:%s]->(q)
			ON CREATE SET e.at = datetime($now)
		`, kind.relType()), params)
	})
	return err
}

// HasRelation reports whether the user holds an edge of kind to the quote
func (r *Repository) HasRelation(ctx context.Context, kind RelationKind, userID, quoteID string) (bool, error) {
	if err := validKind(kind); err != nil {
		return false, err
	}
	result, err := r.read(ctx, "HasRelation", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, fmt.Sprintf(`
			MATCH (:User {id: $userID})-[e:%s]->(:Quote {id: $quoteID})
			RETURN count(e) as count
		`, kind.relType()), map[string]any{"userID": userID, "quoteID": quoteID})
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

// CountRelations counts the edges of kind leaving a user
func (r *Repository) CountRelations(ctx context.Context, kind RelationKind, userID string) (int, error) {
	if err := validKind(kind); err != nil {
		return 0, err
	}
	return r.count(ctx, "CountRelations", fmt.Sprintf(`
		MATCH (:User {id: $userID})-[e:%s]->(:Quote)
		RETURN count(e) as count
	`, kind.relType()), map[string]any{"userID": userID})
}

// CountQuoteRelations counts the edges of kind pointing at a quote
func (r *Repository) CountQuoteRelations(ctx context.Context, kind RelationKind, quoteID string) (int, error) {
	if err := validKind(kind); err != nil {
		return 0, err
	}
	return r.count(ctx, "CountQuoteRelations", fmt.Sprintf(`
		MATCH (:User)-[e:%s]->(:Quote {id: $quoteID})
		RETURN count(e) as count
	`, kind.relType()), map[string]any{"quoteID": quoteID})
}

func (r *Repository) count(ctx context.Context, op, query string, params map[string]any) (int, error) {
	result, err := r.read(ctx, op, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		return countResult(records), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

// CountRelationsGroupedByUser returns per-user edge counts, highest first
func (r *Repository) CountRelationsGroupedByUser(ctx context.Context, kind RelationKind) ([]RankEntry, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	result, err := r.read(ctx, "CountRelationsGroupedByUser", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, fmt.Sprintf(`
			MATCH (u:User)-[e:%s]->(:Quote)
			RETURN u.id as user_id, u.name as name, count(e) as count
			ORDER BY count DESC, name ASC, user_id ASC
		`, kind.relType()), nil)
		if err != nil {
			return nil, err
		}
		entries := make([]RankEntry, 0, len(records))
		for _, record := range records {
			entries = append(entries, RankEntry{
				UserID: getStringFromRecord(record, "user_id"),
				Name:   getStringFromRecord(record, "name"),
				Count:  getIntFromRecord(record, "count"),
			})
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]RankEntry), nil
}

// QuotesByRelation lists the quotes a user holds an edge of kind to, oldest first
func (r *Repository) QuotesByRelation(ctx context.Context, kind RelationKind, userID string) ([]Quote, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	result, err := r.read(ctx, "QuotesByRelation", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, fmt.Sprintf(`
			MATCH (:User {id: $userID})-[:%s]->(q:Quote)
			OPTIONAL MATCH (a:User)-[:WROTE]->(q)
			RETURN q.id as id, q.text as text, q.created_at as created_at, a.id as author_id
			ORDER BY q.created_at, q.id
		`, kind.relType()), map[string]any{"userID": userID})
		if err != nil {
			return nil, err
		}
		quotes := make([]Quote, 0, len(records))
		for _, record := range records {
			quotes = append(quotes, quoteFromRecord(record))
		}
		return quotes, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Quote), nil
}
