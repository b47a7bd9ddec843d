package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// ============================================================================
// Quote Operations
// ============================================================================

// CreateQuote creates the quote node and its WROTE edge in one transaction
func (r *Repository) CreateQuote(ctx context.Context, q Quote) error {
	createdAt := q.CreatedAt.UTC().Format(time.RFC3339Nano)

	_, err := r.write(ctx, "CreateQuote", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `
			OPTIONAL MATCH (q:Quote {id: $quoteID})
			RETURN q IS NOT NULL as taken
		`, map[string]any{"quoteID": q.ID})
		if err != nil {
			return nil, err
		}
		if len(records) > 0 && getBoolFromRecord(records[0], "taken") {
			return nil, apperrors.NewAlreadyExists("quote", q.ID)
		}

		records, err = collect(ctx, tx, `
			MATCH (u:User {id: $authorID})
			CREATE (q:Quote {id: $quoteID, text: $text, created_at: datetime($createdAt)})
			CREATE (u)-[:WROTE {at: datetime($createdAt)}]->(q)
			RETURN q.id as id
		`, map[string]any{
			"authorID":  q.AuthorID,
			"quoteID":   q.ID,
			"text":      q.Text,
			"createdAt": createdAt,
		})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, apperrors.NewNotFound("user", q.AuthorID)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("Quote inserted",
		zap.String("quote_id", q.ID),
		zap.String("author_id", q.AuthorID),
	)
	return nil
}

// GetQuote fetches a quote with its author
func (r *Repository) GetQuote(ctx context.Context, id string) (*Quote, error) {
	result, err := r.read(ctx, "GetQuote", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `
			MATCH (q:Quote {id: $quoteID})
			OPTIONAL MATCH (a:User)-[:WROTE]->(q)
			RETURN q.id as id, q.text as text, q.created_at as created_at, a.id as author_id
		`, map[string]any{"quoteID": id})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, apperrors.NewNotFound("quote", id)
		}
		q := quoteFromRecord(records[0])
		return &q, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Quote), nil
}

// UpdateQuoteText replaces the stored text of a quote
func (r *Repository) UpdateQuoteText(ctx context.Context, id, text string) error {
	_, err := r.write(ctx, "UpdateQuoteText", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `
			MATCH (q:Quote {id: $quoteID})
			SET q.text = $text
			RETURN q.id as id
		`, map[string]any{"quoteID": id, "text": text})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, apperrors.NewNotFound("quote", id)
		}
		return nil, nil
	})
	return err
}

// DeleteQuote removes a quote and every WROTE, SAID and ASSISTED edge pointing at it
func (r *Repository) DeleteQuote(ctx context.Context, id string) error {
	params := map[string]any{"quoteID": id}

	_, err := r.write(ctx, "DeleteQuote", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `MATCH (q:Quote {id: $quoteID}) RETURN q.id as id`, params)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, apperrors.NewNotFound("quote", id)
		}

		if err := exec(ctx, tx, `
			MATCH (:User)-[r:WROTE|SAID|ASSISTED]->(:Quote {id: $quoteID})
			DELETE r
		`, params); err != nil {
			return nil, err
		}
		return nil, exec(ctx, tx, `MATCH (q:Quote {id: $quoteID}) DELETE q`, params)
	})
	if err != nil {
		return err
	}

	r.logger.Info("Quote deleted", zap.String("quote_id", id))
	return nil
}

// TotalQuoteCount counts all stored quotes
func (r *Repository) TotalQuoteCount(ctx context.Context) (int, error) {
	result, err := r.read(ctx, "TotalQuoteCount", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `MATCH (q:Quote) RETURN count(q) as count`, nil)
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
