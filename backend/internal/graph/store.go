package graph

import (
	"context"
	"sort"
)

// Store persists users, quotes and the Wrote/Said/Assisted relations between them.
//
// CreateQuote applies the quote and its Wrote edge as one unit, DeleteQuote removes
// the quote together with every edge pointing at it. Count operations never observe
// a partially applied write.
type Store interface {
	CreateUser(ctx context.Context, platformID, name string) (*User, error)
	AddPlatformID(ctx context.Context, userID, platformID string) (*User, error)
	FindUser(ctx context.Context, id Identifier) (*User, error)

	CreateQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, id string) (*Quote, error)
	UpdateQuoteText(ctx context.Context, id, text string) error
	DeleteQuote(ctx context.Context, id string) error

	AddRelation(ctx context.Context, kind RelationKind, userID, quoteID string) error
	HasRelation(ctx context.Context, kind RelationKind, userID, quoteID string) (bool, error)
	CountRelations(ctx context.Context, kind RelationKind, userID string) (int, error)
	CountQuoteRelations(ctx context.Context, kind RelationKind, quoteID string) (int, error)
	CountRelationsGroupedByUser(ctx context.Context, kind RelationKind) ([]RankEntry, error)
	QuotesByRelation(ctx context.Context, kind RelationKind, userID string) ([]Quote, error)
	TotalQuoteCount(ctx context.Context) (int, error)
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*MemoryStore)(nil)
)

// SortRanking orders entries by count descending, then name, then user id.
func SortRanking(entries []RankEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UserID < b.UserID
	})
}
