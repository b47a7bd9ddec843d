package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

func seedQuote(t *testing.T, s Store, quoteID string) (*User, Quote) {
	t.Helper()
	ctx := context.Background()
	author, err := s.CreateUser(ctx, "100"+quoteID, "author-"+quoteID)
	require.NoError(t, err)
	q := Quote{ID: quoteID, Text: "text " + quoteID, CreatedAt: time.Unix(1700000000, 0).UTC(), AuthorID: author.ID}
	require.NoError(t, s.CreateQuote(ctx, q))
	return author, q
}

func TestMemoryStore_CreateUserAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alice, err := s.CreateUser(ctx, "111", "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, []string{"111"}, alice.PlatformIDs)

	byID, err := s.FindUser(ctx, PlatformID("111"))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byID.ID)

	byName, err := s.FindUser(ctx, Name("Alice"))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = s.FindUser(ctx, Name("Nobody"))
	assert.True(t, apperrors.IsNotFound(err))

	_, err = s.CreateUser(ctx, "111", "Alice again")
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestMemoryStore_AddPlatformIDMerges(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alice, err := s.CreateUser(ctx, "111", "Alice")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "222", "Bob")
	require.NoError(t, err)

	merged, err := s.AddPlatformID(ctx, alice.ID, "333")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"111", "333"}, merged.PlatformIDs)

	found, err := s.FindUser(ctx, PlatformID("333"))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	// Adding an id the user already owns is a no-op
	again, err := s.AddPlatformID(ctx, alice.ID, "333")
	require.NoError(t, err)
	assert.Len(t, again.PlatformIDs, 2)

	_, err = s.AddPlatformID(ctx, bob.ID, "111")
	assert.True(t, apperrors.IsAlreadyExists(err))

	_, err = s.AddPlatformID(ctx, "missing", "444")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_CreateQuoteAddsWroteEdge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	author, q := seedQuote(t, s, "1")

	wrote, err := s.HasRelation(ctx, Wrote, author.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, wrote)

	n, err := s.CountQuoteRelations(ctx, Wrote, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = s.CreateQuote(ctx, Quote{ID: q.ID, AuthorID: author.ID})
	assert.True(t, apperrors.IsAlreadyExists(err))

	err = s.CreateQuote(ctx, Quote{ID: "2", AuthorID: "ghost"})
	assert.True(t, apperrors.IsNotFound(err))

	total, err := s.TotalQuoteCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMemoryStore_AddRelationDedupes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, q := seedQuote(t, s, "1")
	bob, err := s.CreateUser(ctx, "222", "Bob")
	require.NoError(t, err)

	require.NoError(t, s.AddRelation(ctx, Said, bob.ID, q.ID))
	err = s.AddRelation(ctx, Said, bob.ID, q.ID)
	assert.True(t, apperrors.IsAlreadyExists(err))

	err = s.AddRelation(ctx, Wrote, bob.ID, q.ID)
	assert.True(t, apperrors.IsValidation(err))

	err = s.AddRelation(ctx, Said, bob.ID, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	n, err := s.CountRelations(ctx, Said, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_DeleteQuoteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	author, q := seedQuote(t, s, "1")
	_, other := seedQuote(t, s, "2")
	bob, err := s.CreateUser(ctx, "222", "Bob")
	require.NoError(t, err)
	require.NoError(t, s.AddRelation(ctx, Said, bob.ID, q.ID))
	require.NoError(t, s.AddRelation(ctx, Assisted, author.ID, q.ID))
	require.NoError(t, s.AddRelation(ctx, Said, bob.ID, other.ID))

	require.NoError(t, s.DeleteQuote(ctx, q.ID))

	_, err = s.GetQuote(ctx, q.ID)
	assert.True(t, apperrors.IsNotFound(err))

	for _, kind := range []RelationKind{Wrote, Said, Assisted} {
		n, err := s.CountQuoteRelations(ctx, kind, q.ID)
		require.NoError(t, err)
		assert.Zero(t, n, kind)
	}

	said, err := s.CountRelations(ctx, Said, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, said)

	err = s.DeleteQuote(ctx, q.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestMemoryStore_GroupedCountsTieBreakByName(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, q1 := seedQuote(t, s, "1")
	_, q2 := seedQuote(t, s, "2")

	zed, err := s.CreateUser(ctx, "301", "Zed")
	require.NoError(t, err)
	amy, err := s.CreateUser(ctx, "302", "Amy")
	require.NoError(t, err)
	maxi, err := s.CreateUser(ctx, "303", "Max")
	require.NoError(t, err)

	require.NoError(t, s.AddRelation(ctx, Said, zed.ID, q1.ID))
	require.NoError(t, s.AddRelation(ctx, Said, amy.ID, q1.ID))
	require.NoError(t, s.AddRelation(ctx, Said, maxi.ID, q1.ID))
	require.NoError(t, s.AddRelation(ctx, Said, maxi.ID, q2.ID))

	entries, err := s.CountRelationsGroupedByUser(ctx, Said)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Max", entries[0].Name)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, "Amy", entries[1].Name)
	assert.Equal(t, "Zed", entries[2].Name)
}

func TestMemoryStore_UpdateQuoteTextAndListing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	author, q := seedQuote(t, s, "1")

	require.NoError(t, s.UpdateQuoteText(ctx, q.ID, "edited"))
	got, err := s.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)

	quotes, err := s.QuotesByRelation(ctx, Wrote, author.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "edited", quotes[0].Text)

	assert.True(t, apperrors.IsNotFound(s.UpdateQuoteText(ctx, "missing", "x")))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().TotalQuoteCount(ctx)
	assert.True(t, apperrors.IsStorageUnavailable(err))
}
