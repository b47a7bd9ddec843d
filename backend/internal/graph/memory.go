package graph

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

type edgeKey struct {
	userID  string
	quoteID string
}

// MemoryStore is an in-process Store. Every operation holds one lock, so each
// call observes and produces a consistent snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*User
	userOrder []string
	platform  map[string]string // platform id -> user id
	quotes    map[string]*Quote
	edges     map[RelationKind]map[edgeKey]struct{}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*User),
		platform: make(map[string]string),
		quotes:   make(map[string]*Quote),
		edges: map[RelationKind]map[edgeKey]struct{}{
			Wrote:    {},
			Said:     {},
			Assisted: {},
		},
	}
}

func checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStorageUnavailable(op, err)
	}
	return nil
}

func copyUser(u *User) *User {
	c := *u
	c.PlatformIDs = append([]string(nil), u.PlatformIDs...)
	return &c
}

func (m *MemoryStore) CreateUser(ctx context.Context, platformID, name string) (*User, error) {
	if err := checkCtx(ctx, "CreateUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.platform[platformID]; taken {
		return nil, apperrors.NewAlreadyExists("platform id", platformID)
	}
	u := &User{ID: uuid.NewString(), Name: name, PlatformIDs: []string{platformID}}
	m.users[u.ID] = u
	m.userOrder = append(m.userOrder, u.ID)
	m.platform[platformID] = u.ID
	return copyUser(u), nil
}

func (m *MemoryStore) AddPlatformID(ctx context.Context, userID, platformID string) (*User, error) {
	if err := checkCtx(ctx, "AddPlatformID"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.NewNotFound("user", userID)
	}
	if owner, taken := m.platform[platformID]; taken {
		if owner != userID {
			return nil, apperrors.NewAlreadyExists("platform id", platformID)
		}
		return copyUser(u), nil
	}
	u.PlatformIDs = append(u.PlatformIDs, platformID)
	m.platform[platformID] = userID
	return copyUser(u), nil
}

func (m *MemoryStore) FindUser(ctx context.Context, id Identifier) (*User, error) {
	if err := checkCtx(ctx, "FindUser"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch id.Kind {
	case ByPlatformID:
		if userID, ok := m.platform[id.Value]; ok {
			return copyUser(m.users[userID]), nil
		}
	case ByName:
		for _, userID := range m.userOrder {
			if u := m.users[userID]; u.Name == id.Value {
				return copyUser(u), nil
			}
		}
	}
	return nil, apperrors.NewNotFound("user", id.String())
}

func (m *MemoryStore) CreateQuote(ctx context.Context, q Quote) error {
	if err := checkCtx(ctx, "CreateQuote"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.quotes[q.ID]; exists {
		return apperrors.NewAlreadyExists("quote", q.ID)
	}
	if _, ok := m.users[q.AuthorID]; !ok {
		return apperrors.NewNotFound("user", q.AuthorID)
	}
	stored := q
	m.quotes[q.ID] = &stored
	m.edges[Wrote][edgeKey{q.AuthorID, q.ID}] = struct{}{}
	return nil
}

func (m *MemoryStore) GetQuote(ctx context.Context, id string) (*Quote, error) {
	if err := checkCtx(ctx, "GetQuote"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotes[id]
	if !ok {
		return nil, apperrors.NewNotFound("quote", id)
	}
	c := *q
	return &c, nil
}

func (m *MemoryStore) UpdateQuoteText(ctx context.Context, id, text string) error {
	if err := checkCtx(ctx, "UpdateQuoteText"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quotes[id]
	if !ok {
		return apperrors.NewNotFound("quote", id)
	}
	q.Text = text
	return nil
}

func (m *MemoryStore) DeleteQuote(ctx context.Context, id string) error {
	if err := checkCtx(ctx, "DeleteQuote"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.quotes[id]; !ok {
		return apperrors.NewNotFound("quote", id)
	}
	for _, edges := range m.edges {
		for key := range edges {
			if key.quoteID == id {
				delete(edges, key)
			}
		}
	}
	delete(m.quotes, id)
	return nil
}

func (m *MemoryStore) AddRelation(ctx context.Context, kind RelationKind, userID, quoteID string) error {
	if err := checkCtx(ctx, "AddRelation"); err != nil {
		return err
	}
	if kind != Said && kind != Assisted {
		return apperrors.NewValidation("relation kind", string(kind), "only said and assisted can be added")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return apperrors.NewNotFound("user", userID)
	}
	if _, ok := m.quotes[quoteID]; !ok {
		return apperrors.NewNotFound("quote", quoteID)
	}
	key := edgeKey{userID, quoteID}
	if _, exists := m.edges[kind][key]; exists {
		return apperrors.NewAlreadyExists(string(kind), userID+"->"+quoteID)
	}
	m.edges[kind][key] = struct{}{}
	return nil
}

func (m *MemoryStore) HasRelation(ctx context.Context, kind RelationKind, userID, quoteID string) (bool, error) {
	if err := checkCtx(ctx, "HasRelation"); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.edges[kind][edgeKey{userID, quoteID}]
	return ok, nil
}

func (m *MemoryStore) CountRelations(ctx context.Context, kind RelationKind, userID string) (int, error) {
	if err := checkCtx(ctx, "CountRelations"); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for key := range m.edges[kind] {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountQuoteRelations(ctx context.Context, kind RelationKind, quoteID string) (int, error) {
	if err := checkCtx(ctx, "CountQuoteRelations"); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for key := range m.edges[kind] {
		if key.quoteID == quoteID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountRelationsGroupedByUser(ctx context.Context, kind RelationKind) ([]RankEntry, error) {
	if err := checkCtx(ctx, "CountRelationsGroupedByUser"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for key := range m.edges[kind] {
		counts[key.userID]++
	}
	entries := make([]RankEntry, 0, len(counts))
	for userID, n := range counts {
		entries = append(entries, RankEntry{UserID: userID, Name: m.users[userID].Name, Count: n})
	}
	SortRanking(entries)
	return entries, nil
}

func (m *MemoryStore) QuotesByRelation(ctx context.Context, kind RelationKind, userID string) ([]Quote, error) {
	if err := checkCtx(ctx, "QuotesByRelation"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var quotes []Quote
	for key := range m.edges[kind] {
		if key.userID == userID {
			quotes = append(quotes, *m.quotes[key.quoteID])
		}
	}
	sort.Slice(quotes, func(i, j int) bool {
		if !quotes[i].CreatedAt.Equal(quotes[j].CreatedAt) {
			return quotes[i].CreatedAt.Before(quotes[j].CreatedAt)
		}
		return quotes[i].ID < quotes[j].ID
	})
	return quotes, nil
}

func (m *MemoryStore) TotalQuoteCount(ctx context.Context) (int, error) {
	if err := checkCtx(ctx, "TotalQuoteCount"); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.quotes), nil
}
