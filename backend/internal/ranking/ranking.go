package ranking

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
)

// Percentage returns count/total as a percentage with two decimals, computed as
// round(count*10000/total)/100. A zero total yields 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)*10000/float64(total)) / 100
}

// Entry is one ranked user
type Entry struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Stats are the per-kind counts of one user
type Stats struct {
	Name        string  `json:"name"`
	Said        int     `json:"said"`
	Wrote       int     `json:"wrote"`
	Assisted    int     `json:"assisted"`
	SaidPct     float64 `json:"said_pct"`
	WrotePct    float64 `json:"wrote_pct"`
	AssistedPct float64 `json:"assisted_pct"`
	Total       int     `json:"total"`
}

// Engine aggregates relation counts into rankings and user stats
type Engine struct {
	store   graph.Store
	counter *Counter
}

// NewEngine creates a ranking engine. Percentages use counter as denominator.
func NewEngine(store graph.Store, counter *Counter) *Engine {
	return &Engine{store: store, counter: counter}
}

// Ranking lists users by their number of kind edges, highest first. Equal
// counts are ordered by name, then user id.
func (e *Engine) Ranking(ctx context.Context, kind graph.RelationKind) ([]Entry, error) {
	rows, err := e.store.CountRelationsGroupedByUser(ctx, kind)
	if err != nil {
		return nil, err
	}

	total := e.counter.Load()
	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		entries = append(entries, Entry{
			Name:       row.Name,
			Count:      row.Count,
			Percentage: Percentage(row.Count, total),
		})
	}
	return entries, nil
}

// Stats counts the user's Said, Wrote and Assisted edges against one total
func (e *Engine) Stats(ctx context.Context, user *graph.User) (*Stats, error) {
	var said, wrote, assisted int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		said, err = e.store.CountRelations(gctx, graph.Said, user.ID)
		return err
	})
	g.Go(func() (err error) {
		wrote, err = e.store.CountRelations(gctx, graph.Wrote, user.ID)
		return err
	})
	g.Go(func() (err error) {
		assisted, err = e.store.CountRelations(gctx, graph.Assisted, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := e.counter.Load()
	return &Stats{
		Name:        user.Name,
		Said:        said,
		Wrote:       wrote,
		Assisted:    assisted,
		SaidPct:     Percentage(said, total),
		WrotePct:    Percentage(wrote, total),
		AssistedPct: Percentage(assisted, total),
		Total:       total,
	}, nil
}
