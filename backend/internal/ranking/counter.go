package ranking

import (
	"context"
	"sync/atomic"
)

// QuoteCounter is the store query the Counter is reconciled against
type QuoteCounter interface {
	TotalQuoteCount(ctx context.Context) (int, error)
}

// Counter caches the global quote count used as the percentage denominator.
// It is adjusted only after a quote create or delete has been persisted.
type Counter struct {
	n atomic.Int64
}

// NewCounter creates a counter starting at n
func NewCounter(n int) *Counter {
	c := &Counter{}
	c.n.Store(int64(n))
	return c
}

// Load returns the current count
func (c *Counter) Load() int {
	return int(c.n.Load())
}

// Inc records one created quote
func (c *Counter) Inc() int {
	return int(c.n.Add(1))
}

// Dec records one deleted quote; the count never drops below zero
func (c *Counter) Dec() int {
	for {
		cur := c.n.Load()
		if cur <= 0 {
			return 0
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return int(cur - 1)
		}
	}
}

// Resync replaces the cached value with the store's count(Quote)
func (c *Counter) Resync(ctx context.Context, store QuoteCounter) (int, error) {
	n, err := store.TotalQuoteCount(ctx)
	if err != nil {
		return c.Load(), err
	}
	c.n.Store(int64(n))
	return n, nil
}
