package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/constants"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/keylock"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/ranking"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// State is where a quote is in its attribution workflow
type State int

const (
	// Pending means no quote with that id is stored
	Pending State = iota
	// Open means the quote is stored and its thread still exists
	Open
	// Closed means the quote is stored and its thread is gone
	Closed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// FinalizeResult is the outcome of closing a quote's attribution workflow
type FinalizeResult int

const (
	Finalized FinalizeResult = iota + 1
	// Rejected means no Said edge exists yet; the quote stays Open
	Rejected
)

// Message renders the user-facing reply
func (r FinalizeResult) Message(quoteID string) string {
	if r == Rejected {
		return constants.MsgNotYetSaid
	}
	return fmt.Sprintf("Quote %s finalized.", quoteID)
}

// Coordinator drives quotes through Pending -> Open -> Closed and removal.
// Every operation on one quote id runs under that id's lock.
type Coordinator struct {
	store    graph.Store
	platform Platform
	resolver *identity.Resolver
	counter  *ranking.Counter
	locks    *keylock.Locker
	logger   *zap.Logger

	mu        sync.Mutex
	unsettled map[unsettledKey]struct{}
}

type writeOp int

const (
	opCreate writeOp = iota
	opDelete
)

// unsettledKey marks a write that failed with StorageUnavailable and may have committed
type unsettledKey struct {
	op      writeOp
	quoteID string
}

// NewCoordinator wires a lifecycle coordinator
func NewCoordinator(
	store graph.Store,
	platform Platform,
	resolver *identity.Resolver,
	counter *ranking.Counter,
	locks *keylock.Locker,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		store:     store,
		platform:  platform,
		resolver:  resolver,
		counter:   counter,
		locks:     locks,
		logger:    logger,
		unsettled: make(map[unsettledKey]struct{}),
	}
}

// Submit stores msg as a quote written by its author and opens its thread.
// A second submission of the same id returns AlreadyExists and changes nothing.
func (c *Coordinator) Submit(ctx context.Context, msg Message) (*graph.Quote, error) {
	if err := identity.ValidateID("message id", msg.ID); err != nil {
		return nil, err
	}

	unlock, err := c.locks.LockContext(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	author, _, err := c.resolver.Ensure(ctx, msg.AuthorID, msg.AuthorName)
	if err != nil {
		return nil, fmt.Errorf("resolve author: %w", err)
	}

	createdAt := msg.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	quote := graph.Quote{
		ID:        msg.ID,
		Text:      msg.Text,
		CreatedAt: createdAt.UTC(),
		AuthorID:  author.ID,
	}
	total, err := c.createQuote(ctx, quote)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Quote submitted",
		zap.String("quote_id", quote.ID),
		zap.String("author", author.Name),
		zap.String("text", quote.Text),
		zap.Int("total_quotes", total),
	)

	if _, err := c.platform.CreateThread(ctx, quote.ID, threadSeed(msg)); err != nil {
		c.logger.Warn("Failed to create attribution thread, quote kept without thread",
			zap.String("quote_id", quote.ID),
			zap.Error(err),
		)
	}
	return &quote, nil
}

// SubmitByID fetches a message from the platform and submits it
func (c *Coordinator) SubmitByID(ctx context.Context, messageID string) (*graph.Quote, error) {
	if err := identity.ValidateID("message id", messageID); err != nil {
		return nil, err
	}
	msg, err := c.platform.FetchMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, *msg)
}

// EnsureUser returns the user owning platformID. An unknown id is created
// under its platform display name.
func (c *Coordinator) EnsureUser(ctx context.Context, platformID string) (*graph.User, error) {
	user, err := c.resolver.Resolve(ctx, graph.PlatformID(platformID))
	if !apperrors.IsNotFound(err) {
		return user, err
	}
	name, err := c.platform.DisplayName(ctx, platformID)
	if err != nil {
		return nil, fmt.Errorf("display name of %s: %w", platformID, err)
	}
	user, _, err = c.resolver.Ensure(ctx, platformID, name)
	return user, err
}

func threadSeed(msg Message) string {
	if msg.Link == "" {
		return msg.Text
	}
	return msg.Link + "\n" + msg.Text
}

// Edit replaces the stored text. changed is false when the text was already equal.
func (c *Coordinator) Edit(ctx context.Context, quoteID, text string) (changed bool, err error) {
	unlock, err := c.locks.LockContext(ctx, quoteID)
	if err != nil {
		return false, err
	}
	defer unlock()

	quote, err := c.store.GetQuote(ctx, quoteID)
	if err != nil {
		return false, err
	}
	if quote.Text == text {
		return false, nil
	}
	if err := c.store.UpdateQuoteText(ctx, quoteID, text); err != nil {
		return false, err
	}

	c.logger.Info("Quote edited",
		zap.String("quote_id", quoteID),
		zap.String("before", quote.Text),
		zap.String("after", text),
	)
	return true, nil
}

// Finalize closes the workflow once somebody has been credited with saying the quote
func (c *Coordinator) Finalize(ctx context.Context, quoteID string) (FinalizeResult, error) {
	unlock, err := c.locks.LockContext(ctx, quoteID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if _, err := c.store.GetQuote(ctx, quoteID); err != nil {
		return 0, err
	}
	said, err := c.store.CountQuoteRelations(ctx, graph.Said, quoteID)
	if err != nil {
		return 0, err
	}
	if said == 0 {
		c.logger.Debug("Finalize rejected, no said edge", zap.String("quote_id", quoteID))
		return Rejected, nil
	}

	c.closeThread(ctx, quoteID)
	c.logger.Info("Quote finalized",
		zap.String("quote_id", quoteID),
		zap.Int("said", said),
	)
	return Finalized, nil
}

// Remove deletes the quote with all its edges and closes its thread.
// When an earlier attempt failed after the delete had already committed,
// the retry finishes that removal instead of reporting NotFound.
func (c *Coordinator) Remove(ctx context.Context, quoteID string) error {
	unlock, err := c.locks.LockContext(ctx, quoteID)
	if err != nil {
		return err
	}
	defer unlock()

	quote, err := c.store.GetQuote(ctx, quoteID)
	if err != nil {
		if apperrors.IsNotFound(err) && c.settle(opDelete, quoteID) {
			total := c.resync(ctx)
			c.logger.Info("Earlier removal of quote had committed",
				zap.String("quote_id", quoteID),
				zap.Int("total_quotes", total),
			)
			c.closeThread(ctx, quoteID)
			return nil
		}
		return err
	}
	if err := c.store.DeleteQuote(ctx, quoteID); err != nil {
		if apperrors.IsStorageUnavailable(err) {
			c.unsettle(opDelete, quoteID)
			c.resync(ctx)
		}
		return err
	}
	c.settle(opDelete, quoteID)
	total := c.counter.Dec()

	c.logger.Info("Quote removed",
		zap.String("quote_id", quoteID),
		zap.String("text", quote.Text),
		zap.Int("total_quotes", total),
	)

	c.closeThread(ctx, quoteID)
	return nil
}

// createQuote stores q and returns the new global count. AlreadyExists after
// an unsettled create means the earlier attempt committed; that counts as success.
func (c *Coordinator) createQuote(ctx context.Context, q graph.Quote) (int, error) {
	err := c.store.CreateQuote(ctx, q)
	switch {
	case err == nil:
		c.settle(opCreate, q.ID)
		return c.counter.Inc(), nil
	case apperrors.IsAlreadyExists(err) && c.settle(opCreate, q.ID):
		c.logger.Info("Earlier submission of quote had committed", zap.String("quote_id", q.ID))
		return c.resync(ctx), nil
	case apperrors.IsStorageUnavailable(err):
		c.unsettle(opCreate, q.ID)
		c.resync(ctx)
	}
	return 0, err
}

// resync reloads the counter after a write whose outcome is unknown.
// It runs detached from ctx, which has usually expired by then.
func (c *Coordinator) resync(ctx context.Context) int {
	total, err := c.counter.Resync(context.WithoutCancel(ctx), c.store)
	if err != nil {
		c.logger.Warn("Failed to resync quote counter", zap.Error(err))
	}
	return total
}

func (c *Coordinator) unsettle(op writeOp, quoteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsettled[unsettledKey{op, quoteID}] = struct{}{}
}

// settle clears a pending marker and reports whether one existed
func (c *Coordinator) settle(op writeOp, quoteID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := unsettledKey{op, quoteID}
	_, ok := c.unsettled[key]
	delete(c.unsettled, key)
	return ok
}

// State reports where the quote is in its workflow
func (c *Coordinator) State(ctx context.Context, quoteID string) (State, error) {
	if _, err := c.store.GetQuote(ctx, quoteID); err != nil {
		if apperrors.IsNotFound(err) {
			return Pending, nil
		}
		return Pending, err
	}
	if _, err := c.platform.FindThread(ctx, quoteID); err != nil {
		if apperrors.IsNotFound(err) {
			return Closed, nil
		}
		return Open, err
	}
	return Open, nil
}

func (c *Coordinator) closeThread(ctx context.Context, quoteID string) {
	threadID, err := c.platform.FindThread(ctx, quoteID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			c.logger.Warn("Failed to look up attribution thread",
				zap.String("quote_id", quoteID),
				zap.Error(err),
			)
		}
		return
	}
	if err := c.platform.DeleteThread(ctx, threadID); err != nil {
		c.logger.Warn("Failed to delete attribution thread",
			zap.String("quote_id", quoteID),
			zap.String("thread_id", threadID),
			zap.Error(err),
		)
	}
}
