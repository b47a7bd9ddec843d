// Package commands is the front-end facade shared by slash commands and the
// console. Every method validates its input, runs the operation with storage
// retries and renders the reply text.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/attribution"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/constants"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/lifecycle"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/ranking"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/retry"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

const quoteSeparator = "\n------------------\n"

// LinkFunc renders a link to the message a quote came from
type LinkFunc func(quoteID string) string

// MessageLink builds links into a guild channel
func MessageLink(guildID, channelID string) LinkFunc {
	return func(quoteID string) string {
		return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, quoteID)
	}
}

// Facade bundles the services a front-end talks to
type Facade struct {
	store       graph.Store
	resolver    *identity.Resolver
	attribution *attribution.Service
	engine      *ranking.Engine
	lifecycle   *lifecycle.Coordinator
	link        LinkFunc
	retry       retry.Config
	logger      *zap.Logger
}

// Deps are the collaborators of a Facade
type Deps struct {
	Store       graph.Store
	Resolver    *identity.Resolver
	Attribution *attribution.Service
	Engine      *ranking.Engine
	Lifecycle   *lifecycle.Coordinator
	Link        LinkFunc
	Retry       retry.Config
	Logger      *zap.Logger
}

// New creates a command facade
func New(d Deps) *Facade {
	link := d.Link
	if link == nil {
		link = func(id string) string { return id }
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Facade{
		store:       d.Store,
		resolver:    d.Resolver,
		attribution: d.Attribution,
		engine:      d.Engine,
		lifecycle:   d.Lifecycle,
		link:        link,
		retry:       d.Retry,
		logger:      logger,
	}
}

// SubmitQuoteByID registers an already posted message as a quote
func (f *Facade) SubmitQuoteByID(ctx context.Context, messageID string) string {
	if err := identity.ValidateID("message id", messageID); err != nil {
		return f.reply(ctx, "SubmitQuoteByID", err)
	}
	q, err := retry.Do(ctx, f.retry, f.logger, "SubmitQuoteByID", func(ctx context.Context) (*graph.Quote, error) {
		return f.lifecycle.SubmitByID(ctx, messageID)
	})
	if apperrors.IsAlreadyExists(err) {
		return fmt.Sprintf("Quote %s is already registered.", messageID)
	}
	if err != nil {
		return f.reply(ctx, "SubmitQuoteByID", err)
	}
	return fmt.Sprintf("Quote %s registered.", q.ID)
}

// RemoveQuoteByID deletes a quote, its relations and its thread
func (f *Facade) RemoveQuoteByID(ctx context.Context, messageID string) string {
	if err := identity.ValidateID("message id", messageID); err != nil {
		return f.reply(ctx, "RemoveQuoteByID", err)
	}
	_, err := retry.Do(ctx, f.retry, f.logger, "RemoveQuoteByID", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f.lifecycle.Remove(ctx, messageID)
	})
	if err != nil {
		return f.reply(ctx, "RemoveQuoteByID", err)
	}
	return fmt.Sprintf("Quote %s removed.", messageID)
}

// Attribute credits the identified user with kind ("said" or "assisted") on a quote
func (f *Facade) Attribute(ctx context.Context, kind, rawIdentifier, quoteID string) string {
	k, err := graph.ParseRelationKind(kind)
	if err != nil || k == graph.Wrote {
		return fmt.Sprintf("Unknown attribution kind %q, use said or assisted.", kind)
	}
	if err := identity.ValidateID("quote id", quoteID); err != nil {
		return f.reply(ctx, "Attribute", err)
	}
	id, err := identity.Parse(rawIdentifier)
	if err != nil {
		return f.reply(ctx, "Attribute", err)
	}

	// A mention may name someone who never wrote a quote; names must already exist
	user, err := retry.Do(ctx, f.retry, f.logger, "Attribute.resolve", func(ctx context.Context) (*graph.User, error) {
		if id.Kind == graph.ByPlatformID {
			return f.lifecycle.EnsureUser(ctx, id.Value)
		}
		return f.resolver.Resolve(ctx, id)
	})
	if err != nil {
		return f.reply(ctx, "Attribute", err)
	}
	outcome, err := retry.Do(ctx, f.retry, f.logger, "Attribute", func(ctx context.Context) (attribution.Outcome, error) {
		return f.attribution.Attribute(ctx, k, user, quoteID)
	})
	if err != nil {
		return f.reply(ctx, "Attribute", err)
	}
	return outcome.Message(user.Name)
}

// Finalize closes a quote's attribution thread once someone said it
func (f *Facade) Finalize(ctx context.Context, quoteID string) string {
	if err := identity.ValidateID("quote id", quoteID); err != nil {
		return f.reply(ctx, "Finalize", err)
	}
	result, err := retry.Do(ctx, f.retry, f.logger, "Finalize", func(ctx context.Context) (lifecycle.FinalizeResult, error) {
		return f.lifecycle.Finalize(ctx, quoteID)
	})
	if err != nil {
		return f.reply(ctx, "Finalize", err)
	}
	return result.Message(quoteID)
}

// Ranking renders the ranking for "said", "wrote" or "assisted"
func (f *Facade) Ranking(ctx context.Context, kind string) string {
	k, err := graph.ParseRelationKind(kind)
	if err != nil {
		return fmt.Sprintf("Unknown ranking type %q, use said, wrote or assisted.", kind)
	}
	entries, err := retry.Do(ctx, f.retry, f.logger, "Ranking", func(ctx context.Context) ([]ranking.Entry, error) {
		return f.engine.Ranking(ctx, k)
	})
	if err != nil {
		return f.reply(ctx, "Ranking", err)
	}
	return ranking.FormatRanking(k, entries)
}

// Stats renders the per-kind counts of the identified user
func (f *Facade) Stats(ctx context.Context, rawIdentifier string) string {
	user, err := f.resolveRaw(ctx, "Stats", rawIdentifier)
	if err != nil {
		return f.reply(ctx, "Stats", err)
	}
	stats, err := retry.Do(ctx, f.retry, f.logger, "Stats", func(ctx context.Context) (*ranking.Stats, error) {
		return f.engine.Stats(ctx, user)
	})
	if err != nil {
		return f.reply(ctx, "Stats", err)
	}
	return ranking.FormatStats(stats)
}

// Quotes lists the quotes the identified user said, oldest first
func (f *Facade) Quotes(ctx context.Context, rawIdentifier string) string {
	user, err := f.resolveRaw(ctx, "Quotes", rawIdentifier)
	if err != nil {
		return f.reply(ctx, "Quotes", err)
	}
	quotes, err := retry.Do(ctx, f.retry, f.logger, "Quotes", func(ctx context.Context) ([]graph.Quote, error) {
		return f.store.QuotesByRelation(ctx, graph.Said, user.ID)
	})
	if err != nil {
		return f.reply(ctx, "Quotes", err)
	}
	if len(quotes) == 0 {
		return fmt.Sprintf("%s has not said any quotes yet.", user.Name)
	}

	items := make([]string, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, q.Text+"\n"+f.link(q.ID))
	}
	return strings.Join(items, quoteSeparator)
}

// AddUser registers a platform id under name. A user already known by that
// name gains the id; an id owned by someone else is refused.
func (f *Facade) AddUser(ctx context.Context, platformID, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return f.reply(ctx, "AddUser", apperrors.NewValidation("name", name, "empty"))
	}
	if err := identity.ValidateID("platform id", platformID); err != nil {
		return f.reply(ctx, "AddUser", err)
	}

	type result struct {
		user   *graph.User
		merged bool
	}
	res, err := retry.Do(ctx, f.retry, f.logger, "AddUser", func(ctx context.Context) (result, error) {
		existing, err := f.store.FindUser(ctx, graph.Name(name))
		switch {
		case err == nil:
			u, err := f.store.AddPlatformID(ctx, existing.ID, platformID)
			return result{user: u, merged: true}, err
		case apperrors.IsNotFound(err):
			u, err := f.store.CreateUser(ctx, platformID, name)
			return result{user: u}, err
		default:
			return result{}, err
		}
	})
	if apperrors.IsAlreadyExists(err) {
		return fmt.Sprintf("Platform id %s already belongs to another user.", platformID)
	}
	if err != nil {
		return f.reply(ctx, "AddUser", err)
	}

	if res.merged {
		f.logger.Info("Platform id added to user",
			zap.String("name", res.user.Name),
			zap.String("platform_id", platformID),
		)
		return fmt.Sprintf("Added id %s to %s.", platformID, res.user.Name)
	}
	f.logger.Info("User added", zap.String("name", res.user.Name), zap.String("platform_id", platformID))
	return fmt.Sprintf("Added %s.", res.user.Name)
}

func (f *Facade) resolveRaw(ctx context.Context, op, raw string) (*graph.User, error) {
	id, err := identity.Parse(raw)
	if err != nil {
		return nil, err
	}
	return retry.Do(ctx, f.retry, f.logger, op+".resolve", func(ctx context.Context) (*graph.User, error) {
		return f.resolver.Resolve(ctx, id)
	})
}

// reply maps an operation error onto the text shown to the user
func (f *Facade) reply(_ context.Context, op string, err error) string {
	var (
		nf *apperrors.ErrNotFound
		ve *apperrors.ErrValidation
	)
	switch {
	case errors.As(err, &nf):
		if nf.Entity == "user" {
			return constants.MsgUserNotFound
		}
		if nf.Entity == "quote" {
			return constants.MsgQuoteNotFound
		}
		return fmt.Sprintf("%s not found.", capitalize(nf.Entity))
	case errors.As(err, &ve):
		return fmt.Sprintf("Invalid input: %s", ve.Message)
	case apperrors.IsStorageUnavailable(err):
		f.logger.Error("Storage unavailable",
			zap.String("operation", op),
			zap.Error(err),
		)
		return constants.MsgStorageUnavailable
	}
	f.logger.Error("Command failed",
		zap.String("operation", op),
		zap.Error(err),
	)
	return constants.MsgUnexpectedError
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
