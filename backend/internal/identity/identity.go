package identity

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

var (
	// Discord user mentions: <@123> or the legacy nickname form <@!123>
	mentionPattern = regexp.MustCompile(`^<@!?([^>]*)>$`)
	snowflake      = regexp.MustCompile(`^\d+$`)
)

// Parse turns raw command input into an Identifier. Mentions become platform
// ids, anything else is taken as a display name.
func Parse(raw string) (graph.Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return graph.Identifier{}, apperrors.NewValidation("identifier", raw, "empty")
	}
	if m := mentionPattern.FindStringSubmatch(raw); m != nil {
		if !snowflake.MatchString(m[1]) {
			return graph.Identifier{}, apperrors.NewValidation("identifier", raw, "mention must wrap a numeric id")
		}
		return graph.PlatformID(m[1]), nil
	}
	return graph.Name(raw), nil
}

// ValidateID checks that a message or user id is a numeric snowflake
func ValidateID(field, id string) error {
	if !snowflake.MatchString(id) {
		return apperrors.NewValidation(field, id, "must be numeric")
	}
	return nil
}

// Resolver maps identifiers to stored users
type Resolver struct {
	store  graph.Store
	logger *zap.Logger
}

// NewResolver creates a resolver over store
func NewResolver(store graph.Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve looks a user up without ever creating one
func (r *Resolver) Resolve(ctx context.Context, id graph.Identifier) (*graph.User, error) {
	return r.store.FindUser(ctx, id)
}

// ResolveRaw parses and resolves raw command input
func (r *Resolver) ResolveRaw(ctx context.Context, raw string) (*graph.User, error) {
	id, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, id)
}

// Ensure returns the user owning platformID, creating it with displayName on
// first sighting. created reports whether a new record was written.
func (r *Resolver) Ensure(ctx context.Context, platformID, displayName string) (user *graph.User, created bool, err error) {
	user, err = r.store.FindUser(ctx, graph.PlatformID(platformID))
	if err == nil {
		return user, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, err
	}

	r.logger.Warn("Platform id not found in store, creating user",
		zap.String("platform_id", platformID),
		zap.String("name", displayName),
	)
	user, err = r.store.CreateUser(ctx, platformID, displayName)
	if apperrors.IsAlreadyExists(err) {
		// Lost a race with a concurrent Ensure for the same id
		user, err = r.store.FindUser(ctx, graph.PlatformID(platformID))
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
