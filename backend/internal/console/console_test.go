package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/attribution"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/commands"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/identity"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/keylock"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/lifecycle"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/ranking"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/retry"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// offlinePlatform behaves like a chat platform without any threads or messages
type offlinePlatform struct{}

func (offlinePlatform) CreateThread(context.Context, string, string) (string, error) {
	return "", apperrors.ErrPlatformUnavailable
}

func (offlinePlatform) FindThread(_ context.Context, title string) (string, error) {
	return "", apperrors.NewNotFound("thread", title)
}

func (offlinePlatform) DeleteThread(context.Context, string) error {
	return apperrors.ErrPlatformUnavailable
}

func (offlinePlatform) FetchMessage(_ context.Context, id string) (*lifecycle.Message, error) {
	return nil, apperrors.NewNotFound("message", id)
}

func (offlinePlatform) DisplayName(_ context.Context, id string) (string, error) {
	return id, nil
}

func newTestFacade() *commands.Facade {
	store := graph.NewMemoryStore()
	logger := zap.NewNop()
	locks := keylock.New()
	counter := ranking.NewCounter(0)
	resolver := identity.NewResolver(store, logger)
	return commands.New(commands.Deps{
		Store:       store,
		Resolver:    resolver,
		Attribution: attribution.NewService(store, locks, logger),
		Engine:      ranking.NewEngine(store, counter),
		Lifecycle:   lifecycle.NewCoordinator(store, offlinePlatform{}, resolver, counter, locks, logger),
		Retry:       retry.Config{MaxAttempts: 1},
		Logger:      logger,
	})
}

func TestConsole_Execute(t *testing.T) {
	ctx := context.Background()
	c := New(newTestFacade(), nil, nil, zap.NewNop())

	tests := []struct {
		line string
		want string
	}{
		{`user add "Max Mustermann" 123`, "Added Max Mustermann."},
		{`user add Max`, "Usage: user add <name> <platformId>"},
		{`user stats "Max Mustermann"`, "Stats for Max Mustermann:\nSaid: 0 (0%)\nWrote: 0 (0%)\nAssisted: 0 (0%)"},
		{`user stats Max Mustermann`, "Stats for Max Mustermann:\nSaid: 0 (0%)\nWrote: 0 (0%)\nAssisted: 0 (0%)"},
		{`user stats <@123>`, "Stats for Max Mustermann:\nSaid: 0 (0%)\nWrote: 0 (0%)\nAssisted: 0 (0%)"},
		{`user quotes Nobody`, "User not found."},
		{`user ranking said`, "Ranking of said quotes:\nNo entries yet."},
		{`user ranking sung`, `Unknown ranking type "sung", use said, wrote or assisted.`},
		{`user ranking`, "Missing ranking type"},
		{`user`, "Missing subcommand"},
		{`user delete x`, "Unknown subcommand"},
		{`zitat`, "Missing subcommand"},
		{`zitat add`, "Missing message id"},
		{`zitat remove abc`, `Invalid input: invalid message id "abc": must be numeric`},
		{`zitat remove 99`, "Quote not found."},
		{`zitat add 99`, "Message not found."},
		{`dance`, "Unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out, exit := c.Execute(ctx, tt.line)
			assert.False(t, exit)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestConsole_RunStopsAtExit(t *testing.T) {
	in := strings.NewReader("user add Bob 22\n\nexit\nuser add Carol 33\n")
	var out bytes.Buffer
	c := New(newTestFacade(), in, &out, zap.NewNop())

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, "Added Bob.\n", out.String())
}

func TestConsole_RunReportsEndOfInput(t *testing.T) {
	var out bytes.Buffer
	c := New(newTestFacade(), strings.NewReader("user ranking wrote\n"), &out, zap.NewNop())

	assert.ErrorIs(t, c.Run(context.Background()), io.EOF)
	assert.Equal(t, "Ranking of written quotes:\nNo entries yet.\n", out.String())
}

func TestConsole_RunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(newTestFacade(), strings.NewReader("user ranking said\n"), &bytes.Buffer{}, zap.NewNop())

	assert.ErrorIs(t, c.Run(ctx), context.Canceled)
}
