package lifecycle

import (
	"context"
	"time"
)

// Message is a chat message as the coordinator sees it
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Text       string
	Timestamp  time.Time
	Link       string
}

// Platform is the chat side the coordinator drives. All calls are best-effort
// from the coordinator's point of view: storage is written first and platform
// failures are logged, never rolled back.
type Platform interface {
	// CreateThread opens an attribution thread titled title and returns its id
	CreateThread(ctx context.Context, title, seed string) (string, error)
	// FindThread returns the id of the thread titled title, or a NotFound error
	FindThread(ctx context.Context, title string) (string, error)
	DeleteThread(ctx context.Context, threadID string) error
	FetchMessage(ctx context.Context, messageID string) (*Message, error)
	DisplayName(ctx context.Context, userID string) (string, error)
}
