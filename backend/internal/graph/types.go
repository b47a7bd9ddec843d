package graph

import (
	"fmt"
	"time"
)

// ============================================================================
// Graph Types
// ============================================================================

// User represents a quoted, quoting or assisting person
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PlatformIDs []string `json:"platform_ids"`
}

// Quote represents a captured utterance, keyed by its originating message id
type Quote struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	AuthorID  string    `json:"author_id"`
}

// RelationKind is the type of a User -> Quote edge
type RelationKind string

const (
	Wrote    RelationKind = "wrote"
	Said     RelationKind = "said"
	Assisted RelationKind = "assisted"
)

// ParseRelationKind maps a command argument to a RelationKind
func ParseRelationKind(s string) (RelationKind, error) {
	switch RelationKind(s) {
	case Wrote, Said, Assisted:
		return RelationKind(s), nil
	}
	return "", fmt.Errorf("unknown relation kind %q", s)
}

// relType returns the Neo4j relationship type for a kind
func (k RelationKind) relType() string {
	switch k {
	case Wrote:
		return "WROTE"
	case Said:
		return "SAID"
	case Assisted:
		return "ASSISTED"
	}
	return ""
}

// RankEntry is one row of a per-user relation count
type RankEntry struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

// IdentifierKind tags which variant an Identifier holds
type IdentifierKind int

const (
	ByPlatformID IdentifierKind = iota + 1
	ByName
)

// Identifier is either a platform-native user id or a display name
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// PlatformID builds an identifier that looks a user up by platform id
func PlatformID(id string) Identifier {
	return Identifier{Kind: ByPlatformID, Value: id}
}

// Name builds an identifier that looks a user up by display name
func Name(name string) Identifier {
	return Identifier{Kind: ByName, Value: name}
}

func (i Identifier) String() string {
	if i.Kind == ByPlatformID {
		return "<@" + i.Value + ">"
	}
	return i.Value
}
