package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

const userProjection = `
		MATCH (u)-[:HAS_PLATFORM_ID]->(p:PlatformID)
		WITH u, collect(p.id) as platform_ids
		RETURN u.id as id, u.name as name, platform_ids
`

// CreateUser creates a user owning a single platform id
func (r *Repository) CreateUser(ctx context.Context, platformID, name string) (*User, error) {
	userID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.write(ctx, "CreateUser", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `
			OPTIONAL MATCH (p:PlatformID {id: $platformID})
			RETURN p IS NOT NULL as taken
		`, map[string]any{"platformID": platformID})
		if err != nil {
			return nil, err
		}
		if len(records) > 0 && getBoolFromRecord(records[0], "taken") {
			return nil, apperrors.NewAlreadyExists("platform id", platformID)
		}

		return nil, exec(ctx, tx, `
			CREATE (u:User {id: $userID, name: $name, created_at: datetime($now)})
			CREATE (u)-[:HAS_PLATFORM_ID]->(:PlatformID {id: $platformID})
		`, map[string]any{
			"userID":     userID,
			"name":       name,
			"now":        now,
			"platformID": platformID,
		})
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("User created",
		zap.String("user_id", userID),
		zap.String("name", name),
		zap.String("platform_id", platformID),
	)
	return &User{ID: userID, Name: name, PlatformIDs: []string{platformID}}, nil
}

// AddPlatformID attaches another platform id to an existing user
func (r *Repository) AddPlatformID(ctx context.Context, userID, platformID string) (*User, error) {
	result, err := r.write(ctx, "AddPlatformID", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, `
			MATCH (u:User {id: $userID})
			OPTIONAL MATCH (owner:User)-[:HAS_PLATFORM_ID]->(:PlatformID {id: $platformID})
			RETURN owner.id as owner
		`, map[string]any{"userID": userID, "platformID": platformID})
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, apperrors.NewNotFound("user", userID)
		}

		owner := getStringFromRecord(records[0], "owner")
		if owner != "" && owner != userID {
			return nil, apperrors.NewAlreadyExists("platform id", platformID)
		}
		if owner == "" {
			if err := exec(ctx, tx, `
				MATCH (u:User {id: $userID})
				CREATE (u)-[:HAS_PLATFORM_ID]->(:PlatformID {id: $platformID})
			`, map[string]any{"userID": userID, "platformID": platformID}); err != nil {
				return nil, err
			}
		}

		records, err = collect(ctx, tx, `MATCH (u:User {id: $userID})`+userProjection,
			map[string]any{"userID": userID})
		if err != nil {
			return nil, err
		}
		return userFromRecord(records[0]), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*User), nil
}

// FindUser looks a user up by platform id or display name. Names are not unique;
// the earliest created user with that name wins.
func (r *Repository) FindUser(ctx context.Context, id Identifier) (*User, error) {
	var (
		query  string
		params map[string]any
	)
	switch id.Kind {
	case ByPlatformID:
		query = `
			MATCH (u:User)-[:HAS_PLATFORM_ID]->(:PlatformID {id: $platformID})
			WITH u` + userProjection
		params = map[string]any{"platformID": id.Value}
	case ByName:
		query = `
			MATCH (u:User {name: $name})
			WITH u ORDER BY u.created_at, u.id LIMIT 1` + userProjection
		params = map[string]any{"name": id.Value}
	default:
		return nil, apperrors.NewValidation("identifier", id.Value, "unknown identifier kind")
	}

	result, err := r.read(ctx, "FindUser", func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := collect(ctx, tx, query, params)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, apperrors.NewNotFound("user", id.String())
		}
		return userFromRecord(records[0]), nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*User), nil
}
