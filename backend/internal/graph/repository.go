package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
	"github.com/PhilVoel/Zitate-Bot/backend/pkg/logger"
)

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Repository handles all Neo4j database operations
type Repository struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRepository creates a new graph repository. Every call is bounded by timeout.
func NewRepository(driver neo4j.DriverWithContext, database string, timeout time.Duration) *Repository {
	return &Repository{
		driver:   driver,
		database: database,
		timeout:  timeout,
		logger:   logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

func (r *Repository) read(ctx context.Context, op string, work neo4j.ManagedTransactionWork) (any, error) {
	return r.execute(ctx, op, neo4j.AccessModeRead, work)
}

func (r *Repository) write(ctx context.Context, op string, work neo4j.ManagedTransactionWork) (any, error) {
	return r.execute(ctx, op, neo4j.AccessModeWrite, work)
}

func (r *Repository) execute(ctx context.Context, op string, mode neo4j.AccessMode, work neo4j.ManagedTransactionWork) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
	defer session.Close(ctx)

	var (
		result any
		err    error
	)
	if mode == neo4j.AccessModeWrite {
		result, err = session.ExecuteWrite(ctx, work)
	} else {
		result, err = session.ExecuteRead(ctx, work)
	}
	if err != nil {
		return nil, r.classify(ctx, op, err)
	}
	return result, nil
}

func (r *Repository) newWriteSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: r.database})
}

// classify maps driver failures onto the application error taxonomy
func (r *Repository) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case apperrors.IsNotFound(err), apperrors.IsAlreadyExists(err), apperrors.IsValidation(err):
		return err
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) && neoErr.Code == constraintViolation {
		return apperrors.NewAlreadyExists(op, neoErr.Msg)
	}

	if neo4j.IsConnectivityError(err) || neo4j.IsRetryable(err) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		r.logger.Error("Neo4j unavailable",
			zap.String("operation", op),
			zap.Error(err),
		)
		return apperrors.NewStorageUnavailable(op, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// collect runs a query inside a managed transaction and buffers its records
func collect(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

// exec runs a query inside a managed transaction and discards its records
func exec(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any) error {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func countResult(records []*neo4j.Record) int {
	if len(records) == 0 {
		return 0
	}
	return getIntFromRecord(records[0], "count")
}
