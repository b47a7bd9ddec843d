package attribution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/PhilVoel/Zitate-Bot/backend/internal/graph"
	"github.com/PhilVoel/Zitate-Bot/backend/internal/keylock"
	apperrors "github.com/PhilVoel/Zitate-Bot/backend/pkg/errors"
)

// Outcome is the result of one attribution attempt
type Outcome int

const (
	// Recorded means a new edge was written
	Recorded Outcome = iota + 1
	// AlreadyRecorded means the requested edge already existed
	AlreadyRecorded
	// ConflictSaid means a Said edge blocks the requested Assisted edge
	ConflictSaid
	// ConflictAssisted means an Assisted edge blocks the requested Said edge
	ConflictAssisted
)

func (o Outcome) String() string {
	switch o {
	case Recorded:
		return "recorded"
	case AlreadyRecorded:
		return "already_recorded"
	case ConflictSaid:
		return "conflict_said"
	case ConflictAssisted:
		return "conflict_assisted"
	}
	return "unknown"
}

// IsConflict reports whether the outcome is a kind conflict
func (o Outcome) IsConflict() bool {
	return o == ConflictSaid || o == ConflictAssisted
}

// Message renders the user-facing reply for the outcome
func (o Outcome) Message(userName string) string {
	switch o {
	case Recorded:
		return fmt.Sprintf("%s added successfully.", userName)
	case AlreadyRecorded:
		return fmt.Sprintf("%s is already recorded for this quote.", userName)
	case ConflictSaid:
		return fmt.Sprintf("%s already said this quote.", userName)
	case ConflictAssisted:
		return fmt.Sprintf("%s already has an assist for this quote.", userName)
	}
	return ""
}

// Service records Said and Assisted claims
type Service struct {
	store  graph.Store
	locks  *keylock.Locker
	logger *zap.Logger
}

// NewService creates an attribution service. locks must be the same Locker the
// lifecycle coordinator uses so claims and quote removal never interleave.
func NewService(store graph.Store, locks *keylock.Locker, logger *zap.Logger) *Service {
	return &Service{store: store, locks: locks, logger: logger}
}

// Attribute credits user with kind on the quote. The existence checks and the
// insert run under the quote's lock, so concurrent identical claims yield one
// Recorded and otherwise AlreadyRecorded.
func (s *Service) Attribute(ctx context.Context, kind graph.RelationKind, user *graph.User, quoteID string) (Outcome, error) {
	var other graph.RelationKind
	switch kind {
	case graph.Said:
		other = graph.Assisted
	case graph.Assisted:
		other = graph.Said
	default:
		return 0, apperrors.NewValidation("relation kind", string(kind), "only said and assisted can be attributed")
	}

	unlock, err := s.locks.LockContext(ctx, quoteID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if _, err := s.store.GetQuote(ctx, quoteID); err != nil {
		return 0, err
	}

	has, err := s.store.HasRelation(ctx, kind, user.ID, quoteID)
	if err != nil {
		return 0, err
	}
	if has {
		return AlreadyRecorded, nil
	}

	hasOther, err := s.store.HasRelation(ctx, other, user.ID, quoteID)
	if err != nil {
		return 0, err
	}
	if hasOther {
		if other == graph.Said {
			return ConflictSaid, nil
		}
		return ConflictAssisted, nil
	}

	if err := s.store.AddRelation(ctx, kind, user.ID, quoteID); err != nil {
		// Another process inserted the same edge between our check and write
		if apperrors.IsAlreadyExists(err) {
			return AlreadyRecorded, nil
		}
		return 0, err
	}

	s.logger.Info("Attribution recorded",
		zap.String("user", user.Name),
		zap.String("user_id", user.ID),
		zap.String("kind", string(kind)),
		zap.String("quote_id", quoteID),
	)
	return Recorded, nil
}
