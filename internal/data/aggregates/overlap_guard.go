package aggregates

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
)

// OverlapGuard answers the two temporal/activity questions a write must clear
// before it persists anything. It never mutates state.
type OverlapGuard struct {
	Sessions repos.FocusSessionRepo
	Plans    repos.PlanRepo
}

func NewOverlapGuard(sessions repos.FocusSessionRepo, plans repos.PlanRepo) *OverlapGuard {
	return &OverlapGuard{Sessions: sessions, Plans: plans}
}

// CheckOverlap fails with *domainagg.OverlapConflictError when [start, end]
// touches any existing session of the owner other than excludeSessionID.
// Touching endpoints count as overlap.
func (g *OverlapGuard) CheckOverlap(dbc dbctx.Context, ownerID uuid.UUID, start, end time.Time, excludeSessionID uuid.UUID) error {
	if !end.After(start) {
		return domainagg.ErrInvalidInterval
	}
	sessions, err := g.Sessions.ListByOwner(dbc, ownerID)
	if err != nil {
		return err
	}
	start, end = start.UTC(), end.UTC()
	for _, s := range sessions {
		if s == nil || s.ID == excludeSessionID {
			continue
		}
		if s.Overlaps(start, end) {
			return &domainagg.OverlapConflictError{ConflictingSessionID: s.ID}
		}
	}
	return nil
}

// CheckSingleCompletion fails with ErrTooManyActivePlans when any plan other
// than excludePlanID is already completed.
func (g *OverlapGuard) CheckSingleCompletion(dbc dbctx.Context, ownerID uuid.UUID, excludePlanID uuid.UUID) error {
	done, err := g.Plans.ListCompleted(dbc, ownerID, excludePlanID)
	if err != nil {
		return err
	}
	if len(done) > 0 {
		return domainagg.ErrTooManyActivePlans
	}
	return nil
}
