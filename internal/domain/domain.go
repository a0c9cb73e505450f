package domain

import (
	"github.com/yungbote/discipline-backend/internal/domain/discipline"
	"github.com/yungbote/discipline-backend/internal/domain/user"
)

type User = user.User

type Plan = discipline.Plan
type FocusSession = discipline.FocusSession
type TestRecord = discipline.TestRecord
type DailyRollup = discipline.DailyRollup
type RollupLedgerEntry = discipline.RollupLedgerEntry
type RollupDelta = discipline.RollupDelta
type LedgerKind = discipline.LedgerKind

const (
	PriorityLow    = discipline.PriorityLow
	PriorityMedium = discipline.PriorityMedium
	PriorityHigh   = discipline.PriorityHigh
)

const (
	LedgerFocus          = discipline.LedgerFocus
	LedgerPlanCompletion = discipline.LedgerPlanCompletion
	LedgerTest           = discipline.LedgerTest
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&User{},
		&Plan{},
		&FocusSession{},
		&TestRecord{},
		&DailyRollup{},
		&RollupLedgerEntry{},
	}
}
