package discipline

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DailyRollup is derived per-(owner, date) state maintained by deltas.
type DailyRollup struct {
	OwnerID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"owner_id"`
	Date               string    `gorm:"primaryKey;size:10" json:"date"`
	FocusTimeSeconds   int64     `gorm:"not null;default:0" json:"focus_time_seconds"`
	CompletedPlans     int64     `gorm:"not null;default:0" json:"completed_plans"`
	TestCount          int64     `gorm:"not null;default:0" json:"test_count"`
	TestTotalQuestions int64     `gorm:"not null;default:0" json:"test_total_questions"`
	TestCorrectAnswers int64     `gorm:"not null;default:0" json:"test_correct_answers"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (DailyRollup) TableName() string { return "daily_rollup" }

type LedgerKind string

const (
	LedgerFocus          LedgerKind = "focus"
	LedgerPlanCompletion LedgerKind = "plan_completion"
	LedgerTest           LedgerKind = "test"
)

// RollupLedgerEntry records one applied rollup delta. Summing entries per
// (owner, date) reproduces the rollup row.
type RollupLedgerEntry struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_ledger_owner_date,priority:1;index:idx_ledger_owner_record,priority:1" json:"owner_id"`
	Date           string         `gorm:"not null;size:10;index:idx_ledger_owner_date,priority:2" json:"date"`
	Kind           LedgerKind     `gorm:"not null;size:32" json:"kind"`
	RecordID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_ledger_owner_record,priority:2" json:"record_id"`
	FocusSeconds   int64          `gorm:"not null;default:0" json:"focus_seconds"`
	CompletedPlans int64          `gorm:"not null;default:0" json:"completed_plans"`
	TestCount      int64          `gorm:"not null;default:0" json:"test_count"`
	TestQuestions  int64          `gorm:"not null;default:0" json:"test_questions"`
	TestCorrect    int64          `gorm:"not null;default:0" json:"test_correct"`
	Payload        datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}

func (RollupLedgerEntry) TableName() string { return "rollup_ledger" }

// RollupDelta is a signed change to one rollup row.
type RollupDelta struct {
	FocusSeconds   int64
	CompletedPlans int64
	TestCount      int64
	TestQuestions  int64
	TestCorrect    int64
}

func (d RollupDelta) IsZero() bool {
	return d == RollupDelta{}
}

func (d RollupDelta) Negate() RollupDelta {
	return RollupDelta{
		FocusSeconds:   -d.FocusSeconds,
		CompletedPlans: -d.CompletedPlans,
		TestCount:      -d.TestCount,
		TestQuestions:  -d.TestQuestions,
		TestCorrect:    -d.TestCorrect,
	}
}

func (d RollupDelta) Add(o RollupDelta) RollupDelta {
	return RollupDelta{
		FocusSeconds:   d.FocusSeconds + o.FocusSeconds,
		CompletedPlans: d.CompletedPlans + o.CompletedPlans,
		TestCount:      d.TestCount + o.TestCount,
		TestQuestions:  d.TestQuestions + o.TestQuestions,
		TestCorrect:    d.TestCorrect + o.TestCorrect,
	}
}

// Delta returns the signed contribution this entry recorded.
func (e RollupLedgerEntry) Delta() RollupDelta {
	return RollupDelta{
		FocusSeconds:   e.FocusSeconds,
		CompletedPlans: e.CompletedPlans,
		TestCount:      e.TestCount,
		TestQuestions:  e.TestQuestions,
		TestCorrect:    e.TestCorrect,
	}
}
