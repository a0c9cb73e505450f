package discipline

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityLow    = 0
	PriorityMedium = 1
	PriorityHigh   = 2
)

// Plan is a task owned by one user. Completed is toggled through the record
// lifecycle so that rollups stay consistent.
type Plan struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_plan_owner_completed,priority:1" json:"owner_id"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Priority    int        `gorm:"not null;default:0;column:priority" json:"priority"`
	Completed   bool       `gorm:"not null;default:false;column:completed;index:idx_plan_owner_completed,priority:2" json:"completed"`
	Category    string     `gorm:"column:category" json:"category"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Plan) TableName() string { return "plan" }

// ValidPriority reports whether p is one of the three supported levels.
func ValidPriority(p int) bool {
	return p >= PriorityLow && p <= PriorityHigh
}
