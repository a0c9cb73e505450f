package discipline

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// FocusSession is a closed block of time worked on a plan. Sessions are
// immutable after creation.
type FocusSession struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID         uuid.UUID `gorm:"type:uuid;not null;index:idx_focus_owner_start,priority:1" json:"owner_id"`
	PlanID          uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	StartTime       time.Time `gorm:"not null;column:start_time;index:idx_focus_owner_start,priority:2" json:"start_time"`
	EndTime         time.Time `gorm:"not null;column:end_time" json:"end_time"`
	DurationMinutes int       `gorm:"not null;column:duration_minutes" json:"duration_minutes"`
	DurationSeconds int64     `gorm:"not null;column:duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	PlanTitle string `gorm:"->;-:migration;column:plan_title" json:"plan_title,omitempty"`
}

func (FocusSession) TableName() string { return "focus_session" }

// Overlaps applies the inclusive boundary rule: touching endpoints overlap.
func (s FocusSession) Overlaps(start, end time.Time) bool {
	return !start.After(s.EndTime) && !end.Before(s.StartTime)
}

// SessionDurations returns whole seconds and rounded minutes for [start, end).
func SessionDurations(start, end time.Time) (int64, int) {
	d := end.Sub(start)
	return int64(d / time.Second), int(math.Round(d.Minutes()))
}
