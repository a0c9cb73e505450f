package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/domain/discipline"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: username,
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, title string, completed bool) *types.Plan {
	tb.Helper()
	p := &types.Plan{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Completed: completed,
	}
	if completed {
		now := time.Now().UTC()
		p.CompletedAt = &now
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedFocusSession(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID, planID uuid.UUID, start, end time.Time) *types.FocusSession {
	tb.Helper()
	secs, mins := discipline.SessionDurations(start, end)
	s := &types.FocusSession{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		PlanID:          planID,
		StartTime:       start.UTC(),
		EndTime:         end.UTC(),
		DurationSeconds: secs,
		DurationMinutes: mins,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed focus session: %v", err)
	}
	return s
}

func SeedTest(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string, total, correct int) *types.TestRecord {
	tb.Helper()
	tr := &types.TestRecord{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           name,
		TotalQuestions: total,
		CorrectAnswers: correct,
	}
	if err := tx.WithContext(ctx).Create(tr).Error; err != nil {
		tb.Fatalf("seed test: %v", err)
	}
	return tr
}

func SeedRollup(tb testing.TB, ctx context.Context, tx *gorm.DB, row types.DailyRollup) *types.DailyRollup {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		tb.Fatalf("seed rollup: %v", err)
	}
	return &row
}
