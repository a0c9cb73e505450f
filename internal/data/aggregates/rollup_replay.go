package aggregates

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/ownerlock"
	"github.com/yungbote/discipline-backend/internal/timerange"
)

type RollupReplayDeps struct {
	BaseDeps

	Rollups  repos.DailyRollupRepo
	Ledger   repos.RollupLedgerRepo
	Sessions repos.FocusSessionRepo

	Locker ownerlock.Locker
	Clock  clock.Clock
}

type rollupReplay struct {
	deps RollupReplayDeps
}

func NewRollupReplay(deps RollupReplayDeps) domainagg.RollupReplay {
	deps.BaseDeps = deps.BaseDeps.withDefaults()
	if deps.Locker == nil {
		deps.Locker = ownerlock.NewLocal()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System(time.Local)
	}
	deps.Log = deps.Log.With("aggregate", "RollupReplay")
	return &rollupReplay{deps: deps}
}

func (a *rollupReplay) Contract() domainagg.Contract {
	return domainagg.RollupReplayContract
}

// Rebuild sums the owner's ledger per date and overwrites every rollup row
// with the result. Rows without ledger entries are zeroed, not removed.
func (a *rollupReplay) Rebuild(ctx context.Context, ownerID uuid.UUID) ([]types.DailyRollup, error) {
	const op = "rollups.rebuild"
	var out []types.DailyRollup
	err := ownerWrite(ctx, a.deps.BaseDeps, a.deps.Locker, ownerID, op, func(dbc dbctx.Context) error {
		entries, err := a.deps.Ledger.ListByOwner(dbc, ownerID)
		if err != nil {
			return err
		}
		sums := map[string]types.RollupDelta{}
		for _, e := range entries {
			sums[e.Date] = sums[e.Date].Add(e.Delta())
		}
		existing, err := a.deps.Rollups.ListByOwner(dbc, ownerID)
		if err != nil {
			return err
		}
		for _, row := range existing {
			if _, ok := sums[row.Date]; !ok {
				sums[row.Date] = types.RollupDelta{}
			}
		}

		dates := make([]string, 0, len(sums))
		for d := range sums {
			dates = append(dates, d)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))

		out = make([]types.DailyRollup, 0, len(dates))
		for _, d := range dates {
			s := sums[d]
			row := &types.DailyRollup{
				OwnerID:            ownerID,
				Date:               d,
				FocusTimeSeconds:   floorZero(s.FocusSeconds),
				CompletedPlans:     floorZero(s.CompletedPlans),
				TestCount:          floorZero(s.TestCount),
				TestTotalQuestions: floorZero(s.TestQuestions),
				TestCorrectAnswers: floorZero(s.TestCorrect),
			}
			if err := a.deps.Rollups.SetAbsolute(dbc, row); err != nil {
				return err
			}
			out = append(out, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.deps.Log.Info("rollups rebuilt", "owner_id", ownerID, "rows", len(out))
	return out, nil
}

// Verify compares each date's focus_time_seconds with the summed durations
// of sessions starting on that date. It returns drifting dates, newest first.
func (a *rollupReplay) Verify(ctx context.Context, ownerID uuid.UUID) ([]domainagg.RollupDrift, error) {
	const op = "rollups.verify"
	if ownerID == uuid.Nil {
		return nil, domainagg.Invalid(op, "owner is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := a.deps.Rollups.ListByOwner(dbc, ownerID)
	if err != nil {
		return nil, MapError(op, err)
	}
	sessions, err := a.deps.Sessions.ListByOwner(dbc, ownerID)
	if err != nil {
		return nil, MapError(op, err)
	}

	loc := a.deps.Clock.Location()
	bySession := map[string]int64{}
	for _, s := range sessions {
		bySession[timerange.DateOf(s.StartTime, loc)] += s.DurationSeconds
	}
	byRollup := map[string]int64{}
	for _, r := range rows {
		byRollup[r.Date] = r.FocusTimeSeconds
	}

	var drift []domainagg.RollupDrift
	seen := map[string]bool{}
	check := func(date string) {
		if seen[date] {
			return
		}
		seen[date] = true
		if byRollup[date] != bySession[date] {
			drift = append(drift, domainagg.RollupDrift{
				Date:           date,
				RollupSeconds:  byRollup[date],
				SessionSeconds: bySession[date],
			})
		}
	}
	for d := range byRollup {
		check(d)
	}
	for d := range bySession {
		check(d)
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].Date > drift[j].Date })
	return drift, nil
}

func floorZero(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
