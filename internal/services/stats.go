package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/clock"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/stats"
	"github.com/yungbote/discipline-backend/internal/timerange"
)

const statsQueryOp = "stats.query"

// StatsService answers statistics queries. Reports are recomputed on every
// call and never cached.
type StatsService interface {
	GetStats(ctx context.Context, period string) (*stats.Report, error)
}

type statsService struct {
	log      *logger.Logger
	rollups  repos.DailyRollupRepo
	tests    repos.TestRecordRepo
	sessions repos.FocusSessionRepo
	clock    clock.Clock
}

func NewStatsService(log *logger.Logger, rollups repos.DailyRollupRepo, tests repos.TestRecordRepo, sessions repos.FocusSessionRepo, clk clock.Clock) StatsService {
	return &statsService{
		log:      log.With("service", "StatsService"),
		rollups:  rollups,
		tests:    tests,
		sessions: sessions,
		clock:    clk,
	}
}

func (s *statsService) GetStats(ctx context.Context, rawPeriod string) (*stats.Report, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	period, err := timerange.ParsePeriod(rawPeriod)
	if err != nil {
		return nil, domainagg.Invalid(statsQueryOp, "period must be one of day, week, month, all")
	}

	ctx, span := observability.Tracer().Start(ctx, statsQueryOp)
	defer span.End()
	span.SetAttributes(attribute.String("stats.period", string(period)))

	now := s.clock.Now()
	loc := s.clock.Location()
	floor := period.Floor(now, loc)

	var (
		rollups  []*types.DailyRollup
		tests    []*types.TestRecord
		sessions []*types.FocusSession
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rollups, err = s.rollups.ListByOwnerSince(dbctx.Context{Ctx: gctx}, owner, floor)
		return err
	})
	g.Go(func() error {
		var err error
		tests, err = s.tests.ListByOwner(dbctx.Context{Ctx: gctx}, owner)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = s.sessions.ListByOwner(dbctx.Context{Ctx: gctx}, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		s.log.Error("Stats query failed", "owner_id", owner, "period", period, "error", err)
		return nil, domainagg.Wrap(domainagg.CodeInternal, statsQueryOp, err)
	}

	rep := stats.Build(stats.Input{
		Period:   period,
		Now:      now,
		Location: loc,
		Rollups:  rollups,
		Tests:    tests,
		Sessions: sessions,
	})
	span.SetAttributes(
		attribute.Int("stats.rollup_rows", len(rep.Stats)),
		attribute.Int("stats.sessions", len(sessions)),
	)
	return &rep, nil
}
