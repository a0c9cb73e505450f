package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/discipline-backend/internal/data/repos"
	types "github.com/yungbote/discipline-backend/internal/domain"
	domainagg "github.com/yungbote/discipline-backend/internal/domain/aggregates"
	"github.com/yungbote/discipline-backend/internal/platform/dbctx"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

// RollupService exposes rollup rebuild and drift checks, for the caller or
// for a set of users.
type RollupService interface {
	Rebuild(ctx context.Context) ([]types.DailyRollup, error)
	Verify(ctx context.Context) ([]domainagg.RollupDrift, error)
	// RebuildUsers rebuilds every named user, or every user when usernames is
	// empty, and returns rows written per username.
	RebuildUsers(ctx context.Context, usernames []string) (map[string]int, error)
	VerifyUsers(ctx context.Context, usernames []string) (map[string][]domainagg.RollupDrift, error)
}

type rollupService struct {
	log         *logger.Logger
	users       repos.UserRepo
	replay      domainagg.RollupReplay
	parallelism int
}

func NewRollupService(log *logger.Logger, users repos.UserRepo, replay domainagg.RollupReplay) RollupService {
	return &rollupService{
		log:         log.With("service", "RollupService"),
		users:       users,
		replay:      replay,
		parallelism: 4,
	}
}

func (s *rollupService) Rebuild(ctx context.Context) ([]types.DailyRollup, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	return s.replay.Rebuild(ctx, owner)
}

func (s *rollupService) Verify(ctx context.Context) ([]domainagg.RollupDrift, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}
	drift, err := s.replay.Verify(ctx, owner)
	if err != nil {
		return nil, err
	}
	if drift == nil {
		drift = []domainagg.RollupDrift{}
	}
	return drift, nil
}

func (s *rollupService) resolve(ctx context.Context, usernames []string) ([]*types.User, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if len(usernames) == 0 {
		return s.users.List(dbc)
	}
	out := make([]*types.User, 0, len(usernames))
	for _, name := range usernames {
		u, err := s.users.GetByUsername(dbc, name)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, fmt.Errorf("unknown user %q", name)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *rollupService) RebuildUsers(ctx context.Context, usernames []string) (map[string]int, error) {
	users, err := s.resolve(ctx, usernames)
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex
	out := make(map[string]int, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, u := range users {
		u := u
		g.Go(func() error {
			rows, err := s.replay.Rebuild(gctx, u.ID)
			if err != nil {
				return fmt.Errorf("rebuild %s: %w", u.Username, err)
			}
			mu.Lock()
			out[u.Username] = len(rows)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.log.Info("Rebuilt rollups", "users", len(users))
	return out, nil
}

func (s *rollupService) VerifyUsers(ctx context.Context, usernames []string) (map[string][]domainagg.RollupDrift, error) {
	users, err := s.resolve(ctx, usernames)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domainagg.RollupDrift, len(users))
	for _, u := range users {
		drift, err := s.replay.Verify(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", u.Username, err)
		}
		if len(drift) > 0 {
			s.log.Warn("Rollup drift detected", "user_id", u.ID, "dates", len(drift))
		}
		out[u.Username] = drift
	}
	return out, nil
}
