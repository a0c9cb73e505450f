package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/discipline-backend/internal/data/repos/testutil"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
)

func TestSeedUsersSkipsExisting(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// user1 already exists in the fixture.
	created, err := e.auth.SeedUsers(ctx, 3, "123456")
	if err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}
	if created != 2 {
		t.Fatalf("created: want=2 got=%d", created)
	}
	created, err = e.auth.SeedUsers(ctx, 3, "123456")
	if err != nil {
		t.Fatalf("SeedUsers again: %v", err)
	}
	if created != 0 {
		t.Fatalf("second seed created: want=0 got=%d", created)
	}
	if _, err := e.auth.SeedUsers(ctx, 1, ""); err == nil {
		t.Fatalf("empty password: want error")
	}
}

func TestLoginTokenAuthenticatesCaller(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.auth.SeedUsers(ctx, 2, "123456"); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}

	res, err := e.auth.Login(ctx, "user2", "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.Username != "user2" {
		t.Fatalf("login result: got=%+v", res)
	}

	authed, err := e.auth.SetContextFromToken(ctx, res.Token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := ctxutil.OwnerID(authed); got != res.ID {
		t.Fatalf("owner: want=%s got=%s", res.ID, got)
	}
	me, err := e.auth.Me(authed)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Username != "user2" {
		t.Fatalf("me: want=user2 got=%s", me.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.auth.SeedUsers(ctx, 2, "123456"); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}

	_, err := e.auth.Login(ctx, "user2", "wrong")
	wantStatus(t, err, http.StatusUnauthorized, "invalid_credentials")

	_, err = e.auth.Login(ctx, "nobody", "123456")
	wantStatus(t, err, http.StatusUnauthorized, "invalid_credentials")

	_, err = e.auth.Login(ctx, "  ", "123456")
	wantStatus(t, err, http.StatusBadRequest, "validation_error")
}

func TestExpiredTokenIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.auth.SeedUsers(ctx, 2, "123456"); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}
	res, err := e.auth.Login(ctx, "user2", "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	e.clock.Advance(2 * time.Hour)
	if _, err := e.auth.SetContextFromToken(ctx, res.Token); err == nil {
		t.Fatalf("expired token: want error")
	}
}

func TestTokenFromOtherSecretIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.auth.SeedUsers(ctx, 2, "123456"); err != nil {
		t.Fatalf("SeedUsers: %v", err)
	}
	other := NewAuthService(e.db, testutil.Logger(t), e.userRepo, e.clock, "other-secret", time.Hour)
	res, err := other.Login(ctx, "user2", "123456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := e.auth.SetContextFromToken(ctx, res.Token); err == nil {
		t.Fatalf("foreign token: want error")
	}
}

func TestEmptyTokenLeavesContextAnonymous(t *testing.T) {
	e := newEnv(t)
	ctx, err := e.auth.SetContextFromToken(context.Background(), "")
	if err != nil {
		t.Fatalf("empty token: %v", err)
	}
	_, err = e.auth.Me(ctx)
	wantStatus(t, err, http.StatusUnauthorized, "unauthorized")
}
