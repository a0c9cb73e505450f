package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/platform/apierr"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
)

var ErrUnauthorized = errors.New("unauthorized")

// requireOwner returns the authenticated caller attached by the auth middleware.
func requireOwner(ctx context.Context) (uuid.UUID, error) {
	owner := ctxutil.OwnerID(ctx)
	if owner == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
	}
	return owner, nil
}
