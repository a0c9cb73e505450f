package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

type SSEClient struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Channels    map[string]bool
	Outbound    chan SSEMessage
	ConnectedAt time.Time
	done        chan struct{}
	Logger      *logger.Logger
}
