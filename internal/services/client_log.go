package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yungbote/discipline-backend/internal/observability"
	"github.com/yungbote/discipline-backend/internal/platform/apierr"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
)

var ErrMissingClientError = errors.New("error is required")

// ClientErrorReport is what the frontend posts when it hits an error.
type ClientErrorReport struct {
	Error   string         `json:"error"`
	Context map[string]any `json:"context,omitempty"`
	URL     string         `json:"url,omitempty"`
}

type ClientLogService interface {
	Log(ctx context.Context, report ClientErrorReport) error
}

type clientLogService struct {
	log *logger.Logger
}

func NewClientLogService(log *logger.Logger) ClientLogService {
	return &clientLogService{log: log.With("service", "ClientLogService")}
}

func (s *clientLogService) Log(ctx context.Context, report ClientErrorReport) error {
	msg := strings.TrimSpace(report.Error)
	if msg == "" {
		return apierr.New(http.StatusBadRequest, "validation_error", ErrMissingClientError)
	}
	kv := []interface{}{"client_error", msg}
	if report.URL != "" {
		kv = append(kv, "url", report.URL)
	}
	if len(report.Context) > 0 {
		kv = append(kv, "context", report.Context)
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		kv = append(kv, "request_id", td.RequestID)
	}
	s.log.Error("Frontend error", kv...)
	observability.Current().IncClientError("frontend")
	return nil
}
