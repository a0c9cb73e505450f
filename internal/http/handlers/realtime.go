package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/discipline-backend/internal/http/response"
	"github.com/yungbote/discipline-backend/internal/platform/ctxutil"
	"github.com/yungbote/discipline-backend/internal/platform/logger"
	"github.com/yungbote/discipline-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// SSEStream holds the connection open until the client goes away. The
// client is subscribed to its owner channel on connect.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	owner := ctxutil.OwnerID(c.Request.Context())
	if owner == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	client := h.hub.NewSSEClient(owner)
	h.log.Debug("SSE stream open", "owner_id", owner, "client_id", client.ID)
	defer h.hub.CloseClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}

type channelRequest struct {
	ClientID uuid.UUID `json:"client_id"`
	Channel  string    `json:"channel"`
}

// ownsChannel limits subscriptions to the owner channel and its
// "<owner>:<topic>" sub-channels.
func ownsChannel(owner uuid.UUID, channel string) bool {
	o := owner.String()
	return channel == o || strings.HasPrefix(channel, o+":")
}

func (h *RealtimeHandler) resolve(c *gin.Context) (*realtime.SSEClient, string, bool) {
	owner := ctxutil.OwnerID(c.Request.Context())
	var req channelRequest
	if !bindJSON(c, &req) {
		return nil, "", false
	}
	channel := strings.TrimSpace(req.Channel)
	if channel == "" || req.ClientID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_channel", errors.New("client_id and channel are required"))
		return nil, "", false
	}
	if !ownsChannel(owner, channel) {
		response.RespondError(c, http.StatusForbidden, "forbidden", errors.New("channel belongs to another user"))
		return nil, "", false
	}
	client := h.hub.FindClient(owner, req.ClientID)
	if client == nil {
		response.RespondError(c, http.StatusConflict, "no_active_stream", errors.New("no active SSE connection for this client"))
		return nil, "", false
	}
	return client, channel, true
}

func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	client, channel, ok := h.resolve(c)
	if !ok {
		return
	}
	h.hub.AddChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "subscribed", "channel": channel})
}

func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	client, channel, ok := h.resolve(c)
	if !ok {
		return
	}
	h.hub.RemoveChannel(client, channel)
	response.RespondOK(c, gin.H{"message": "unsubscribed", "channel": channel})
}

func (h *RealtimeHandler) Health(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"status":         "ok",
		"connections":    h.hub.Connections(),
		"uptime_seconds": int64(h.hub.Uptime().Seconds()),
	})
}
