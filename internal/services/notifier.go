package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/discipline-backend/internal/domain"
	"github.com/yungbote/discipline-backend/internal/realtime"
)

// Notifier emits one event per successful mutation on the owner's channel.
type Notifier interface {
	PlanUpdated(ownerID uuid.UUID, plan *types.Plan)
	PlanDeleted(ownerID uuid.UUID, plan *types.Plan, deletedSessions int)
	FocusSessionCreated(ownerID uuid.UUID, session *types.FocusSession)
	FocusSessionDeleted(ownerID uuid.UUID, session *types.FocusSession)
	TestChanged(ownerID uuid.UUID, test *types.TestRecord)
	TestDeleted(ownerID uuid.UUID, test *types.TestRecord)
	TimerStateChanged(ownerID uuid.UUID, timer *TimerView)
	TimerTick(ownerID uuid.UUID, timer *TimerView)
}

// EventPayload is the data of every record event.
type EventPayload struct {
	Type   realtime.SSEEvent `json:"type"`
	Owner  uuid.UUID         `json:"owner"`
	Record any               `json:"record,omitempty"`
}

type notifier struct {
	emit SSEEmitter
}

func NewNotifier(emit SSEEmitter) Notifier {
	return &notifier{emit: emit}
}

func (n *notifier) send(ownerID uuid.UUID, event realtime.SSEEvent, record any) {
	if n == nil || n.emit == nil || ownerID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: ownerID.String(),
		Event:   event,
		Data:    EventPayload{Type: event, Owner: ownerID, Record: record},
	})
}

func (n *notifier) PlanUpdated(ownerID uuid.UUID, plan *types.Plan) {
	n.send(ownerID, realtime.SSEEventPlanUpdated, plan)
}

func (n *notifier) PlanDeleted(ownerID uuid.UUID, plan *types.Plan, deletedSessions int) {
	n.send(ownerID, realtime.SSEEventPlanDeleted, map[string]any{
		"plan":             plan,
		"deleted_sessions": deletedSessions,
	})
}

func (n *notifier) FocusSessionCreated(ownerID uuid.UUID, session *types.FocusSession) {
	n.send(ownerID, realtime.SSEEventFocusSessionCreated, session)
}

func (n *notifier) FocusSessionDeleted(ownerID uuid.UUID, session *types.FocusSession) {
	n.send(ownerID, realtime.SSEEventFocusSessionDeleted, session)
}

func (n *notifier) TestChanged(ownerID uuid.UUID, test *types.TestRecord) {
	n.send(ownerID, realtime.SSEEventTestChanged, test)
}

func (n *notifier) TestDeleted(ownerID uuid.UUID, test *types.TestRecord) {
	n.send(ownerID, realtime.SSEEventTestDeleted, test)
}

func (n *notifier) TimerStateChanged(ownerID uuid.UUID, timer *TimerView) {
	n.send(ownerID, realtime.SSEEventTimerStateChanged, timer)
}

func (n *notifier) TimerTick(ownerID uuid.UUID, timer *TimerView) {
	n.send(ownerID, realtime.SSEEventTimerTick, timer)
}
