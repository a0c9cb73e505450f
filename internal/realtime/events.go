package realtime

type SSEEvent string

const (
	SSEEventPlanUpdated         SSEEvent = "PlanUpdated"
	SSEEventPlanDeleted         SSEEvent = "PlanDeleted"
	SSEEventFocusSessionCreated SSEEvent = "FocusSessionCreated"
	SSEEventFocusSessionDeleted SSEEvent = "FocusSessionDeleted"
	SSEEventTestChanged         SSEEvent = "TestChanged"
	SSEEventTestDeleted         SSEEvent = "TestDeleted"
	SSEEventTimerStateChanged   SSEEvent = "TimerStateChanged"
	SSEEventTimerTick           SSEEvent = "TimerTick"
)

// SSEMessage is delivered to every client subscribed to Channel. Owner
// channels are the owner's id string.
type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
