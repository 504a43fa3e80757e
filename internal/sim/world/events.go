package world

type EventKind string

const (
	EventBoosterPurchase EventKind = "booster_purchase"
	EventCombat          EventKind = "combat"
	EventCombatTie       EventKind = "combat_tie"
	EventPlay            EventKind = "play"
	EventPackAge         EventKind = "pack_age"
)

// Event is an immutable history record. Triggered is nil when the outcome does
// not apply to the kind.
type Event struct {
	Tick        int       `json:"tick"`
	AgentID     int       `json:"agent_id"`
	Kind        EventKind `json:"event_type"`
	Description string    `json:"description"`
	AgentIDs    []int     `json:"agent_ids"`
	Triggered   *bool     `json:"triggered"`
}

func Outcome(b bool) *bool { return &b }

// AddEvent appends e. Events must be appended in non-decreasing tick order.
func (w *World) AddEvent(e Event) {
	if e.AgentIDs == nil {
		e.AgentIDs = []int{e.AgentID}
	}
	if _, ok := w.tickFrom[e.Tick]; !ok {
		w.tickFrom[e.Tick] = len(w.events)
	}
	w.events = append(w.events, e)
}

// Events returns the full log. The slice is shared; callers must not modify it.
func (w *World) Events() []Event { return w.events }

// EventsAt returns a copy of the events logged at tick, never nil.
func (w *World) EventsAt(tick int) []Event {
	out := []Event{}
	start, ok := w.tickFrom[tick]
	if !ok {
		return out
	}
	for _, e := range w.events[start:] {
		if e.Tick != tick {
			break
		}
		out = append(out, e)
	}
	return out
}

// EventsFor returns the events whose primary agent is id.
func (w *World) EventsFor(id int) []Event {
	out := []Event{}
	for _, e := range w.events {
		if e.AgentID == id {
			out = append(out, e)
		}
	}
	return out
}
