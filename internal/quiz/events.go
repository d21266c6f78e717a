package quiz

import "context"

// Cue is a fire-and-forget notification, played as a sound by the browser
// or the terminal.
type Cue string

const (
	CueWarning    Cue = "warning"
	CueCompletion Cue = "completion"
)

// Cues plays notifications. Errors are logged by the controller and never
// interrupt a session.
type Cues interface {
	Play(ctx context.Context, cue Cue) error
}

type CueFunc func(ctx context.Context, cue Cue) error

func (f CueFunc) Play(ctx context.Context, cue Cue) error {
	return f(ctx, cue)
}

type NopCues struct{}

func (NopCues) Play(context.Context, Cue) error { return nil }

type EventType string

const (
	EventStarted   EventType = "started"
	EventTick      EventType = "tick"
	EventWarning   EventType = "warning"
	EventCompleted EventType = "completed"
	EventClosed    EventType = "closed"
)

// Event is published after every session transition, outside the
// controller lock.
type Event struct {
	Type             EventType `json:"event"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Result           *Result   `json:"result,omitempty"`
}
