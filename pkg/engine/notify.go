package engine

import "sync"

// Severity grades a notification for display.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Notification is a human-readable status message for the display layer.
// It carries no game logic.
type Notification struct {
	Day           int      `json:"day"`
	Message       string   `json:"message"`
	Severity      Severity `json:"severity"`
	EffectSummary string   `json:"effect_summary,omitempty"`
}

// Notifier receives notifications as the engine emits them.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Notifiers fans a notification out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, nt := range ns {
		if nt != nil {
			nt.Notify(n)
		}
	}
}

// Recorder keeps every notification it receives. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

// Reset drops all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}
