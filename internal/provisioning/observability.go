package provisioning

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/fleetstack/internal/topology"
)

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "materialize", "teardown")
	Message   string            // Human-readable message
	Resource  string            // Entity key if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourcePending indicates a resource is still being realized.
	EventResourcePending EventType = "resource.pending"
	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a resource already exists.
	EventResourceExists EventType = "resource.exists"
	// EventResourceRetrying indicates a failed attempt that will be retried.
	EventResourceRetrying EventType = "resource.retrying"
	// EventResourceFailed indicates resource creation failed.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"

	// EventValidationWarning indicates a validation warning.
	EventValidationWarning EventType = "validation.warning"
	// EventValidationError indicates a validation error.
	EventValidationError EventType = "validation.error"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// failure events are logged at error level.
var failureEvents = map[EventType]bool{
	EventPhaseFailed:     true,
	EventResourceFailed:  true,
	EventValidationError: true,
}

// LogObserver implements Observer on top of a logr.Logger.
type LogObserver struct {
	log logr.Logger
}

// NewLogObserver creates an observer writing to l.
func NewLogObserver(l logr.Logger) *LogObserver {
	return &LogObserver{log: l}
}

// NewDiscardObserver creates an observer that drops everything.
func NewDiscardObserver() *LogObserver {
	return NewLogObserver(logr.Discard())
}

// Printf implements Logger.
func (o *LogObserver) Printf(format string, v ...interface{}) {
	o.log.Info(fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	kv = append(kv, sortedFields(event.Fields)...)

	if failureEvents[event.Type] {
		o.log.Error(nil, event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *LogObserver) Progress(phase string, current, total int) {
	percentage := 0
	if total > 0 {
		percentage = (current * 100) / total
	}
	o.log.V(1).Info("progress", "phase", phase, "current", current, "total", total, "percent", percentage)
}

// WithFields implements Observer.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	return &LogObserver{log: o.log.WithValues(sortedFields(fields)...)}
}

func sortedFields(fields map[string]string) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs a resource creation start event.
func LogResourceCreating(observer Observer, phase string, key topology.Key) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("creating %s", key.Kind),
		Fields:   map[string]string{"kind": string(key.Kind), "region": key.Region},
	})
}

// LogResourcePending logs a poll that found the resource still pending.
func LogResourcePending(observer Observer, phase string, key topology.Key, identity string) {
	observer.Event(Event{
		Type:     EventResourcePending,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("%s pending", key.Kind),
		Fields:   map[string]string{"kind": string(key.Kind), "id": identity},
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase string, key topology.Key, identity string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("%s created", key.Kind),
		Fields:   map[string]string{"kind": string(key.Kind), "id": identity},
	})
}

// LogResourceExists logs when a resource already exists.
func LogResourceExists(observer Observer, phase string, key topology.Key, identity string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("%s already exists", key.Kind),
		Fields:   map[string]string{"kind": string(key.Kind), "id": identity},
	})
}

// LogResourceRetrying logs a failed attempt that will be retried.
func LogResourceRetrying(observer Observer, phase string, key topology.Key, attempt int, err error) {
	observer.Event(Event{
		Type:     EventResourceRetrying,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("attempt %d failed: %v", attempt, err),
		Fields:   map[string]string{"kind": string(key.Kind), "attempt": fmt.Sprint(attempt)},
	})
}

// LogResourceFailed logs a resource that could not be realized or removed.
func LogResourceFailed(observer Observer, phase string, key topology.Key, err error) {
	observer.Event(Event{
		Type:     EventResourceFailed,
		Phase:    phase,
		Resource: key.String(),
		Message:  err.Error(),
		Fields:   map[string]string{"kind": string(key.Kind), "region": key.Region},
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, phase string, key topology.Key) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("deleting %s", key.Kind),
		Fields:   map[string]string{"kind": string(key.Kind)},
	})
}

// LogResourceDeleted logs a successful resource deletion event.
func LogResourceDeleted(observer Observer, phase string, key topology.Key) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: key.String(),
		Message:  fmt.Sprintf("%s deleted", key.Kind),
		Fields:   map[string]string{"kind": string(key.Kind)},
	})
}
