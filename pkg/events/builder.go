// oreon/defense · watchthelight <wtl>

package events

import (
	"time"

	"github.com/google/uuid"
)

// Builder accumulates context for one Event until End is called.
type Builder struct {
	evt Event
}

// Start begins a new event of the given type for a component.
// The operation id is a fresh uuid.
func Start(eventType EventType, component string) *Builder {
	return &Builder{
		evt: Event{
			Type:        eventType,
			OperationID: uuid.NewString(),
			Component:   component,
			StartedAt:   time.Now(),
			Success:     true,
			Fields:      make(map[string]interface{}),
		},
	}
}

// Run tags the event with the id of the pipeline run it belongs to.
func (b *Builder) Run(runID string) *Builder {
	b.evt.RunID = runID
	return b
}

// Set records a stage-specific field.
func (b *Builder) Set(key string, value interface{}) *Builder {
	b.evt.Fields[key] = value
	return b
}

// SetError marks the event as failed. A nil error is ignored.
func (b *Builder) SetError(err error) *Builder {
	if err == nil {
		return b
	}
	b.evt.Success = false
	b.evt.Error = err.Error()
	return b
}

// End stamps the duration and returns the finished event.
func (b *Builder) End() Event {
	evt := b.evt
	evt.Duration = time.Since(evt.StartedAt)
	evt.DurationMs = evt.Duration.Milliseconds()
	if len(b.evt.Fields) > 0 {
		evt.Fields = make(map[string]interface{}, len(b.evt.Fields))
		for k, v := range b.evt.Fields {
			evt.Fields[k] = v
		}
	}
	return evt
}
