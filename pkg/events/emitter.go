// oreon/defense · watchthelight <wtl>

package events

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Emitter handles event output with optional sampling.
type Emitter struct {
	logger     *slog.Logger
	sampleRate float64 // 0.0-1.0, share of successful fast events to emit
	slowThresh time.Duration

	mu     sync.Mutex
	byType map[EventType]int
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithSampleRate sets the sampling rate for successful events (0.0-1.0).
// Errors and slow stages are always emitted regardless of this setting.
func WithSampleRate(rate float64) EmitterOption {
	return func(e *Emitter) {
		if rate < 0 {
			rate = 0
		}
		if rate > 1 {
			rate = 1
		}
		e.sampleRate = rate
	}
}

// WithSlowThreshold sets the duration threshold for "slow" stages.
func WithSlowThreshold(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		e.slowThresh = d
	}
}

// WithLogger sets a custom slog.Logger for output.
func WithLogger(logger *slog.Logger) EmitterOption {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// NewEmitter creates a new Emitter with the given options.
// Defaults: 100% sample rate, 5s slow threshold, default slog logger.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		logger:     slog.Default(),
		sampleRate: 1.0,
		slowThresh: 5 * time.Second,
		byType:     make(map[EventType]int),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit outputs an event if it passes sampling criteria.
// A nil Emitter drops everything.
func (e *Emitter) Emit(evt Event) {
	if e == nil || !e.shouldEmit(evt) {
		return
	}
	e.log(evt)

	e.mu.Lock()
	e.byType[evt.Type]++
	e.mu.Unlock()
}

// Emitted returns how many events have been written so far.
func (e *Emitter) Emitted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.byType {
		n += c
	}
	return n
}

// EmittedOf returns how many events of one stage have been written.
func (e *Emitter) EmittedOf(t EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.byType[t]
}

func (e *Emitter) shouldEmit(evt Event) bool {
	if !evt.Success {
		return true
	}
	if evt.Duration >= e.slowThresh {
		return true
	}
	if e.sampleRate >= 1.0 {
		return true
	}
	if e.sampleRate <= 0 {
		return false
	}
	return rand.Float64() < e.sampleRate
}

func (e *Emitter) log(evt Event) {
	attrs := []any{
		slog.String("event_type", string(evt.Type)),
		slog.String(FieldOperationID, evt.OperationID),
		slog.String("component", evt.Component),
		slog.Int64(FieldDurationMs, evt.DurationMs),
		slog.Bool(FieldSuccess, evt.Success),
	}
	if evt.RunID != "" {
		attrs = append(attrs, slog.String(FieldRunID, evt.RunID))
	}
	if evt.Error != "" {
		attrs = append(attrs, slog.String(FieldError, evt.Error))
	}

	// Stable field order keeps log lines diffable between runs.
	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, evt.Fields[k]))
	}

	level := slog.LevelInfo
	switch {
	case !evt.Success:
		level = slog.LevelError
	case evt.Duration >= e.slowThresh:
		level = slog.LevelWarn
		attrs = append(attrs, slog.Bool("slow", true))
	}

	e.logger.Log(context.Background(), level, string(evt.Type), attrs...)
}
