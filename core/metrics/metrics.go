// Package metrics defines the observability sink for engine runs. Sinks are
// best effort: recording failures are logged by callers and never abort a
// computation.
package metrics

import "time"

// GapEvent describes one gap-analysis computation.
type GapEvent struct {
	ScenarioID    string
	Cached        bool
	ShortageCount int
	Duration      time.Duration
	Time          time.Time
}

// ForecastEvent describes one forecast run.
type ForecastEvent struct {
	Mode          string // "scope" or "empirical"
	ScenarioID    string
	Simulations   int
	LowConfidence bool
	Duration      time.Duration
	Time          time.Time
}

// Sink records engine runs for observability purposes.
type Sink interface {
	RecordGap(ev GapEvent) error
	RecordForecast(ev ForecastEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordGap(GapEvent) error           { return nil }
func (NopSink) RecordForecast(ForecastEvent) error { return nil }
