package metrics

import coremetrics "github.com/wiltonn/productfolio-sub002/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordGap forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordGap(ev coremetrics.GapEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordGap(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordForecast forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordForecast(ev); err != nil {
			return err
		}
	}
	return nil
}
