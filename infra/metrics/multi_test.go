package metrics

import (
	"testing"

	coremetrics "github.com/wiltonn/productfolio-sub002/core/metrics"
)

type countSink struct {
	count int
}

func (r *countSink) RecordGap(coremetrics.GapEvent) error {
	r.count++
	return nil
}

func (r *countSink) RecordForecast(coremetrics.ForecastEvent) error {
	r.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &countSink{}
	s2 := &countSink{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordGap(coremetrics.GapEvent{}); err != nil {
		t.Fatalf("record gap: %v", err)
	}
	if err := m.RecordForecast(coremetrics.ForecastEvent{}); err != nil {
		t.Fatalf("record forecast: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
}
