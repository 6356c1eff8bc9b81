package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/wiltonn/productfolio-sub002/core/metrics"
)

// PromSink records engine runs in Prometheus metrics.
type PromSink struct {
	gapRuns      *prometheus.CounterVec
	gapShortages *prometheus.GaugeVec
	gapDuration  prometheus.Histogram
	forecasts    *prometheus.CounterVec
	fcDuration   *prometheus.HistogramVec
}

// NewPromSink registers the planning metrics on the default registerer.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gapRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gap_runs_total",
		Help: "Total number of gap-analysis computations",
	}, []string{"scenario_id", "cached"})
	gapShortages := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gap_shortages",
		Help: "Shortages detected by the latest gap analysis",
	}, []string{"scenario_id"})
	gapDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gap_duration_seconds",
		Help:    "Gap-analysis computation time",
		Buckets: prometheus.DefBuckets,
	})
	forecasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forecast_runs_total",
		Help: "Total number of forecast runs",
	}, []string{"mode", "scenario_id", "low_confidence"})
	fcDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "forecast_duration_seconds",
		Help:    "Forecast run time",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	if err := reg.Register(gapRuns); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			gapRuns = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(gapShortages); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			gapShortages = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(gapDuration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			gapDuration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(forecasts); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			forecasts = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fcDuration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fcDuration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		gapRuns:      gapRuns,
		gapShortages: gapShortages,
		gapDuration:  gapDuration,
		forecasts:    forecasts,
		fcDuration:   fcDuration,
	}, nil
}

// RecordGap updates the gap-analysis counters.
func (s *PromSink) RecordGap(ev coremetrics.GapEvent) error {
	s.gapRuns.WithLabelValues(ev.ScenarioID, strconv.FormatBool(ev.Cached)).Inc()
	if !ev.Cached {
		s.gapShortages.WithLabelValues(ev.ScenarioID).Set(float64(ev.ShortageCount))
		s.gapDuration.Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordForecast updates the forecast counters.
func (s *PromSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	s.forecasts.WithLabelValues(ev.Mode, ev.ScenarioID, strconv.FormatBool(ev.LowConfidence)).Inc()
	s.fcDuration.WithLabelValues(ev.Mode).Observe(ev.Duration.Seconds())
	return nil
}
