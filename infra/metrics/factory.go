package metrics

import (
	"github.com/wiltonn/productfolio-sub002/core/factory"
	coremetrics "github.com/wiltonn/productfolio-sub002/core/metrics"
)

// registry holds the built-in sink builders keyed by config type name.
var registry = NewRegistry()

// NewRegistry returns a registry preloaded with the built-in sinks.
func NewRegistry() *factory.Registry[coremetrics.Sink] {
	r := factory.NewRegistry[coremetrics.Sink]()
	_ = r.Register("nop", func(map[string]any) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = r.Register("prometheus", func(map[string]any) (coremetrics.Sink, error) {
		return NewPromSink()
	})
	_ = r.Register("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
	return r
}

// BuildSinks instantiates every configured sink and fans them out behind a
// single Sink. An empty config yields a NopSink.
func BuildSinks(cfg coremetrics.Config) (coremetrics.Sink, error) {
	if len(cfg.Sinks) == 0 {
		return coremetrics.NopSink{}, nil
	}
	sinks := make([]coremetrics.Sink, 0, len(cfg.Sinks))
	for _, mc := range cfg.Sinks {
		s, err := registry.Build(mc)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMultiSink(sinks...), nil
}
