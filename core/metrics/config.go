package metrics

import "github.com/wiltonn/productfolio-sub002/core/factory"

// Config lists the sinks to build at startup.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr, when set, exposes /metrics on that address.
	PrometheusAddr string `json:"prometheus_addr"`
}
