package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/ShortKey/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
	metricsPath       = "/metrics"
)

// NewServer exposes the default registry on its own port, apart from the
// public API so every single-segment path stays available for short keys.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newHandler(prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}

func newHandler(reg prometheus.Registerer, g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, promhttp.InstrumentMetricHandler(reg,
		promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true}),
	))
	return mux
}
