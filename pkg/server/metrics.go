package server

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/qldtariffs/qldtariffs/pkg/types"
)

const (
	resultOK      = "ok"
	resultInvalid = "invalid"
	resultError   = "error"

	// unknownTariff labels requests naming a tariff missing from the rate
	// table so clients cannot create new series.
	unknownTariff = "unknown"
)

// metrics are registered on their own registry so tests can create servers
// freely.
type metrics struct {
	registry  *prometheus.Registry
	analyses  *prometheus.CounterVec
	intervals prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qldtariffs",
			Name:      "analyses_total",
			Help:      "Analyze requests by tariff and result.",
		}, []string{"tariff", "result"}),
		intervals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qldtariffs",
			Name:      "intervals_normalized",
			Help:      "Billing intervals produced per analyze request.",
			// one day up to a little over a year of half hours
			Buckets: prometheus.ExponentialBuckets(48, 2, 10),
		}),
	}
	m.registry.MustRegister(
		m.analyses,
		m.intervals,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeAnalysis(tariff, result string, intervals int) {
	m.analyses.WithLabelValues(tariff, result).Inc()
	if result == resultOK {
		m.intervals.Observe(float64(intervals))
	}
}

// newTariffLabels maps the lower cased name of every tariff in infos to its
// canonical name.
func newTariffLabels(infos []types.TariffInfo) map[string]string {
	labels := make(map[string]string, len(infos))
	for _, info := range infos {
		labels[strings.ToLower(info.Name)] = info.Name
	}
	return labels
}

// tariffLabel returns the canonical name of tariff for use as a label value.
func (s *Server) tariffLabel(tariff string) string {
	if name, ok := s.tariffLabels[strings.ToLower(tariff)]; ok {
		return name
	}
	return unknownTariff
}
