package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusObserver struct {
	hvpServed  prometheus.Counter
	hvpChanges prometheus.Counter
	pluginFile *prometheus.CounterVec
}

var (
	hvpServedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moove_hvp_css_served_total",
		Help: "Total number of H5P custom CSS responses",
	})
	hvpChangeCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moove_hvp_css_changes_total",
		Help: "Number of times the H5P CSS fingerprint changed",
	})
	pluginFileCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moove_pluginfile_requests_total",
		Help: "Theme file requests by file area and outcome",
	}, []string{"filearea", "served"})
)

func NewPrometheusObserver() ThemeObserver {
	return &prometheusObserver{
		hvpServed:  hvpServedCounter,
		hvpChanges: hvpChangeCounter,
		pluginFile: pluginFileCounter,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusObserver) RecordHVPServed() {
	p.hvpServed.Inc()
}

func (p *prometheusObserver) RecordHVPChange() {
	p.hvpChanges.Inc()
}

// RecordPluginFile expects an already bucketed file area label.
func (p *prometheusObserver) RecordPluginFile(fileArea string, served bool) {
	p.pluginFile.WithLabelValues(fileArea, strconv.FormatBool(served)).Inc()
}
