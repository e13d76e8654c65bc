// Package metrics implements ports.Metrics with Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/lockres/internal/core/domain"
	"go.trai.ch/zerr"
)

const namespace = "lockres"

// Recorder records session outcomes into its own registry.
type Recorder struct {
	registry *prometheus.Registry

	resolutions  *prometheus.CounterVec
	indexLookups *prometheus.CounterVec
	validations  *prometheus.CounterVec
	installs     *prometheus.CounterVec
	installTime  *prometheus.HistogramVec
}

// New creates a Recorder with freshly registered collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Number of satisfier resolutions by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		indexLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_lookups_total",
				Help:      "Number of package index lookups by cache use and outcome.",
			},
			[]string{"cached", "outcome"},
		),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Number of artifact validations by result.",
			},
			[]string{"result"},
		),
		installs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "installs_total",
				Help:      "Number of nodes by final install status.",
			},
			[]string{"status"},
		),
		installTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "install_duration_seconds",
				Help:      "Time taken to bring a node to its final status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
	}

	r.registry.MustRegister(
		r.resolutions,
		r.indexLookups,
		r.validations,
		r.installs,
		r.installTime,
	)
	return r
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveResolution records the outcome of resolving one node's satisfier.
func (r *Recorder) ObserveResolution(kind domain.SatisfierKind, err error) {
	r.resolutions.WithLabelValues(kind.String(), outcome(err)).Inc()
}

// ObserveIndexLookup records an index lookup and whether the cache served it.
func (r *Recorder) ObserveIndexLookup(cached bool, err error) {
	label := "false"
	if cached {
		label = "true"
	}
	r.indexLookups.WithLabelValues(label, outcome(err)).Inc()
}

// ObserveValidation records an artifact validation.
func (r *Recorder) ObserveValidation(passed bool, err error) {
	result := "passed"
	switch {
	case err != nil:
		result = "error"
	case !passed:
		result = "mismatch"
	}
	r.validations.WithLabelValues(result).Inc()
}

// ObserveInstall records the final status of a node and the time it took.
func (r *Recorder) ObserveInstall(status domain.NodeStatus, elapsed time.Duration) {
	r.installs.WithLabelValues(string(status)).Inc()
	r.installTime.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}

// WriteTextfile writes the current state of the registry to path in the
// node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write metrics textfile"), "path", path)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
