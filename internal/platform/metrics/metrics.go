// Package metrics counts record mutations with Prometheus collectors.
//
// Collectors live on a private registry. There is no scrape endpoint; the
// registry is flushed to a node-exporter textfile with WriteTextfile.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/certrecord/internal/ports"
)

const namespace = "certrecord"

// Recorder implements ports.MutationObserver with Prometheus counters.
type Recorder struct {
	registry *prometheus.Registry

	added        *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	removed      *prometheus.CounterVec
	skillChanges *prometheus.CounterVec
}

var _ ports.MutationObserver = (*Recorder)(nil)

// New creates a Recorder with its collectors registered on a fresh registry.
// constLabels are attached to every series (e.g. app name and run ID).
func New(constLabels prometheus.Labels) (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		added: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "diplomas_added_total",
			Help:        "Diplomas appended to the record, by mutator kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "diplomas_skipped_total",
			Help:        "Diploma adds that left the record unchanged.",
			ConstLabels: constLabels,
		}, []string{"kind", "reason"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "diplomas_removed_total",
			Help:        "Diploma removal attempts, by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		skillChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "skill_level_changes_total",
			Help:        "Skill level updates.",
			ConstLabels: constLabels,
		}, []string{"cleared"}),
	}

	for _, c := range []prometheus.Collector{r.added, r.skipped, r.removed, r.skillChanges} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return r, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// DiplomaAdded implements ports.MutationObserver.
func (r *Recorder) DiplomaAdded(kind ports.DiplomaKind) {
	r.added.WithLabelValues(string(kind)).Inc()
}

// DiplomaSkipped implements ports.MutationObserver.
func (r *Recorder) DiplomaSkipped(kind ports.DiplomaKind, reason ports.SkipReason) {
	r.skipped.WithLabelValues(string(kind), string(reason)).Inc()
}

// DiplomaRemoved implements ports.MutationObserver.
func (r *Recorder) DiplomaRemoved(found bool) {
	result := "absent"
	if found {
		result = "removed"
	}
	r.removed.WithLabelValues(result).Inc()
}

// SkillLevelChanged implements ports.MutationObserver.
func (r *Recorder) SkillLevelChanged(cleared bool) {
	r.skillChanges.WithLabelValues(strconv.FormatBool(cleared)).Inc()
}

// WriteTextfile writes all series to path in the Prometheus text format.
// The write is atomic: a temporary file is renamed into place.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %q: %w", path, err)
	}
	return nil
}
