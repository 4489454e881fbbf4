// Package metrics records knowledge base write activity for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

type Recorder struct {
	registry         *prometheus.Registry
	entitiesCreated  *prometheus.CounterVec
	relationsCreated *prometheus.CounterVec
	entitiesDeleted  *prometheus.CounterVec
	createDuration   *prometheus.HistogramVec
}

// New registers the recorder's collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		entitiesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kb_entities_created_total",
			Help: "Entities committed by the write coordinator",
		}, []string{"type"}),
		relationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kb_relations_created_total",
			Help: "Relationship edges committed alongside new entities",
		}, []string{"relation"}),
		entitiesDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kb_entities_deleted_total",
			Help: "Entities deleted together with their edges",
		}, []string{"type"}),
		createDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kb_entity_create_duration_seconds",
			Help:    "Duration of entity creation including edge linking and commit",
			Buckets: prometheus.DefBuckets,
		}, []string{"type", "outcome"}),
	}

	r.registry.MustRegister(r.entitiesCreated, r.relationsCreated, r.entitiesDeleted, r.createDuration)
	return r
}

func (r *Recorder) EntityCreated(entityType string, relations map[string]int) {
	if r == nil {
		return
	}
	r.entitiesCreated.WithLabelValues(entityType).Inc()
	for relation, n := range relations {
		r.relationsCreated.WithLabelValues(relation).Add(float64(n))
	}
}

func (r *Recorder) EntityDeleted(entityType string) {
	if r == nil {
		return
	}
	r.entitiesDeleted.WithLabelValues(entityType).Inc()
}

func (r *Recorder) ObserveCreate(entityType, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.createDuration.WithLabelValues(entityType, outcome).Observe(d.Seconds())
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
