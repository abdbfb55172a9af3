package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics tracks the inventory transaction engine.
type WorkflowMetrics struct {
	movements  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Committed stock journal entries by movement kind.",
	}, []string{"kind"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_rejections_total",
		Help: "Business rejections by workflow and error code.",
	}, []string{"workflow", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "workflow_duration_seconds",
		Help:    "Duration of ledger-affecting transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"workflow"})
	reg.MustRegister(movements, rejections, duration)
	return &WorkflowMetrics{
		movements:  movements,
		rejections: rejections,
		duration:   duration,
	}
}

// IncMovement counts one committed journal entry of the given kind.
func (w *WorkflowMetrics) IncMovement(kind string) {
	if w == nil || w.movements == nil {
		return
	}
	w.movements.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncRejection counts a business rejection for the named workflow.
func (w *WorkflowMetrics) IncRejection(workflow, code string) {
	if w == nil || w.rejections == nil {
		return
	}
	w.rejections.WithLabelValues(normalizeLabel(workflow), normalizeLabel(code)).Inc()
}

// ObserveDuration records how long the named workflow transaction took.
func (w *WorkflowMetrics) ObserveDuration(workflow string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(workflow)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
