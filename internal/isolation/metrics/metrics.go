// Package metrics exposes isolation-domain Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Condition labels for the subjects gauge.
const (
	ConditionIsolating                  = "isolating"
	ConditionIsolatingForSelfDiagnosis  = "isolating_self_diagnosed"
	ConditionTestedPositive             = "tested_positive"
	ConditionHadRiskyContact            = "had_risky_contact"
	ConditionPendingConfirmation        = "pending_confirmation"
	ConditionFinishedButNotAcknowledged = "finished_unacknowledged"
)

var conditions = []string{
	ConditionIsolating,
	ConditionIsolatingForSelfDiagnosis,
	ConditionTestedPositive,
	ConditionHadRiskyContact,
	ConditionPendingConfirmation,
	ConditionFinishedButNotAcknowledged,
}

// Conditions is what one subject contributes to the background metrics tick.
type Conditions struct {
	Isolating                  bool
	IsolatingForSelfDiagnosis  bool
	TestedPositive             bool
	HadRiskyContact            bool
	PendingConfirmation        bool
	FinishedButNotAcknowledged bool
}

func (c Conditions) labels() []string {
	var out []string
	for label, set := range map[string]bool{
		ConditionIsolating:                  c.Isolating,
		ConditionIsolatingForSelfDiagnosis:  c.IsolatingForSelfDiagnosis,
		ConditionTestedPositive:             c.TestedPositive,
		ConditionHadRiskyContact:            c.HadRiskyContact,
		ConditionPendingConfirmation:        c.PendingConfirmation,
		ConditionFinishedButNotAcknowledged: c.FinishedButNotAcknowledged,
	} {
		if set {
			out = append(out, label)
		}
	}
	return out
}

type Metrics struct {
	Signposts          *prometheus.CounterVec
	Subjects           *prometheus.GaugeVec
	StoreWriteFailures prometheus.Counter
	StoreOperations    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Signposts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isolationd_signposts_total",
			Help: "Total number of analytics signposts emitted, by event",
		}, []string{"event"}),
		Subjects: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isolationd_subjects",
			Help: "Number of tracked subjects in each isolation condition at the last metrics tick",
		}, []string{"condition"}),
		StoreWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "isolationd_store_write_failures_total",
			Help: "Total number of isolation state writes rejected by the backend",
		}),
		StoreOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isolationd_test_result_operations_total",
			Help: "Total number of test results folded into stored evidence, by store operation",
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementSignpost(event string) {
	m.Signposts.WithLabelValues(event).Inc()
}

func (m *Metrics) IncrementStoreWriteFailures() {
	m.StoreWriteFailures.Inc()
}

func (m *Metrics) IncrementStoreOperation(operation string) {
	m.StoreOperations.WithLabelValues(operation).Inc()
}

// RecordConditions replaces the subjects gauge with counts over all.
func (m *Metrics) RecordConditions(all []Conditions) {
	counts := make(map[string]int, len(conditions))
	for _, c := range all {
		for _, label := range c.labels() {
			counts[label]++
		}
	}
	for _, label := range conditions {
		m.Subjects.WithLabelValues(label).Set(float64(counts[label]))
	}
}
