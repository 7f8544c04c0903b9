// Package metrics exposes Prometheus collectors for reconcile runs.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

const namespace = "ovirt_sriov"

// Metrics groups the collectors of one process
type Metrics struct {
	reconciles *prometheus.CounterVec
	mutations  *prometheus.CounterVec
	duration   prometheus.Histogram
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_total",
			Help:      "Reconcile runs by result (changed, unchanged, error).",
		}, []string{"result"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Mutating engine calls by operation.",
		}, []string{"op"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconcile runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	reg.MustRegister(m.reconciles, m.mutations, m.duration)
	return m
}

// ObserveReconcile records the outcome of one run that started at start
func (m *Metrics) ObserveReconcile(start time.Time, result types.Result, err error) {
	m.duration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		m.reconciles.WithLabelValues("error").Inc()
	case result.Changed:
		m.reconciles.WithLabelValues("changed").Inc()
	default:
		m.reconciles.WithLabelValues("unchanged").Inc()
	}
}

// InstrumentRemote wraps remote so that every successful write is counted
func (m *Metrics) InstrumentRemote(remote sriov.Remote) sriov.Remote {
	return &instrumentedRemote{Remote: remote, mutations: m.mutations}
}

type instrumentedRemote struct {
	sriov.Remote
	mutations *prometheus.CounterVec
}

func (r *instrumentedRemote) count(op string, err error) error {
	if err == nil {
		r.mutations.WithLabelValues(op).Inc()
	}
	return err
}

func (r *instrumentedRemote) ReplaceConfig(ctx context.Context, hostID, interfaceID string, patch types.VFConfigPatch) error {
	return r.count("replace_config", r.Remote.ReplaceConfig(ctx, hostID, interfaceID, patch))
}

func (r *instrumentedRemote) AddAllowedNetwork(ctx context.Context, hostID, interfaceID, networkID string) error {
	return r.count("add_network", r.Remote.AddAllowedNetwork(ctx, hostID, interfaceID, networkID))
}

func (r *instrumentedRemote) RemoveAllowedNetwork(ctx context.Context, hostID, interfaceID, networkID string) error {
	return r.count("remove_network", r.Remote.RemoveAllowedNetwork(ctx, hostID, interfaceID, networkID))
}

func (r *instrumentedRemote) AddLabel(ctx context.Context, hostID, interfaceID, labelID string) error {
	return r.count("add_label", r.Remote.AddLabel(ctx, hostID, interfaceID, labelID))
}

func (r *instrumentedRemote) RemoveLabel(ctx context.Context, hostID, interfaceID, labelID string) error {
	return r.count("remove_label", r.Remote.RemoveLabel(ctx, hostID, interfaceID, labelID))
}
