package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

// stubRemote fails writes for the network IDs in failing
type stubRemote struct {
	sriov.Remote
	failing map[string]bool
}

func (s *stubRemote) AddAllowedNetwork(_ context.Context, _, _, networkID string) error {
	if s.failing[networkID] {
		return errors.New("rejected")
	}
	return nil
}

func (s *stubRemote) ReplaceConfig(context.Context, string, string, types.VFConfigPatch) error {
	return nil
}

func TestInstrumentRemoteCountsSuccessfulWrites(t *testing.T) {
	m := New(prometheus.NewRegistry())
	remote := m.InstrumentRemote(&stubRemote{failing: map[string]bool{"bad": true}})
	ctx := context.Background()

	vfs := 4
	assert.NoError(t, remote.ReplaceConfig(ctx, "h", "n", types.VFConfigPatch{NumberOfVFs: &vfs}))
	assert.NoError(t, remote.AddAllowedNetwork(ctx, "h", "n", "good"))
	assert.Error(t, remote.AddAllowedNetwork(ctx, "h", "n", "bad"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("replace_config")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("add_network")))
}

func TestObserveReconcile(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReconcile(time.Now(), types.Result{Changed: true}, nil)
	m.ObserveReconcile(time.Now(), types.Result{}, nil)
	m.ObserveReconcile(time.Now(), types.Result{}, errors.New("boom"))
	m.ObserveReconcile(time.Now(), types.Result{}, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciles.WithLabelValues("changed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciles.WithLabelValues("unchanged")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconciles.WithLabelValues("error")))
}
