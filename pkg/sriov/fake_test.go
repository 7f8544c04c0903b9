package sriov

import (
	"context"
	"fmt"
	"strings"

	"ovirt-sriov/pkg/types"
)

// fakeRemote is an in-memory management API that records every write
type fakeRemote struct {
	hosts      map[string]types.Host
	// keyed by host ID + "/" + name; a non-nil VFConfig marks an SR-IOV
	// capable NIC and is replaced by config on lookup
	interfaces map[string]types.Interface
	networks   []types.Network

	config     types.VFConfig
	allowed    []string
	labels     []string
	writes     []string
	reads      int
	failOn     string
	failLookup string

	// drift runs once, right after the read numbered driftAfter, to mimic
	// another client changing the interface between decision and apply
	driftAfter int
	drift      func(f *fakeRemote)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		hosts: map[string]types.Host{
			"h1": {ID: "host-1", Name: "h1"},
		},
		interfaces: map[string]types.Interface{
			"host-1/eth1": {ID: "nic-1", Name: "eth1", VFConfig: &types.VFConfig{}},
			"host-1/eth0": {ID: "nic-0", Name: "eth0"},
		},
		networks: []types.Network{
			{ID: "net-a", Name: "netA"},
			{ID: "net-b", Name: "netB"},
			{ID: "net-c", Name: "netC"},
		},
		config: types.VFConfig{NumberOfVFs: 2, MaxNumberOfVFs: 8, AllNetworksAllowed: true},
	}
}

func (f *fakeRemote) fail(op string) error {
	if f.failOn != "" && strings.HasPrefix(op, f.failOn) {
		return NewRemoteCallError(op, fmt.Errorf("engine returned 500"))
	}
	return nil
}

func (f *fakeRemote) FindHostByName(_ context.Context, name string) (types.Host, bool, error) {
	h, ok := f.hosts[name]
	return h, ok, nil
}

func (f *fakeRemote) FindInterfaceByName(_ context.Context, hostID, name string) (types.Interface, bool, error) {
	i, ok := f.interfaces[hostID+"/"+name]
	if ok && i.VFConfig != nil {
		cfg := f.config
		i.VFConfig = &cfg
	}
	return i, ok, nil
}

func (f *fakeRemote) FindNetworksByName(_ context.Context, name string) ([]types.Network, error) {
	if f.failLookup == name {
		return nil, NewRemoteCallError("list networks", fmt.Errorf("connection reset"))
	}
	var out []types.Network
	for _, n := range f.networks {
		if n.Name == name {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRemote) observe() {
	f.reads++
	if f.drift != nil && f.reads == f.driftAfter {
		f.drift(f)
	}
}

func (f *fakeRemote) GetInterfaceConfig(_ context.Context, _, _ string) (types.VFConfig, error) {
	if err := f.fail("get-config"); err != nil {
		f.reads++
		return types.VFConfig{}, err
	}
	cfg := f.config
	f.observe()
	return cfg, nil
}

func (f *fakeRemote) GetAllowedNetworks(_ context.Context, _, _ string) ([]string, error) {
	allowed := append([]string(nil), f.allowed...)
	f.observe()
	return allowed, nil
}

func (f *fakeRemote) GetAllowedLabels(_ context.Context, _, _ string) ([]string, error) {
	labels := append([]string(nil), f.labels...)
	f.observe()
	return labels, nil
}

func (f *fakeRemote) ReplaceConfig(_ context.Context, _, _ string, patch types.VFConfigPatch) error {
	if patch.AllNetworksAllowed != nil {
		op := fmt.Sprintf("replace-mode(%t)", *patch.AllNetworksAllowed)
		if err := f.fail(op); err != nil {
			return err
		}
		f.writes = append(f.writes, op)
		f.config.AllNetworksAllowed = *patch.AllNetworksAllowed
	}
	if patch.NumberOfVFs != nil {
		op := fmt.Sprintf("replace-count(%d)", *patch.NumberOfVFs)
		if err := f.fail(op); err != nil {
			return err
		}
		f.writes = append(f.writes, op)
		f.config.NumberOfVFs = *patch.NumberOfVFs
	}
	return nil
}

func (f *fakeRemote) AddAllowedNetwork(_ context.Context, _, _, id string) error {
	op := "add-network(" + id + ")"
	if err := f.fail(op); err != nil {
		return err
	}
	f.writes = append(f.writes, op)
	f.allowed = append(f.allowed, id)
	return nil
}

func (f *fakeRemote) RemoveAllowedNetwork(_ context.Context, _, _, id string) error {
	op := "remove-network(" + id + ")"
	if err := f.fail(op); err != nil {
		return err
	}
	f.writes = append(f.writes, op)
	f.allowed = without(f.allowed, id)
	return nil
}

func (f *fakeRemote) AddLabel(_ context.Context, _, _, id string) error {
	op := "add-label(" + id + ")"
	if err := f.fail(op); err != nil {
		return err
	}
	f.writes = append(f.writes, op)
	f.labels = append(f.labels, id)
	return nil
}

func (f *fakeRemote) RemoveLabel(_ context.Context, _, _, id string) error {
	op := "remove-label(" + id + ")"
	if err := f.fail(op); err != nil {
		return err
	}
	f.writes = append(f.writes, op)
	f.labels = without(f.labels, id)
	return nil
}

func without(values []string, v string) []string {
	var out []string
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func intPtr(v int) *int { return &v }
