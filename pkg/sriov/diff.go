package sriov

import (
	"context"

	"ovirt-sriov/pkg/types"
)

// CurrentState is the remote VF state of an interface as read before a decision.
// NetworkIDs and LabelIDs are only populated for the axes the target manages.
type CurrentState struct {
	Config     types.VFConfig
	NetworkIDs []string
	LabelIDs   []string
}

// Decision records, per axis, whether a write is required
type Decision struct {
	Mode     bool
	Networks bool
	Labels   bool
	VFs      bool
}

// Any reports whether at least one axis differs
func (d Decision) Any() bool {
	return d.Mode || d.Networks || d.Labels || d.VFs
}

// Diff compares t against current axis by axis. Unset target fields never
// require an update. It has no side effects.
func Diff(t Target, current CurrentState) Decision {
	var d Decision

	if t.Mode != "" {
		d.Mode = modeDiffers(t, current.Config)
	}
	if t.specific() {
		d.Networks = !sameSet(t.NetworkIDs, current.NetworkIDs)
	}
	if t.manageLabels() {
		d.Labels = !sameSet(t.LabelIDs, current.LabelIDs)
	}
	if t.VFs != nil {
		d.VFs = vfCountDiffers(t, current.Config)
	}

	return d
}

func modeDiffers(t Target, cfg types.VFConfig) bool {
	allNetworks := t.Mode == types.AllowedNetworksAll
	return allNetworks != cfg.AllNetworksAllowed
}

func vfCountDiffers(t Target, cfg types.VFConfig) bool {
	return *t.VFs != cfg.NumberOfVFs
}

// readCurrent fetches the state Diff needs for t, skipping reads for axes t
// does not manage.
func readCurrent(ctx context.Context, r Reader, hostID string, iface types.Interface, t Target) (CurrentState, error) {
	var current CurrentState

	cfg, err := r.GetInterfaceConfig(ctx, hostID, iface.Name)
	if err != nil {
		return CurrentState{}, err
	}
	current.Config = cfg

	if t.specific() {
		if current.NetworkIDs, err = r.GetAllowedNetworks(ctx, hostID, iface.ID); err != nil {
			return CurrentState{}, err
		}
	}
	if t.manageLabels() {
		if current.LabelIDs, err = r.GetAllowedLabels(ctx, hostID, iface.ID); err != nil {
			return CurrentState{}, err
		}
	}

	return current, nil
}

// sameSet compares a and b ignoring order and duplicates
func sameSet(a, b []string) bool {
	as, bs := toSet(a), toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

// difference returns the members of a missing from b, in a's order, without duplicates
func difference(a, b []string) []string {
	bs := toSet(b)
	seen := make(map[string]struct{}, len(a))
	var out []string
	for _, v := range a {
		if _, ok := bs[v]; ok {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
