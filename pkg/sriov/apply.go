package sriov

import (
	"context"

	"ovirt-sriov/pkg/logging"
	"ovirt-sriov/pkg/types"
)

// tracker accumulates whether any applier step mutated remote state.
// Once set it stays set.
type tracker struct {
	changed bool
}

func (t tracker) merge(changed bool) tracker {
	if changed {
		t.changed = true
	}
	return t
}

// applier issues the writes for one interface. Every step re-reads the
// state it acts on.
type applier struct {
	remote Remote
	hostID string
	iface  types.Interface
}

// apply runs the steps in dependency order. Steps after the mode switch are
// gated on the requested mode, not on what the remote reports afterwards.
func (a *applier) apply(ctx context.Context, t Target) (bool, error) {
	var tr tracker

	if t.Mode != "" {
		changed, err := a.applyMode(ctx, t)
		if err != nil {
			return false, err
		}
		tr = tr.merge(changed)
	}

	if t.specific() {
		changed, err := a.applyNetworks(ctx, t)
		if err != nil {
			return false, err
		}
		tr = tr.merge(changed)
	}

	if t.manageLabels() {
		changed, err := a.applyLabels(ctx, t)
		if err != nil {
			return false, err
		}
		tr = tr.merge(changed)
	}

	if t.VFs != nil {
		changed, err := a.applyVFCount(ctx, t)
		if err != nil {
			return false, err
		}
		tr = tr.merge(changed)
	}

	return tr.changed, nil
}

func (a *applier) applyMode(ctx context.Context, t Target) (bool, error) {
	cfg, err := a.remote.GetInterfaceConfig(ctx, a.hostID, a.iface.Name)
	if err != nil {
		return false, err
	}
	if !modeDiffers(t, cfg) {
		return false, nil
	}

	allNetworks := t.Mode == types.AllowedNetworksAll
	logging.FromContext(ctx).WithField("all_networks_allowed", allNetworks).Info("updating allowed networks mode")
	if err := a.remote.ReplaceConfig(ctx, a.hostID, a.iface.ID, types.VFConfigPatch{AllNetworksAllowed: &allNetworks}); err != nil {
		return false, err
	}
	return true, nil
}

func (a *applier) applyNetworks(ctx context.Context, t Target) (bool, error) {
	current, err := a.remote.GetAllowedNetworks(ctx, a.hostID, a.iface.ID)
	if err != nil {
		return false, err
	}

	remove := difference(current, t.NetworkIDs)
	add := difference(t.NetworkIDs, current)
	log := logging.FromContext(ctx)

	for _, id := range remove {
		log.WithField("network_id", id).Info("removing allowed network")
		if err := a.remote.RemoveAllowedNetwork(ctx, a.hostID, a.iface.ID, id); err != nil {
			return false, err
		}
	}
	for _, id := range add {
		log.WithField("network_id", id).Info("adding allowed network")
		if err := a.remote.AddAllowedNetwork(ctx, a.hostID, a.iface.ID, id); err != nil {
			return false, err
		}
	}

	return len(remove) > 0 || len(add) > 0, nil
}

func (a *applier) applyLabels(ctx context.Context, t Target) (bool, error) {
	current, err := a.remote.GetAllowedLabels(ctx, a.hostID, a.iface.ID)
	if err != nil {
		return false, err
	}

	remove := difference(current, t.LabelIDs)
	add := difference(t.LabelIDs, current)
	log := logging.FromContext(ctx)

	for _, id := range remove {
		log.WithField("label", id).Info("removing label")
		if err := a.remote.RemoveLabel(ctx, a.hostID, a.iface.ID, id); err != nil {
			return false, err
		}
	}
	for _, id := range add {
		log.WithField("label", id).Info("adding label")
		if err := a.remote.AddLabel(ctx, a.hostID, a.iface.ID, id); err != nil {
			return false, err
		}
	}

	return len(remove) > 0 || len(add) > 0, nil
}

func (a *applier) applyVFCount(ctx context.Context, t Target) (bool, error) {
	cfg, err := a.remote.GetInterfaceConfig(ctx, a.hostID, a.iface.Name)
	if err != nil {
		return false, err
	}
	if !vfCountDiffers(t, cfg) {
		return false, nil
	}

	vfs := *t.VFs
	logging.FromContext(ctx).WithField("vfs", vfs).Info("updating number of VFs")
	if err := a.remote.ReplaceConfig(ctx, a.hostID, a.iface.ID, types.VFConfigPatch{NumberOfVFs: &vfs}); err != nil {
		return false, err
	}
	return true, nil
}
