package sriov

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ovirt-sriov/pkg/logging"
	"ovirt-sriov/pkg/types"
)

// Request describes one reconcile run
type Request struct {
	Host      string
	Interface string
	Desired   types.DesiredState
	// CheckMode computes the decision without issuing any write
	CheckMode bool
}

// Reconciler drives the VF configuration of a host NIC towards a desired state
type Reconciler struct {
	remote Remote
}

// NewReconciler creates a reconciler backed by remote
func NewReconciler(remote Remote) *Reconciler {
	return &Reconciler{remote: remote}
}

// Reconcile validates req, resolves every referenced entity, and applies the
// writes needed for the interface to match req.Desired. On error the remote
// state may have partially changed; no result is returned.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (types.Result, error) {
	if err := Validate(req.Desired); err != nil {
		return types.Result{}, errors.Wrap(err, "invalid desired state")
	}

	entry := logging.FromContext(ctx).WithFields(log.Fields{
		"host":      req.Host,
		"interface": req.Interface,
	})
	ctx = logging.NewContext(ctx, entry)

	host, ok, err := r.remote.FindHostByName(ctx, req.Host)
	if err != nil {
		return types.Result{}, err
	}
	if !ok {
		return types.Result{}, notFound(KindHost, req.Host)
	}

	iface, ok, err := r.remote.FindInterfaceByName(ctx, host.ID, req.Interface)
	if err != nil {
		return types.Result{}, err
	}
	if !ok {
		return types.Result{}, notFound(KindInterface, req.Interface)
	}
	if iface.VFConfig == nil {
		return types.Result{}, notCapable(req.Interface)
	}

	target, err := resolveTarget(ctx, r.remote, req.Desired)
	if err != nil {
		return types.Result{}, err
	}
	if len(req.Desired.Labels) > 0 && !target.specific() {
		entry.Warn("labels are ignored unless allowed_networks is specific")
	}

	current, err := readCurrent(ctx, r.remote, host.ID, iface, target)
	if err != nil {
		return types.Result{}, err
	}

	decision := Diff(target, current)
	entry.WithFields(log.Fields{
		"mode":     decision.Mode,
		"networks": decision.Networks,
		"labels":   decision.Labels,
		"vfs":      decision.VFs,
	}).Debug("computed decision")

	changed := decision.Any()
	if changed && !req.CheckMode {
		a := &applier{remote: r.remote, hostID: host.ID, iface: iface}
		if changed, err = a.apply(ctx, target); err != nil {
			return types.Result{}, err
		}
	}

	result, err := r.snapshot(ctx, host.ID, iface)
	if err != nil {
		return types.Result{}, err
	}
	result.Changed = changed

	entry.WithFields(log.Fields{
		"changed":    changed,
		"check_mode": req.CheckMode,
	}).Info("reconcile finished")
	return result, nil
}

// snapshot reads the full post-apply state of the interface
func (r *Reconciler) snapshot(ctx context.Context, hostID string, iface types.Interface) (types.Result, error) {
	cfg, err := r.remote.GetInterfaceConfig(ctx, hostID, iface.Name)
	if err != nil {
		return types.Result{}, err
	}
	networkIDs, err := r.remote.GetAllowedNetworks(ctx, hostID, iface.ID)
	if err != nil {
		return types.Result{}, err
	}
	labelIDs, err := r.remote.GetAllowedLabels(ctx, hostID, iface.ID)
	if err != nil {
		return types.Result{}, err
	}

	return types.Result{
		InterfaceID: iface.ID,
		VFConfig:    cfg,
		NetworkIDs:  networkIDs,
		LabelIDs:    labelIDs,
	}, nil
}
