package sriov

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"ovirt-sriov/pkg/types"
)

// Target is a desired state with network names resolved to IDs
type Target struct {
	VFs        *int
	Mode       types.AllowedNetworksMode
	NetworkIDs []string
	LabelIDs   []string
}

func (t Target) specific() bool {
	return t.Mode == types.AllowedNetworksSpecific
}

// Labels are only managed for an explicit allow-list, and an empty list means
// "leave labels alone".
func (t Target) manageLabels() bool {
	return t.specific() && len(t.LabelIDs) > 0
}

// Validate checks a desired state without contacting the remote system
func Validate(d types.DesiredState) error {
	var result *multierror.Error

	if d.VFs != nil && *d.VFs < 0 {
		result = multierror.Append(result, fmt.Errorf("vfs must be >= 0, got %d", *d.VFs))
	}
	if !d.AllowedNetworks.Valid() {
		result = multierror.Append(result, fmt.Errorf("allowed_networks must be one of all, specific; got %q", d.AllowedNetworks))
	}
	if d.Specific() && len(d.Networks) == 0 {
		result = multierror.Append(result, fmt.Errorf("networks is required when allowed_networks is specific"))
	}
	for i, name := range d.Networks {
		if name == "" {
			result = multierror.Append(result, fmt.Errorf("networks[%d]: empty network name", i))
		}
	}
	for i, label := range d.Labels {
		if label == "" {
			result = multierror.Append(result, fmt.Errorf("labels[%d]: empty label", i))
		}
	}

	return result.ErrorOrNil()
}

// ResolveNetworkIDs looks up every name and returns the matching network IDs in
// input order. It fails on the first name that does not resolve to exactly one network.
func ResolveNetworkIDs(ctx context.Context, r Resolver, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		networks, err := r.FindNetworksByName(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to look up network %s", name)
		}
		switch len(networks) {
		case 0:
			return nil, notFound(KindNetwork, name)
		case 1:
			ids = append(ids, networks[0].ID)
		default:
			return nil, ambiguous(KindNetwork, name, len(networks))
		}
	}
	return ids, nil
}

// resolveTarget normalizes d into a Target. Networks are resolved even when the
// mode does not use them so that a bad name always fails before any write.
func resolveTarget(ctx context.Context, r Resolver, d types.DesiredState) (Target, error) {
	t := Target{
		VFs:      d.VFs,
		Mode:     d.AllowedNetworks,
		LabelIDs: d.Labels,
	}
	if len(d.Networks) == 0 {
		return t, nil
	}
	ids, err := ResolveNetworkIDs(ctx, r, d.Networks)
	if err != nil {
		return Target{}, err
	}
	t.NetworkIDs = ids
	return t, nil
}
