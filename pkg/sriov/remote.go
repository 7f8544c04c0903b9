package sriov

import (
	"context"

	"ovirt-sriov/pkg/types"
)

// Resolver looks entities up by name. A missing entity is reported through
// the boolean, not the error.
type Resolver interface {
	FindHostByName(ctx context.Context, name string) (types.Host, bool, error)
	FindInterfaceByName(ctx context.Context, hostID, name string) (types.Interface, bool, error)
	// FindNetworksByName returns every network whose name is exactly name
	FindNetworksByName(ctx context.Context, name string) ([]types.Network, error)
}

// Reader fetches the current VF state of an interface
type Reader interface {
	GetInterfaceConfig(ctx context.Context, hostID, interfaceName string) (types.VFConfig, error)
	GetAllowedNetworks(ctx context.Context, hostID, interfaceID string) ([]string, error)
	GetAllowedLabels(ctx context.Context, hostID, interfaceID string) ([]string, error)
}

// Writer mutates the VF state of an interface
type Writer interface {
	ReplaceConfig(ctx context.Context, hostID, interfaceID string, patch types.VFConfigPatch) error
	AddAllowedNetwork(ctx context.Context, hostID, interfaceID, networkID string) error
	RemoveAllowedNetwork(ctx context.Context, hostID, interfaceID, networkID string) error
	AddLabel(ctx context.Context, hostID, interfaceID, labelID string) error
	RemoveLabel(ctx context.Context, hostID, interfaceID, labelID string) error
}

// Remote is the full management API surface the reconciler needs
type Remote interface {
	Resolver
	Reader
	Writer
}
