// Package ovirt implements the reconciler's remote interface on top of the
// oVirt engine REST API.
package ovirt

import (
	"context"
	"fmt"
	"strings"
	"time"

	ovirtsdk "github.com/ovirt/go-ovirt"
	"github.com/pkg/errors"

	"ovirt-sriov/pkg/logging"
	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

// Settings holds the engine connection parameters
type Settings struct {
	URL      string
	Username string
	Password string
	CAFile   string
	Insecure bool
	Compress bool
	Timeout  time.Duration
}

// Client talks to one oVirt engine
type Client struct {
	conn *ovirtsdk.Connection
}

var _ sriov.Remote = (*Client)(nil)

// Connect opens an authenticated connection to the engine
func Connect(s Settings) (*Client, error) {
	builder := ovirtsdk.NewConnectionBuilder().
		URL(s.URL).
		Username(s.Username).
		Password(s.Password).
		Insecure(s.Insecure).
		Compress(s.Compress)
	if s.CAFile != "" {
		builder = builder.CAFile(s.CAFile)
	}
	if s.Timeout > 0 {
		builder = builder.Timeout(s.Timeout)
	}

	conn, err := builder.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", s.URL)
	}
	if err := conn.Test(); err != nil {
		conn.Close()
		return nil, sriov.NewRemoteCallError("test connection", err)
	}

	logging.WithField("url", s.URL).Debug("connected to oVirt engine")
	return &Client{conn: conn}, nil
}

// Close logs out and releases the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) nicService(hostID, interfaceID string) *ovirtsdk.HostNicService {
	return c.conn.SystemService().
		HostsService().
		HostService(hostID).
		NicsService().
		NicService(interfaceID)
}

// FindHostByName returns the host whose name is exactly name
func (c *Client) FindHostByName(ctx context.Context, name string) (types.Host, bool, error) {
	logging.FromContext(ctx).WithField("search", searchQuery(name)).Debug("listing hosts")
	resp, err := c.conn.SystemService().HostsService().List().Search(searchQuery(name)).Send()
	if err != nil {
		return types.Host{}, false, sriov.NewRemoteCallError("list hosts", err)
	}

	hosts, ok := resp.Hosts()
	if !ok {
		return types.Host{}, false, nil
	}
	for _, h := range hosts.Slice() {
		if hostName, _ := h.Name(); hostName == name {
			id, _ := h.Id()
			return types.Host{ID: id, Name: hostName}, true, nil
		}
	}
	return types.Host{}, false, nil
}

// FindInterfaceByName returns the NIC of hostID named name, including its VF configuration
func (c *Client) FindInterfaceByName(ctx context.Context, hostID, name string) (types.Interface, bool, error) {
	nic, ok, err := c.findNic(ctx, hostID, name)
	if err != nil || !ok {
		return types.Interface{}, ok, err
	}

	id, _ := nic.Id()
	iface := types.Interface{ID: id, Name: name}
	if vfc, ok := nic.VirtualFunctionsConfiguration(); ok {
		cfg := vfConfigFromSDK(vfc)
		iface.VFConfig = &cfg
	}
	return iface, true, nil
}

// VF configuration is only part of the NIC when all content is requested.
func (c *Client) findNic(ctx context.Context, hostID, name string) (*ovirtsdk.HostNic, bool, error) {
	logging.FromContext(ctx).WithField("host_id", hostID).Debug("listing host nics")
	resp, err := c.conn.SystemService().
		HostsService().
		HostService(hostID).
		NicsService().
		List().
		AllContent(true).
		Send()
	if err != nil {
		return nil, false, sriov.NewRemoteCallError("list host nics", err)
	}

	nics, ok := resp.Nics()
	if !ok {
		return nil, false, nil
	}
	for _, nic := range nics.Slice() {
		if nicName, _ := nic.Name(); nicName == name {
			return nic, true, nil
		}
	}
	return nil, false, nil
}

// FindNetworksByName returns every logical network named exactly name
func (c *Client) FindNetworksByName(ctx context.Context, name string) ([]types.Network, error) {
	logging.FromContext(ctx).WithField("search", searchQuery(name)).Debug("listing networks")
	resp, err := c.conn.SystemService().NetworksService().List().Search(searchQuery(name)).Send()
	if err != nil {
		return nil, sriov.NewRemoteCallError("list networks", err)
	}

	networks, ok := resp.Networks()
	if !ok {
		return nil, nil
	}
	return exactNetworks(networks.Slice(), name), nil
}

// GetInterfaceConfig reads the VF configuration of the named NIC
func (c *Client) GetInterfaceConfig(ctx context.Context, hostID, interfaceName string) (types.VFConfig, error) {
	nic, ok, err := c.findNic(ctx, hostID, interfaceName)
	if err != nil {
		return types.VFConfig{}, err
	}
	if !ok {
		return types.VFConfig{}, sriov.NewRemoteCallError("get vf configuration",
			fmt.Errorf("interface %s disappeared from host %s", interfaceName, hostID))
	}
	vfc, ok := nic.VirtualFunctionsConfiguration()
	if !ok {
		return types.VFConfig{}, sriov.NewRemoteCallError("get vf configuration",
			fmt.Errorf("interface %s is not SR-IOV capable", interfaceName))
	}
	return vfConfigFromSDK(vfc), nil
}

// GetAllowedNetworks lists the IDs of networks allowed to create VFs on the NIC
func (c *Client) GetAllowedNetworks(ctx context.Context, hostID, interfaceID string) ([]string, error) {
	resp, err := c.nicService(hostID, interfaceID).VirtualFunctionAllowedNetworksService().List().Send()
	if err != nil {
		return nil, sriov.NewRemoteCallError("list vf allowed networks", err)
	}

	var ids []string
	if networks, ok := resp.Networks(); ok {
		for _, n := range networks.Slice() {
			if id, ok := n.Id(); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// GetAllowedLabels lists the label IDs attached to the NIC's VF allow-list
func (c *Client) GetAllowedLabels(ctx context.Context, hostID, interfaceID string) ([]string, error) {
	resp, err := c.nicService(hostID, interfaceID).VirtualFunctionAllowedLabelsService().List().Send()
	if err != nil {
		return nil, sriov.NewRemoteCallError("list vf allowed labels", err)
	}

	var ids []string
	if labels, ok := resp.Labels(); ok {
		for _, l := range labels.Slice() {
			if id, ok := l.Id(); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ReplaceConfig writes a VF configuration holding only the fields set in patch
func (c *Client) ReplaceConfig(ctx context.Context, hostID, interfaceID string, patch types.VFConfigPatch) error {
	vfc, err := vfConfigPatchToSDK(patch)
	if err != nil {
		return err
	}
	_, err = c.nicService(hostID, interfaceID).
		UpdateVirtualFunctionsConfiguration().
		VirtualFunctionsConfiguration(vfc).
		Send()
	return sriov.NewRemoteCallError("update vf configuration", err)
}

// AddAllowedNetwork allows networkID to create VFs on the NIC
func (c *Client) AddAllowedNetwork(ctx context.Context, hostID, interfaceID, networkID string) error {
	network, err := ovirtsdk.NewNetworkBuilder().Id(networkID).Build()
	if err != nil {
		return errors.Wrapf(err, "failed to build network %s", networkID)
	}
	_, err = c.nicService(hostID, interfaceID).VirtualFunctionAllowedNetworksService().Add().Network(network).Send()
	return sriov.NewRemoteCallError("add vf allowed network", err)
}

// RemoveAllowedNetwork drops networkID from the NIC's allow-list
func (c *Client) RemoveAllowedNetwork(ctx context.Context, hostID, interfaceID, networkID string) error {
	_, err := c.nicService(hostID, interfaceID).
		VirtualFunctionAllowedNetworksService().
		NetworkService(networkID).
		Remove().
		Send()
	return sriov.NewRemoteCallError("remove vf allowed network", err)
}

// AddLabel attaches labelID to the NIC's VF allow-list
func (c *Client) AddLabel(ctx context.Context, hostID, interfaceID, labelID string) error {
	label, err := labelForNic(labelID, interfaceID)
	if err != nil {
		return err
	}
	_, err = c.nicService(hostID, interfaceID).VirtualFunctionAllowedLabelsService().Add().Label(label).Send()
	return sriov.NewRemoteCallError("add vf allowed label", err)
}

// RemoveLabel detaches labelID from the NIC's VF allow-list
func (c *Client) RemoveLabel(ctx context.Context, hostID, interfaceID, labelID string) error {
	_, err := c.nicService(hostID, interfaceID).
		VirtualFunctionAllowedLabelsService().
		LabelService(labelID).
		Remove().
		Send()
	return sriov.NewRemoteCallError("remove vf allowed label", err)
}

// searchQuery builds an engine search expression matching name.
// The engine matches case-insensitively and expands '*', so callers filter
// the response for exact names.
func searchQuery(name string) string {
	return fmt.Sprintf("name=\"%s\"", strings.ReplaceAll(name, "\"", "\\\""))
}

func exactNetworks(networks []*ovirtsdk.Network, name string) []types.Network {
	var out []types.Network
	for _, n := range networks {
		networkName, _ := n.Name()
		if networkName != name {
			continue
		}
		id, _ := n.Id()
		out = append(out, types.Network{ID: id, Name: networkName})
	}
	return out
}

func vfConfigFromSDK(vfc *ovirtsdk.HostNicVirtualFunctionsConfiguration) types.VFConfig {
	var cfg types.VFConfig
	if n, ok := vfc.NumberOfVirtualFunctions(); ok {
		cfg.NumberOfVFs = int(n)
	}
	if n, ok := vfc.MaxNumberOfVirtualFunctions(); ok {
		cfg.MaxNumberOfVFs = int(n)
	}
	if all, ok := vfc.AllNetworksAllowed(); ok {
		cfg.AllNetworksAllowed = all
	}
	return cfg
}

func vfConfigPatchToSDK(patch types.VFConfigPatch) (*ovirtsdk.HostNicVirtualFunctionsConfiguration, error) {
	builder := ovirtsdk.NewHostNicVirtualFunctionsConfigurationBuilder()
	if patch.AllNetworksAllowed != nil {
		builder = builder.AllNetworksAllowed(*patch.AllNetworksAllowed)
	}
	if patch.NumberOfVFs != nil {
		builder = builder.NumberOfVirtualFunctions(int64(*patch.NumberOfVFs))
	}
	vfc, err := builder.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build vf configuration")
	}
	return vfc, nil
}

func labelForNic(labelID, interfaceID string) (*ovirtsdk.NetworkLabel, error) {
	nic, err := ovirtsdk.NewHostNicBuilder().Id(interfaceID).Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build host nic %s", interfaceID)
	}
	label, err := ovirtsdk.NewNetworkLabelBuilder().Id(labelID).HostNic(nic).Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build label %s", labelID)
	}
	return label, nil
}
