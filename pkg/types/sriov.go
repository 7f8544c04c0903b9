package types

// AllowedNetworksMode selects which logical networks may create VFs on an interface
type AllowedNetworksMode string

const (
	// AllowedNetworksAll lets any logical network on the host create VFs
	AllowedNetworksAll AllowedNetworksMode = "all"
	// AllowedNetworksSpecific restricts VF creation to an explicit allow-list
	AllowedNetworksSpecific AllowedNetworksMode = "specific"
)

// Valid reports whether the mode is empty (unmanaged) or one of the known modes
func (m AllowedNetworksMode) Valid() bool {
	switch m {
	case "", AllowedNetworksAll, AllowedNetworksSpecific:
		return true
	}
	return false
}

// VFConfig represents the virtual functions configuration of a host NIC
type VFConfig struct {
	NumberOfVFs        int  `json:"number_of_virtual_functions" yaml:"number_of_virtual_functions"`
	MaxNumberOfVFs     int  `json:"max_number_of_virtual_functions" yaml:"max_number_of_virtual_functions"`
	AllNetworksAllowed bool `json:"all_networks_allowed" yaml:"all_networks_allowed"`
}

// VFConfigPatch carries the fields of a single VF configuration write.
// Nil fields are left out of the request.
type VFConfigPatch struct {
	NumberOfVFs        *int
	AllNetworksAllowed *bool
}

// Host represents a virtualization host known to the engine
type Host struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Interface represents a physical host NIC
type Interface struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	VFConfig *VFConfig `json:"sriov_config,omitempty"`
}

// Network represents a logical network
type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DesiredState is the declared VF configuration of one interface.
// Unset fields are not managed.
type DesiredState struct {
	VFs             *int                `json:"vfs,omitempty" yaml:"vfs,omitempty"`
	AllowedNetworks AllowedNetworksMode `json:"allowed_networks,omitempty" yaml:"allowed_networks,omitempty"`
	Networks        []string            `json:"networks,omitempty" yaml:"networks,omitempty"`
	Labels          []string            `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Specific reports whether the desired state asks for an explicit allow-list
func (d DesiredState) Specific() bool {
	return d.AllowedNetworks == AllowedNetworksSpecific
}

// Result is the outcome of one reconcile run
type Result struct {
	Changed     bool     `json:"changed" yaml:"changed"`
	InterfaceID string   `json:"id" yaml:"id"`
	VFConfig    VFConfig `json:"sriov_config" yaml:"sriov_config"`
	NetworkIDs  []string `json:"network_ids" yaml:"network_ids"`
	LabelIDs    []string `json:"labels" yaml:"labels"`
}
