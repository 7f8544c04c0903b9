package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ovirt-sriov/pkg/types"
)

const exampleHeader = `# Desired SR-IOV state of one host NIC.
#
# host:             name of the host the interface resides on ("name" is accepted too)
# interface:        name of the interface to manage
# vfs:              number of VFs; set it once, changing it later fails while VFs are in use
# allowed_networks: "all" lets any logical network create VFs, "specific" only the ones in networks
# networks:         logical networks allowed to create VFs (required for "specific")
# labels:           labels added to the specific networks; ignored for "all"
`

// ExampleDocument returns a document creating 4 VFs restricted to two networks
func ExampleDocument() *Document {
	vfs := 4
	return &Document{
		Host:            "example.host1",
		Interface:       "eth1",
		VFs:             &vfs,
		AllowedNetworks: types.AllowedNetworksSpecific,
		Networks:        []string{"net1", "net2"},
		Labels:          []string{"passive"},
	}
}

// WriteExample writes the example document to path. An existing file is
// only replaced when force is set.
func WriteExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %v", err)
		}
	}

	data, err := yaml.Marshal(ExampleDocument())
	if err != nil {
		return fmt.Errorf("failed to marshal example: %v", err)
	}

	if err := os.WriteFile(path, append([]byte(exampleHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write example file: %v", err)
	}
	return nil
}
