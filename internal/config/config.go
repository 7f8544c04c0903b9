package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

// Document is a desired-state file describing one interface
type Document struct {
	Host            string                    `json:"host" yaml:"host"`
	Name            string                    `json:"name,omitempty" yaml:"name,omitempty"`
	Interface       string                    `json:"interface" yaml:"interface"`
	VFs             *int                      `json:"vfs,omitempty" yaml:"vfs,omitempty"`
	AllowedNetworks types.AllowedNetworksMode `json:"allowed_networks,omitempty" yaml:"allowed_networks,omitempty"`
	Networks        []string                  `json:"networks,omitempty" yaml:"networks,omitempty"`
	Labels          []string                  `json:"labels,omitempty" yaml:"labels,omitempty"`
	CheckMode       bool                      `json:"check_mode,omitempty" yaml:"check_mode,omitempty"`
}

// LoadDesiredState loads a desired-state document from a YAML file
func LoadDesiredState(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read desired state file: %v", err)
	}
	return ParseDesiredState(data)
}

// ParseDesiredState decodes and validates a desired-state document.
// Unknown keys are rejected.
func ParseDesiredState(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse desired state: %v", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// HostName returns the host, accepting "name" as an alias
func (d *Document) HostName() string {
	if d.Host != "" {
		return d.Host
	}
	return d.Name
}

// Desired returns the managed fields of the document
func (d *Document) Desired() types.DesiredState {
	return types.DesiredState{
		VFs:             d.VFs,
		AllowedNetworks: d.AllowedNetworks,
		Networks:        d.Networks,
		Labels:          d.Labels,
	}
}

// Request converts the document into a reconcile request
func (d *Document) Request() sriov.Request {
	return sriov.Request{
		Host:      d.HostName(),
		Interface: d.Interface,
		Desired:   d.Desired(),
		CheckMode: d.CheckMode,
	}
}

// Validate checks the document, reporting every problem at once
func (d *Document) Validate() error {
	var result *multierror.Error

	if d.HostName() == "" {
		result = multierror.Append(result, fmt.Errorf("host is required"))
	}
	if d.Host != "" && d.Name != "" && d.Host != d.Name {
		result = multierror.Append(result, fmt.Errorf("host %q and name %q disagree", d.Host, d.Name))
	}
	if d.Interface == "" {
		result = multierror.Append(result, fmt.Errorf("interface is required"))
	}
	if err := sriov.Validate(d.Desired()); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// ParseList splits a comma-separated list like "net1, net2", dropping empty entries
func ParseList(list string) []string {
	if list == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
