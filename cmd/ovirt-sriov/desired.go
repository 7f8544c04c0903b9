package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/pkg/types"
)

// desiredFlags are the flags describing one interface's desired state
type desiredFlags struct {
	file            string
	host            string
	name            string
	iface           string
	vfs             int
	allowedNetworks string
	networks        string
	labels          string
	check           bool
}

func (f *desiredFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.file, "file", "f", "", "Desired state YAML file; flags below override its values")
	flags.StringVar(&f.host, "host", "", "Name of the host the interface resides on")
	flags.StringVar(&f.name, "name", "", "Alias of --host")
	flags.StringVar(&f.iface, "interface", "", "Name of the interface to manage")
	flags.IntVar(&f.vfs, "vfs", 0, "Number of desired VFs")
	flags.StringVar(&f.allowedNetworks, "allowed-networks", "", "Networks allowed to create VFs: all, specific")
	flags.StringVar(&f.networks, "networks", "", "Comma-separated logical networks allowed to create VFs (with specific)")
	flags.StringVar(&f.labels, "labels", "", "Comma-separated labels for the specific networks")
	flags.BoolVar(&f.check, "check", false, "Report what would change without changing anything")
}

// document builds the desired-state document from the file, if any, and the
// flags set on the command line.
func (f *desiredFlags) document(cmd *cobra.Command) (*config.Document, error) {
	doc := &config.Document{}
	if f.file != "" {
		loaded, err := config.LoadDesiredState(f.file)
		if err != nil {
			return nil, err
		}
		doc = loaded
	}

	flags := cmd.Flags()
	// A flag replaces both spellings from the file; giving both flags leaves
	// the conflict to Validate.
	switch {
	case flags.Changed("host") && flags.Changed("name"):
		doc.Host, doc.Name = f.host, f.name
	case flags.Changed("host"):
		doc.Host, doc.Name = f.host, ""
	case flags.Changed("name"):
		doc.Host, doc.Name = "", f.name
	}
	if flags.Changed("interface") {
		doc.Interface = f.iface
	}
	if flags.Changed("vfs") {
		vfs := f.vfs
		doc.VFs = &vfs
	}
	if flags.Changed("allowed-networks") {
		doc.AllowedNetworks = types.AllowedNetworksMode(f.allowedNetworks)
	}
	if flags.Changed("networks") {
		doc.Networks = config.ParseList(f.networks)
	}
	if flags.Changed("labels") {
		doc.Labels = config.ParseList(f.labels)
	}
	if flags.Changed("check") {
		doc.CheckMode = f.check
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid desired state: %v", err)
	}
	return doc, nil
}
