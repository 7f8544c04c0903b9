package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ovirt-sriov/pkg/logging"
)

var (
	rootLogLevel  string
	rootLogFormat string
	rootDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "ovirt-sriov",
	Short: "Manage SR-IOV virtual functions of oVirt/RHV host NICs",
	Long: `ovirt-sriov reconciles the SR-IOV virtual function configuration of one host
network interface managed by an oVirt/RHV engine: the number of VFs, which logical
networks may create VFs, and the labels of the allowed networks.

Your NIC must support SR-IOV and the engine must be version 4.2 or newer.

Examples:
  ovirt-sriov apply --host example.host1 --interface eth1 --vfs 4
  ovirt-sriov apply --host example.host1 --interface eth1 --allowed-networks specific --networks net1,net2
  ovirt-sriov apply --file desired.yaml --check
  ovirt-sriov init desired.yaml
  ovirt-sriov serve --listen :50051
  ovirt-sriov watch --file desired.yaml`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if rootDebug {
			rootLogLevel = "debug"
		}
		if err := logging.SetLogLevelFromString(rootLogLevel); err != nil {
			return err
		}
		return logging.SetFormat(rootLogFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&rootLogFormat, "log-format", "text", "Log format: text, json")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Debug logging and stack traces on failure")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports err, with its stack trace at debug level
func printError(w io.Writer, err error) {
	if logging.IsDebugEnabled() {
		fmt.Fprintf(w, "Error: %+v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
