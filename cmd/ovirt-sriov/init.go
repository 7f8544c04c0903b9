package main

import (
	"github.com/spf13/cobra"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/pkg/logging"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write an example desired-state file",
	Long: `Write a commented example desired-state YAML file to use with
'apply --file', 'submit --file' or 'watch --file'.

Examples:
  ovirt-sriov init                   # writes desired.yaml
  ovirt-sriov init eth1.yaml --force # overwrite an existing file`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "desired.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteExample(path, initForce); err != nil {
		return err
	}
	logging.Info("Wrote example desired state to %s", path)
	return nil
}
