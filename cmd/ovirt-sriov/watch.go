package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/internal/output"
	"ovirt-sriov/internal/watch"
	"ovirt-sriov/pkg/types"
)

var (
	watchFile   string
	watchOutput string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile a desired-state file on start and whenever it changes",
	Long: `Reconcile the desired state in a file once, then again each time the file is
written or replaced. A failed run is logged and watching continues.

Examples:
  ovirt-sriov watch --file desired.yaml
  ovirt-sriov watch --file /etc/ovirt-sriov/eth1.yaml --output text`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFile, "file", "f", "", "Desired state YAML file")
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "json", "Output format: json, yaml, text")
	_ = watchCmd.MarkFlagRequired("file")
	config.AddConnectionFlags(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(watchOutput)
	if err != nil {
		return err
	}

	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	onResult := func(doc *config.Document, result types.Result, err error) {
		if err != nil {
			return
		}
		if werr := output.Write(os.Stdout, format, result); werr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", werr)
		}
	}

	w, err := watch.New(watchFile, newReconciler(client, nil), onResult)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %v", watchFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}
