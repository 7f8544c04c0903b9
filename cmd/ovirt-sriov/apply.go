package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/internal/metrics"
	"ovirt-sriov/internal/output"
	"ovirt-sriov/internal/ovirt"
	"ovirt-sriov/pkg/logging"
	"ovirt-sriov/pkg/sriov"
)

var (
	applyDesired desiredFlags
	applyOutput  string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the SR-IOV configuration of one host NIC",
	Long: `Bring the SR-IOV virtual function configuration of one host network interface
to the desired state, issuing only the engine calls needed to get there.

The result record (changed, id, sriov_config, network_ids, labels) is written to stdout.

Examples:
  ovirt-sriov apply --host example.host1 --interface eth1 --vfs 4
  ovirt-sriov apply --host example.host1 --interface eth1 --allowed-networks specific --networks net1,net2 --labels lbl1
  ovirt-sriov apply --host example.host1 --interface eth1 --allowed-networks all
  ovirt-sriov apply --file desired.yaml --check --output yaml`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyDesired.register(applyCmd.Flags())
	config.AddConnectionFlags(applyCmd.Flags())
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "json", "Output format: json, yaml, text")
}

func runApply(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(applyOutput)
	if err != nil {
		return err
	}

	doc, err := applyDesired.document(cmd)
	if err != nil {
		return err
	}

	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	entry := logging.WithFields(log.Fields{
		"request_id": uuid.New().String(),
	})
	ctx := logging.NewContext(context.Background(), entry)

	result, err := newReconciler(client, nil).Reconcile(ctx, doc.Request())
	if err != nil {
		return err
	}
	return output.Write(os.Stdout, format, result)
}

// connect opens the engine connection described by the command's flags
func connect(cmd *cobra.Command) (*ovirt.Client, error) {
	settings, err := config.LoadConnection(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logging.Debug("Connecting to oVirt engine at %s...", settings.URL)
	client, err := ovirt.Connect(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine: %v", err)
	}
	logging.Debug("Connected successfully")
	return client, nil
}

// newReconciler builds the engine over client, counting writes when m is set
func newReconciler(client *ovirt.Client, m *metrics.Metrics) *sriov.Reconciler {
	var remote sriov.Remote = client
	if m != nil {
		remote = m.InstrumentRemote(remote)
	}
	return sriov.NewReconciler(remote)
}
