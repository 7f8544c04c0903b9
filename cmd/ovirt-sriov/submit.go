package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"ovirt-sriov/internal/output"
	"ovirt-sriov/internal/server"
	"ovirt-sriov/pkg/logging"
)

var (
	submitDesired desiredFlags
	submitServer  string
	submitTimeout time.Duration
	submitOutput  string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Send a desired state to a running 'ovirt-sriov serve'",
	Long: `Send one desired state to a reconcile server and print its result record.

Examples:
  ovirt-sriov submit --server localhost:50051 --host example.host1 --interface eth1 --vfs 4
  ovirt-sriov submit --file desired.yaml --output text`,
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitDesired.register(submitCmd.Flags())
	submitCmd.Flags().StringVar(&submitServer, "server", "localhost:50051", "gRPC server address")
	submitCmd.Flags().DurationVar(&submitTimeout, "request-timeout", 5*time.Minute, "Deadline of the reconcile request")
	submitCmd.Flags().StringVarP(&submitOutput, "output", "o", "json", "Output format: json, yaml, text")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(submitOutput)
	if err != nil {
		return err
	}

	doc, err := submitDesired.document(cmd)
	if err != nil {
		return err
	}

	logging.Debug("Connecting to reconcile server at %s...", submitServer)
	conn, err := grpc.NewClient(submitServer, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	result, requestID, err := server.NewClient(conn).Reconcile(ctx, doc)
	if err != nil {
		return fmt.Errorf("reconcile request failed: %v", err)
	}
	logging.WithField("request_id", requestID).Debug("reconcile request served")

	return output.Write(os.Stdout, format, result)
}
