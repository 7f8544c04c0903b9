package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/internal/metrics"
	"ovirt-sriov/internal/server"
	"ovirt-sriov/pkg/logging"
)

var (
	serveListen      string
	serveMetricsAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reconcile requests over gRPC",
	Long: `Keep one engine connection open and reconcile desired states submitted over
gRPC (service ovirtsriov.v1.Reconciler). Requests are served one at a time.

Examples:
  ovirt-sriov serve                                     # listen on :50051
  ovirt-sriov serve --listen :8080 --metrics-addr :9090 # expose Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", ":50051", "gRPC listen address")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Address serving Prometheus metrics on /metrics; disabled when empty")
	config.AddConnectionFlags(serveCmd.Flags())
}

func runServe(cmd *cobra.Command, args []string) error {
	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	grpcServer := grpc.NewServer()
	server.RegisterReconcilerServer(grpcServer, server.New(newReconciler(client, m), m))

	lis, err := net.Listen("tcp", serveListen)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}

	var metricsServer *http.Server
	if serveMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: serveMetricsAddr, Handler: mux}
		go func() {
			logging.Info("Serving metrics on %s/metrics", serveMetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server failed: %v", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Info("Starting reconcile gRPC server on %s", lis.Addr())
		serveErr <- grpcServer.Serve(lis)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to serve: %v", err)
		}
		return nil
	case <-quit:
	}

	logging.Info("Shutting down server...")
	grpcServer.GracefulStop()
	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Failed to stop metrics server: %v", err)
		}
	}
	return nil
}
