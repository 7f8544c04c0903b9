package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/internal/metrics"
	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

const bufSize = 1024 * 1024

type stubReconciler struct {
	mu       sync.Mutex
	requests []sriov.Request
	result   types.Result
	err      error
}

func (s *stubReconciler) Reconcile(_ context.Context, req sriov.Request) (types.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result, s.err
}

func setupTestServer(t *testing.T, reconciler Reconciler) *Client {
	t.Helper()

	lis := bufconn.Listen(bufSize)
	grpcServer := grpc.NewServer()
	RegisterReconcilerServer(grpcServer, New(reconciler, metrics.New(prometheus.NewRegistry())))
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func TestReconcileRoundTrip(t *testing.T) {
	stub := &stubReconciler{
		result: types.Result{
			Changed:     true,
			InterfaceID: "nic-1",
			VFConfig:    types.VFConfig{NumberOfVFs: 4, MaxNumberOfVFs: 63},
			NetworkIDs:  []string{"net-a"},
		},
	}
	client := setupTestServer(t, stub)

	vfs := 4
	doc := &config.Document{
		Host:            "h1",
		Interface:       "eth1",
		VFs:             &vfs,
		AllowedNetworks: types.AllowedNetworksSpecific,
		Networks:        []string{"netA"},
		Labels:          []string{"passive"},
		CheckMode:       true,
	}

	result, requestID, err := client.Reconcile(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEmpty(t, requestID)
	assert.Equal(t, stub.result.InterfaceID, result.InterfaceID)
	assert.True(t, result.Changed)
	assert.Equal(t, stub.result.VFConfig, result.VFConfig)
	assert.Equal(t, []string{"net-a"}, result.NetworkIDs)
	assert.Empty(t, result.LabelIDs)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, doc.Request(), stub.requests[0])
}

func TestReconcileErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "not found", err: &sriov.NotFoundError{Kind: sriov.KindHost, Name: "h1"}, code: codes.NotFound},
		{name: "ambiguous", err: &sriov.AmbiguousError{Kind: sriov.KindNetwork, Name: "n", Count: 2}, code: codes.FailedPrecondition},
		{name: "not sr-iov capable", err: &sriov.NotCapableError{Interface: "eth0"}, code: codes.FailedPrecondition},
		{name: "remote", err: sriov.NewRemoteCallError("list hosts", fmt.Errorf("timeout")), code: codes.Unavailable},
		{name: "other", err: fmt.Errorf("boom"), code: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestServer(t, &stubReconciler{err: tt.err})
			vfs := 2

			_, _, err := client.Reconcile(context.Background(), &config.Document{Host: "h1", Interface: "eth1", VFs: &vfs})
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestReconcileRejectsInvalidRequest(t *testing.T) {
	stub := &stubReconciler{}
	srv := New(stub, nil)

	tests := []map[string]interface{}{
		{"interface": "eth1"},
		{"host": "h1", "interface": "eth1", "unknown": true},
		{"host": "h1", "interface": "eth1", "allowed_networks": "specific"},
	}
	for _, fields := range tests {
		in, err := structpb.NewStruct(fields)
		require.NoError(t, err)

		_, err = srv.Reconcile(context.Background(), in)
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	}
	assert.Empty(t, stub.requests)
}
