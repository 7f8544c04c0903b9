// Package server exposes the reconciler over gRPC.
//
// The service has a single unary method whose request and response are
// google.protobuf.Struct values. The request carries the keys of a
// desired-state document (host, interface, vfs, allowed_networks, networks,
// labels, check_mode); the response carries the result record (changed, id,
// sriov_config, network_ids, labels).
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/internal/metrics"
	"ovirt-sriov/pkg/logging"
	"ovirt-sriov/pkg/sriov"
	"ovirt-sriov/pkg/types"
)

const (
	serviceName     = "ovirtsriov.v1.Reconciler"
	reconcileMethod = "/" + serviceName + "/Reconcile"

	// RequestIDHeader is the response header carrying the request id
	RequestIDHeader = "x-request-id"
)

// Reconciler is the engine the server drives
type Reconciler interface {
	Reconcile(ctx context.Context, req sriov.Request) (types.Result, error)
}

// ReconcilerServer is the server API of the service
type ReconcilerServer interface {
	Reconcile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReconcilerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Reconcile",
			Handler:    reconcileHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ovirtsriov/v1/reconciler.proto",
}

func reconcileHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ReconcilerServer).Reconcile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: reconcileMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ReconcilerServer).Reconcile(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterReconcilerServer registers srv with s
func RegisterReconcilerServer(s grpc.ServiceRegistrar, srv ReconcilerServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Server runs one reconcile at a time on behalf of remote callers
type Server struct {
	mu         sync.Mutex
	reconciler Reconciler
	metrics    *metrics.Metrics
}

var _ ReconcilerServer = (*Server)(nil)

// New creates a server. m may be nil.
func New(reconciler Reconciler, m *metrics.Metrics) *Server {
	return &Server{reconciler: reconciler, metrics: m}
}

// Reconcile implements ReconcilerServer
func (s *Server) Reconcile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	requestID := uuid.New().String()
	if err := grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID)); err != nil {
		logging.WithError(err).Debug("failed to set request id header")
	}
	entry := logging.WithField("request_id", requestID)
	ctx = logging.NewContext(ctx, entry)

	doc, err := documentFromStruct(in)
	if err != nil {
		entry.WithError(err).Warn("rejected reconcile request")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.reconciler.Reconcile(ctx, doc.Request())
	if s.metrics != nil {
		s.metrics.ObserveReconcile(start, result, err)
	}
	if err != nil {
		entry.WithError(err).Error("reconcile failed")
		return nil, toStatus(err)
	}

	entry.WithFields(log.Fields{
		"changed":  result.Changed,
		"duration": time.Since(start).String(),
	}).Info("reconcile request served")
	return resultToStruct(result)
}

func documentFromStruct(in *structpb.Struct) (*config.Document, error) {
	data, err := protojson.Marshal(in)
	if err != nil {
		return nil, err
	}

	var doc config.Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse request: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func resultToStruct(result types.Result) (*structpb.Struct, error) {
	if result.NetworkIDs == nil {
		result.NetworkIDs = []string{}
	}
	if result.LabelIDs == nil {
		result.LabelIDs = []string{}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case sriov.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case sriov.IsAmbiguous(err), sriov.IsNotCapable(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case sriov.IsRemoteCall(err):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
