package server

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"ovirt-sriov/internal/config"
	"ovirt-sriov/pkg/types"
)

// Client calls a remote reconciler service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client on top of cc
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Reconcile submits doc and returns the result and the server's request id
func (c *Client) Reconcile(ctx context.Context, doc *config.Document) (types.Result, string, error) {
	in, err := documentToStruct(doc)
	if err != nil {
		return types.Result{}, "", err
	}

	var header metadata.MD
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, reconcileMethod, in, out, grpc.Header(&header)); err != nil {
		return types.Result{}, "", err
	}

	var requestID string
	if ids := header.Get(RequestIDHeader); len(ids) > 0 {
		requestID = ids[0]
	}

	result, err := resultFromStruct(out)
	return result, requestID, err
}

func documentToStruct(doc *config.Document) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"host":      doc.HostName(),
		"interface": doc.Interface,
	}
	if doc.VFs != nil {
		fields["vfs"] = *doc.VFs
	}
	if doc.AllowedNetworks != "" {
		fields["allowed_networks"] = string(doc.AllowedNetworks)
	}
	if len(doc.Networks) > 0 {
		fields["networks"] = toList(doc.Networks)
	}
	if len(doc.Labels) > 0 {
		fields["labels"] = toList(doc.Labels)
	}
	if doc.CheckMode {
		fields["check_mode"] = true
	}

	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}
	return in, nil
}

func resultFromStruct(out *structpb.Struct) (types.Result, error) {
	data, err := protojson.Marshal(out)
	if err != nil {
		return types.Result{}, fmt.Errorf("failed to decode response: %v", err)
	}
	var result types.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return types.Result{}, fmt.Errorf("failed to decode response: %v", err)
	}
	return result, nil
}

func toList(values []string) []interface{} {
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}
