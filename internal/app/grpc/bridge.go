package grpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/spounge-ai/rosetta/internal/domain"
)

const (
	ServiceName = "rosetta.bridge.v1.Bridge"

	MethodSend              = "/" + ServiceName + "/Send"
	MethodCommand           = "/" + ServiceName + "/Command"
	MethodUpdatePreferences = "/" + ServiceName + "/UpdatePreferences"
)

// SendRequest forwards one message from the popup to a context.
type SendRequest struct {
	// To is "background" or "tab:<id>".
	To      string          `json:"to"      validate:"required"`
	Message json.RawMessage `json:"message" validate:"required"`
}

type SendResponse struct {
	// Response is absent when the receiver sent none.
	Response json.RawMessage `json:"response,omitempty"`
}

type CommandRequest struct {
	Command string `json:"command" validate:"required"`
}

type CommandResponse struct {
	Handled bool `json:"handled"`
}

type UpdatePreferencesRequest struct {
	Patch domain.PreferencesProps `json:"patch"`
}

type PreferencesResponse struct {
	Preferences domain.PreferencesProps `json:"preferences"`
}

// BridgeServer is what the popup and the CLI call into the running
// background process.
type BridgeServer interface {
	Send(ctx context.Context, req *SendRequest) (*SendResponse, error)
	Command(ctx context.Context, req *CommandRequest) (*CommandResponse, error)
	UpdatePreferences(ctx context.Context, req *UpdatePreferencesRequest) (*PreferencesResponse, error)
}

func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&bridgeServiceDesc, srv)
}

var bridgeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Send", Handler: unaryHandler(MethodSend, BridgeServer.Send)},
		{MethodName: "Command", Handler: unaryHandler(MethodCommand, BridgeServer.Command)},
		{MethodName: "UpdatePreferences", Handler: unaryHandler(MethodUpdatePreferences, BridgeServer.UpdatePreferences)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rosetta/bridge/v1/bridge.json",
}

// unaryHandler adapts a BridgeServer method to grpc's method handler shape.
func unaryHandler[Req, Resp any](fullMethod string, call func(BridgeServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BridgeServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BridgeServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
