package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/spounge-ai/rosetta/internal/domain"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

// jsonCall selects the JSON codec. Health checks keep the proto codec.
var jsonCall = grpc.CallContentSubtype(codecName)

// Client is the popup side of the bridge.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the bridge described by cfg. Extra options are appended,
// which tests use to dial an in-memory listener.
func Dial(cfg config.ServerConfig, opts ...grpc.DialOption) (*Client, error) {
	creds := insecure.NewCredentials()
	if cfg.TLS.Enabled {
		tlsCreds, err := credentials.NewClientTLSFromFile(cfg.TLS.CertFile, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		creds = tlsCreds
	}

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bridge client: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Send forwards msg to the context at to and returns its raw reply.
func (c *Client) Send(ctx context.Context, to string, msg json.RawMessage) (json.RawMessage, error) {
	out := new(SendResponse)
	if err := c.conn.Invoke(ctx, MethodSend, &SendRequest{To: to, Message: msg}, out, jsonCall); err != nil {
		return nil, err
	}
	return out.Response, nil
}

func (c *Client) SendMessage(ctx context.Context, to string, msg messaging.Message) (json.RawMessage, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, to, raw)
}

func (c *Client) Command(ctx context.Context, cmd messaging.Command) (bool, error) {
	out := new(CommandResponse)
	if err := c.conn.Invoke(ctx, MethodCommand, &CommandRequest{Command: string(cmd)}, out, jsonCall); err != nil {
		return false, err
	}
	return out.Handled, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, patch domain.PreferencesProps) (domain.PreferencesProps, error) {
	out := new(PreferencesResponse)
	if err := c.conn.Invoke(ctx, MethodUpdatePreferences, &UpdatePreferencesRequest{Patch: patch}, out, jsonCall); err != nil {
		return domain.PreferencesProps{}, err
	}
	return out.Preferences, nil
}

// Healthy reports whether the bridge answers its health check as serving.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := grpc_health_v1.NewHealthClient(c.conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, err
	}
	return resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING, nil
}
