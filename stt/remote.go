package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// transcribeRequest/transcribeResponse are the JSON payload exchanged
// with a remote transcription service, over either transport.
type transcribeRequest struct {
	APIKey     string    `json:"apiKey,omitempty"`
	Samples    []float32 `json:"samples"`
	Device     string    `json:"device"`
	SampleRate int       `json:"sampleRate"`
	Languages  []string  `json:"languages,omitempty"`
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// remoteJSONCodec lets the gRPC client exchange plain JSON instead of
// protobuf, the same trick internal/api/grpc_service.go's jsonCodec
// uses server-side to avoid a protoc step.
type remoteJSONCodec struct{}

func (remoteJSONCodec) Name() string { return "json" }
func (remoteJSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
func (remoteJSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(remoteJSONCodec{})
}

// grpcRemoteClient calls a remote transcription service's unary
// "Transcribe" method using a hand-written method path instead of a
// protoc-generated stub, mirroring the server's hand-written
// grpc.ServiceDesc.
type grpcRemoteClient struct {
	conn *grpc.ClientConn
}

// NewRemoteClient dials addr and returns a RemoteClient. addr must be
// "grpc://host:port" or "ws://host:port/path" (or "wss://").
func NewRemoteClient(ctx context.Context, addr string) (RemoteClient, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("invalid RemoteAddr %q: %v", addr, err)}
	}

	switch u.Scheme {
	case "grpc":
		conn, err := grpc.Dial(u.Host, //nolint:staticcheck // mirrors internal/api's own hand-written JSON-codec dial
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.ForceCodec(remoteJSONCodec{})),
		)
		if err != nil {
			return nil, fmt.Errorf("dialing remote gRPC %s: %w", addr, err)
		}
		return &grpcRemoteClient{conn: conn}, nil
	case "ws", "wss":
		return &wsRemoteClient{url: addr}, nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported RemoteAddr scheme %q (want grpc/ws/wss)", u.Scheme)}
	}
}

func (c *grpcRemoteClient) TranscribeRemote(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	req := &transcribeRequest{
		APIKey:     opts.APIKey,
		Samples:    samples,
		Device:     opts.Device.String(),
		SampleRate: sampleRate,
		Languages:  opts.Languages,
	}
	resp := &transcribeResponse{}
	if err := c.conn.Invoke(ctx, "/aiwisper.Transcription/Transcribe", req, resp); err != nil {
		return "", fmt.Errorf("remote transcribe rpc: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("remote transcribe: %s", resp.Error)
	}
	return resp.Text, nil
}

// wsRemoteClient is the alternate transport for deployments without a
// gRPC-reachable endpoint: one request/response JSON message per call
// over a freshly dialed websocket connection.
type wsRemoteClient struct {
	url string
}

func (c *wsRemoteClient) TranscribeRemote(ctx context.Context, samples []float32, sampleRate int, opts TranscribeOptions) (string, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("dialing remote websocket %s: %w", c.url, err)
	}
	defer conn.Close()

	req := transcribeRequest{
		APIKey:     opts.APIKey,
		Samples:    samples,
		Device:     opts.Device.String(),
		SampleRate: sampleRate,
		Languages:  opts.Languages,
	}
	if err := conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("writing websocket request: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	var resp transcribeResponse
	if err := conn.ReadJSON(&resp); err != nil {
		return "", fmt.Errorf("reading websocket response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("remote transcribe: %s", resp.Error)
	}
	return resp.Text, nil
}

// remoteAddrLooksValid lets Config.Validate fail fast on an obviously
// malformed RemoteAddr before Create ever tries to dial it.
func remoteAddrLooksValid(addr string) bool {
	return strings.HasPrefix(addr, "grpc://") ||
		strings.HasPrefix(addr, "ws://") ||
		strings.HasPrefix(addr, "wss://")
}
