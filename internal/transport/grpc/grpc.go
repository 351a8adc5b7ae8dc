// Package grpc implements the gRPC transport for lekha.
//
// The lekha.v1.Letters service is registered from a hand-written
// grpc.ServiceDesc and carries JSON payloads (see codec.go). The standard
// grpc.health.v1 service is served alongside it.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/lekha/internal/dispatch"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/transport"
	"github.com/nadzzz/lekha/internal/transport/validate"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lekha.v1.Letters"

// DetectRequest is the input of Letters/Detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// DetectResponse is the output of Letters/Detect.
type DetectResponse struct {
	Language message.Language `json:"language"`
}

// LettersServer is the server API for the Letters service.
type LettersServer interface {
	Generate(context.Context, *message.GenerateRequest) (*message.GenerateResult, error)
	Detect(context.Context, *DetectRequest) (*DetectResponse, error)
	Transform(context.Context, *message.TransformRequest) (*message.TransformResult, error)
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port int

	mu     sync.Mutex
	server *grpc.Server
	health *health.Server
	closed bool
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and serves requests from svc.
func (t *Transport) Listen(ctx context.Context, svc transport.Service) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, svc)
}

// Serve serves svc on lis until ctx is cancelled or Close is called. It
// returns nil without serving if the transport is already closed.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, svc transport.Service) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	srv.RegisterService(&lettersServiceDesc, &server{svc: svc, validate: validate.New()})

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = lis.Close()
		return nil
	}
	t.server, t.health = srv, hs
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server. A later Serve returns at once.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	srv, hs := t.server, t.health
	t.mu.Unlock()

	if hs != nil {
		hs.Shutdown()
	}
	if srv != nil {
		srv.GracefulStop()
	}
	return nil
}

// server adapts transport.Service to LettersServer.
type server struct {
	svc      transport.Service
	validate *validator.Validate
}

func (s *server) Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error) {
	if err := validate.Struct(s.validate, req); err != nil {
		return nil, toStatus(err)
	}
	res, err := s.svc.Generate(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return res, nil
}

func (s *server) Detect(_ context.Context, req *DetectRequest) (*DetectResponse, error) {
	return &DetectResponse{Language: s.svc.Detect(req.Text)}, nil
}

func (s *server) Transform(ctx context.Context, req *message.TransformRequest) (*message.TransformResult, error) {
	if err := validate.Struct(s.validate, req); err != nil {
		return nil, toStatus(err)
	}
	res, err := s.svc.Transform(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, dispatch.ErrEmptyInput), errors.Is(err, validate.ErrInvalid):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("grpc request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}

// --- Service descriptor ---

var lettersServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LettersServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
		{MethodName: "Detect", Handler: detectHandler},
		{MethodName: "Transform", Handler: transformHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lekha/v1/letters",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.GenerateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LettersServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Generate"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LettersServer).Generate(ctx, req.(*message.GenerateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func detectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DetectRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LettersServer).Detect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Detect"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LettersServer).Detect(ctx, req.(*DetectRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func transformHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.TransformRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LettersServer).Transform(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Transform"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LettersServer).Transform(ctx, req.(*message.TransformRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// --- Client ---

// Client calls the Letters service over conn using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Generate calls Letters/Generate.
func (c *Client) Generate(ctx context.Context, req *message.GenerateRequest) (*message.GenerateResult, error) {
	out := new(message.GenerateResult)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/Generate", req, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// Detect calls Letters/Detect.
func (c *Client) Detect(ctx context.Context, text string) (message.Language, error) {
	out := new(DetectResponse)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/Detect", &DetectRequest{Text: text}, out, grpc.CallContentSubtype(codecName)); err != nil {
		return "", err
	}
	return out.Language, nil
}

// Transform calls Letters/Transform.
func (c *Client) Transform(ctx context.Context, req message.TransformRequest) (*message.TransformResult, error) {
	out := new(message.TransformResult)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/Transform", &req, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}
