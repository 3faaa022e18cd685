// Package grpc implements the gRPC transport for glados.
//
// The Speech service has a single unary method, glados.v1.Speech/Say, taking
// the text as a google.protobuf.StringValue and returning the WAV file as a
// google.protobuf.BytesValue. Request metadata is returned in response
// headers. The standard health and reflection services are registered on the
// same server.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nadzzz/glados/internal/message"
	"github.com/nadzzz/glados/internal/transport"
)

// ServiceName is the fully qualified name of the speech service.
const ServiceName = "glados.v1.Speech"

// SayMethod is the full method name of Say.
const SayMethod = "/" + ServiceName + "/Say"

// Response header keys.
const (
	HeaderMessageID  = "x-glados-message-id"
	HeaderLines      = "x-glados-lines"
	HeaderSkipped    = "x-glados-skipped"
	HeaderSampleRate = "x-glados-sample-rate"
	metadataSource   = "x-glados-source"
)

// speechServer is the interface the service descriptor dispatches to.
type speechServer interface {
	Say(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

func sayHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(speechServer).Say(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SayMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(speechServer).Say(ctx, req.(*wrapperspb.StringValue))
	})
}

var speechServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*speechServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Say", Handler: sayHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "glados/v1/speech.proto",
}

type service struct {
	handler transport.Handler
}

func (s *service) Say(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if strings.TrimSpace(in.GetValue()) == "" {
		return nil, status.Error(codes.InvalidArgument, "text is empty")
	}

	msg := &message.Message{Text: in.GetValue(), Source: "grpc", ResponseMode: message.ResponseModeAudio}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(metadataSource); len(v) > 0 && v[0] != "" {
			msg.Source = v[0]
		}
	}

	result, err := s.handler(ctx, msg)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, status.FromContextError(err).Err()
		}
		slog.Error("grpc say failed", "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}

	_ = grpc.SetHeader(ctx, metadata.Pairs(
		HeaderMessageID, result.MessageID,
		HeaderLines, strconv.Itoa(result.Lines),
		HeaderSkipped, strconv.Itoa(result.Skipped),
		HeaderSampleRate, strconv.Itoa(result.SampleRate),
	))

	if result.Error != "" {
		if result.Lines == 0 {
			return nil, status.Error(codes.FailedPrecondition, result.Error)
		}
		return nil, status.Error(codes.Internal, result.Error)
	}

	audio, err := result.AudioBytes()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(audio), nil
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve runs the server on an existing listener until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.server = grpc.NewServer()
	t.server.RegisterService(&speechServiceDesc, &service{handler: handler})

	t.health = health.NewServer()
	healthpb.RegisterHealthServer(t.server, t.health)
	t.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(t.server)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.Close()
	}()

	if err := t.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.health != nil {
		t.health.Shutdown()
	}
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}
