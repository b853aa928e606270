package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the gRPC service exposed by the model server.
	ServiceName = "mindcare.v1.Classifier"
	// PredictMethod is the full method name of the unary Predict call.
	PredictMethod = "/" + ServiceName + "/Predict"
)

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
)

// GrpcClientConfig holds configuration for the model server client.
type GrpcClientConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	RequestTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGrpcClientConfig returns default configuration for addr.
func DefaultGrpcClientConfig(addr string) GrpcClientConfig {
	return GrpcClientConfig{
		Address:          addr,
		ConnectTimeout:   5 * time.Second,
		RequestTimeout:   5 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// GrpcClient asks a remote model server for replies. Predict falls back to a
// local predictor whenever the remote call fails.
type GrpcClient struct {
	conn     *grpc.ClientConn
	cfg      GrpcClientConfig
	fallback Predictor
	logger   *slog.Logger
}

// NewGrpcClient connects to the model server and waits until it is ready.
func NewGrpcClient(cfg GrpcClientConfig, fallback Predictor, logger *slog.Logger, opts ...grpc.DialOption) (*GrpcClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		return nil, errors.New("classifier: fallback predictor is required")
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    cfg.KeepaliveTime,
			Timeout: cfg.KeepaliveTimeout,
		}),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create classifier client for %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close classifier connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("classifier at %s not ready: %w", cfg.Address, err)
	}

	logger.Info("Connected to classifier service", "address", cfg.Address)
	return &GrpcClient{conn: conn, cfg: cfg, fallback: fallback, logger: logger}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Predict asks the model server for a reply.
func (c *GrpcClient) Predict(ctx context.Context, text string) string {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(reqCtx, PredictMethod, wrapperspb.String(text), out); err != nil {
		c.logger.Warn("Classifier call failed, using local rules", "error", err)
		return c.fallback.Predict(ctx, text)
	}
	return out.GetValue()
}

// Close releases the connection.
func (c *GrpcClient) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("close classifier connection: %w", err)
	}
	return nil
}

// RegisterServer exposes p on s as the Classifier service. Model servers
// written in Go, and tests, use it to serve the same wire contract the client
// speaks.
func RegisterServer(s *grpc.Server, p Predictor) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*Predictor)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Predict",
			Handler:    predictHandler,
		}},
		Metadata: "mindcare/v1/classifier.proto",
	}, p)
}

func predictHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	p := srv.(Predictor)
	if interceptor == nil {
		return wrapperspb.String(p.Predict(ctx, in.GetValue())), nil
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PredictMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return wrapperspb.String(p.Predict(ctx, req.(*wrapperspb.StringValue).GetValue())), nil
	}
	return interceptor(ctx, in, info, handler)
}
