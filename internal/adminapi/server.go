// Package adminapi exposes a read-only administrative gRPC surface over
// the connection information registry and the module command plane's
// liveness table, for external dashboards and tooling independent of the
// ZMQ control plane clients use. Lifecycle and interceptor wiring are
// ported from the teacher's coreengine/grpc package (GracefulServer,
// logging/recovery interceptor chain); the service surface itself is the
// standard gRPC health-checking protocol (grpc_health_v1), which ships
// pre-generated inside google.golang.org/grpc and lets every registered
// umps-go component (connection information service, packet cache,
// command plane) report SERVING/NOT_SERVING without this module hand
// authoring and compiling its own .proto service.
package adminapi

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/pkg/commandplane"
	"github.com/uofuseismo/umps-go/pkg/connectioninfo"
)

// Logger is the interface the admin server logs through, the same shape
// coreengine/grpc.Logger uses.
type Logger = logging.Logger

// Server is a GracefulServer-shaped gRPC host for the health-checking
// service, fed by a connectioninfo.Registry and a commandplane.Proxy.
type Server struct {
	logger Logger
	health *health.Server

	mu         sync.Mutex
	listener   net.Listener
	grpcServer *grpc.Server
}

// NewServer constructs a Server with an empty health table; callers fill it
// through SyncConnectionInfo and SyncModuleLiveness.
func NewServer(logger Logger) *Server {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Server{logger: logger, health: health.NewServer()}
}

// SyncConnectionInfo sets every connection currently in registry to
// SERVING, the way a health check would reflect the connection
// information service's live directory.
func (s *Server) SyncConnectionInfo(registry *connectioninfo.Registry) {
	for _, d := range registry.List() {
		s.health.SetServingStatus(d.Name, healthpb.HealthCheckResponse_SERVING)
	}
}

// SyncModuleLiveness reports instanceID's health status based on proxy's
// liveness state machine: Alive maps to SERVING, Dead to NOT_SERVING,
// anything else to UNKNOWN.
func (s *Server) SyncModuleLiveness(proxy *commandplane.Proxy, instanceID string) {
	switch proxy.State(instanceID) {
	case commandplane.LivenessAlive:
		s.health.SetServingStatus(instanceID, healthpb.HealthCheckResponse_SERVING)
	case commandplane.LivenessDead:
		s.health.SetServingStatus(instanceID, healthpb.HealthCheckResponse_NOT_SERVING)
	default:
		s.health.SetServingStatus(instanceID, healthpb.HealthCheckResponse_UNKNOWN)
	}
}

// Start binds address and serves until the listener is closed or Stop is
// called. It blocks until the server stops.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("adminapi: listening on %s: %w", address, err)
	}

	grpcServer := grpc.NewServer(s.serverOptions()...)
	healthpb.RegisterHealthServer(grpcServer, s.health)

	s.mu.Lock()
	s.listener = listener
	s.grpcServer = grpcServer
	s.mu.Unlock()

	s.logger.Info("adminapi server starting", "address", address)
	return grpcServer.Serve(listener)
}

// StartBackground launches Start in a new goroutine.
func (s *Server) StartBackground(address string) {
	go func() {
		if err := s.Start(address); err != nil {
			s.logger.Error("adminapi server exited", "error", err)
		}
	}()
}

// GracefulStop stops accepting new RPCs and waits for in-flight ones to
// finish, the same semantics as the teacher's GracefulServer.GracefulStop.
func (s *Server) GracefulStop() {
	s.mu.Lock()
	server := s.grpcServer
	s.mu.Unlock()
	if server != nil {
		server.GracefulStop()
	}
}

// ShutdownWithTimeout calls GracefulStop, falling back to a hard Stop if it
// doesn't complete within timeout.
func (s *Server) ShutdownWithTimeout(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.mu.Lock()
		server := s.grpcServer
		s.mu.Unlock()
		if server != nil {
			server.Stop()
		}
	}
}

// Addr returns the address the server is currently listening on, or nil if
// Start has not yet bound a listener.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) serverOptions() []grpc.ServerOption {
	unary := chainUnary(recoveryInterceptor(s.logger), loggingInterceptor(s.logger))
	return []grpc.ServerOption{
		grpc.UnaryInterceptor(unary),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}
}

func loggingInterceptor(logger Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			st, _ := status.FromError(err)
			logger.Error("adminapi request failed", "method", info.FullMethod, "duration_ms", duration.Milliseconds(), "code", st.Code().String())
		} else {
			logger.Debug("adminapi request completed", "method", info.FullMethod, "duration_ms", duration.Milliseconds())
		}
		return resp, err
	}
}

func recoveryInterceptor(logger Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("adminapi panic recovered", "method", info.FullMethod, "panic", fmt.Sprintf("%v", p), "stack", string(debug.Stack()))
				err = status.Errorf(codes.Internal, "panic recovered: %v", p)
			}
		}()
		return handler(ctx, req)
	}
}

func chainUnary(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			current := chain
			chain = func(ctx context.Context, req interface{}) (interface{}, error) {
				return interceptor(ctx, req, info, current)
			}
		}
		return chain(ctx, req)
	}
}
