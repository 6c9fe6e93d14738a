package connectioninfo

import (
	"context"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

// Service exposes a Registry over the request/router pattern so remote
// clients can enumerate the cluster's reachable endpoints without direct
// access to the process holding the in-memory Registry.
type Service struct {
	registry *Registry
	router   *reqrouter.Router
}

// NewService constructs a Service backed by registry, bound to address.
// reg must already have RegisterMessages applied.
func NewService(ctx context.Context, registry *Registry, reg *message.Registry, address string, logger logging.Logger) (*Service, error) {
	router, err := reqrouter.NewRouter(ctx, reqrouter.RouterConfig{Address: address, Registry: reg, Logger: logger})
	if err != nil {
		return nil, err
	}
	s := &Service{registry: registry, router: router}
	if err := router.RegisterCallback(RequestMessageType, s.handleRequest); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) handleRequest(ctx context.Context, req message.Message) (message.Message, error) {
	return &Response{Connections: s.registry.List()}, nil
}

// Start binds the service's router and blocks until ctx is canceled or
// Stop is called.
func (s *Service) Start(ctx context.Context) error { return s.router.Start(ctx) }

// StartBackground runs Start in a new goroutine.
func (s *Service) StartBackground(ctx context.Context) { s.router.StartBackground(ctx) }

// Stop cancels the service's router loop.
func (s *Service) Stop() { s.router.Stop() }

// IsRunning reports whether the service is actively handling requests.
func (s *Service) IsRunning() bool { return s.router.IsRunning() }

// Close releases the service's underlying socket.
func (s *Service) Close() error { return s.router.Close() }
