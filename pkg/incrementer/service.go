// Package incrementer implements the supplemental incrementer service from
// original_source's umps::services::incrementer::Service: a request/router
// service handing out monotonically increasing values per named item. It
// is the simplest possible consumer of pkg/reqrouter and was dropped by
// the distilled specification but kept faithful to the original here.
package incrementer

import (
	"context"
	"sync"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

// Service hands out the next integer value for any named item, starting
// at 1 the first time an item is requested.
type Service struct {
	mu     sync.Mutex
	values map[string]int64
	router *reqrouter.Router
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Address  string
	Registry *message.Registry
	Logger   logging.Logger
}

// NewService constructs a Service bound to cfg.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	router, err := reqrouter.NewRouter(ctx, reqrouter.RouterConfig{
		Address: cfg.Address, Registry: cfg.Registry, Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	s := &Service{values: make(map[string]int64), router: router}
	if err := router.RegisterCallback(message.IncrementRequestMessageType, s.handleIncrement); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) handleIncrement(ctx context.Context, req message.Message) (message.Message, error) {
	in := req.(*message.IncrementRequest)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[in.Item]++
	return &message.IncrementResponse{Item: in.Item, Value: s.values[in.Item]}, nil
}

// Start binds the service and blocks servicing requests until ctx is
// canceled or Stop is called.
func (s *Service) Start(ctx context.Context) error { return s.router.Start(ctx) }

// StartBackground runs Start in a new goroutine.
func (s *Service) StartBackground(ctx context.Context) { s.router.StartBackground(ctx) }

// Stop cancels the service loop.
func (s *Service) Stop() { s.router.Stop() }

// IsRunning reports whether the service is actively handling requests.
func (s *Service) IsRunning() bool { return s.router.IsRunning() }

// Close releases the service's socket.
func (s *Service) Close() error { return s.router.Close() }
