// Package broadcast implements the XPub/XSub broadcast proxy: a fan-out
// bridge that lets any number of publishers and subscribers rendezvous
// without knowing each other's addresses, plus typed configuration
// wrappers for the DataPacket/Pick/Heartbeat message kinds this module
// ships.
package broadcast

import (
	"context"
	"sync"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/observability"
	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/auth"
)

// Config configures a Proxy's two sides: the frontend, where publishers
// connect, and the backend, where subscribers connect. SecurityLevel and
// Authenticator are the spec's ZAPOptions on the broadcast proxy; they are
// threaded onto the frontend socket's options so a future Router-style
// ingress (or a zmq4 release that exposes XSub peer identity) picks them up
// without a config shape change. Today's XSub/XPub sockets carry no peer
// routing identity at this transport's abstraction, so enforcement is
// effectively a no-op here — see DESIGN.md.
type Config struct {
	FrontendAddress string
	BackendAddress  string
	Logger          logging.Logger
	SecurityLevel   auth.SecurityLevel
	Authenticator   *auth.Task
}

// Proxy forwards traffic between an XSub frontend socket and an XPub
// backend socket: data frames flow frontend-to-backend, subscription
// control frames flow backend-to-frontend. Lifecycle follows the teacher's
// GracefulServer shape: Start/StartBackground/Stop/IsRunning.
type Proxy struct {
	cfg      Config
	frontend *transport.Socket
	backend  *transport.Socket

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewProxy constructs a Proxy bound to cfg, without starting it.
func NewProxy(ctx context.Context, cfg Config) (*Proxy, error) {
	if cfg.FrontendAddress == "" || cfg.BackendAddress == "" {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "frontend and backend addresses are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}

	frontendOpts := transport.DefaultOptions()
	frontendOpts.SecurityLevel = cfg.SecurityLevel
	frontendOpts.Authenticator = cfg.Authenticator
	frontend, err := transport.NewSocket(ctx, transport.KindXSub, frontendOpts)
	if err != nil {
		return nil, err
	}
	backend, err := transport.NewSocket(ctx, transport.KindXPub, transport.DefaultOptions())
	if err != nil {
		frontend.Close()
		return nil, err
	}

	return &Proxy{cfg: cfg, frontend: frontend, backend: backend}, nil
}

// Start binds both sockets and runs the forwarding loops until ctx is
// canceled or Stop is called. It blocks until the proxy stops.
func (p *Proxy) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return umpserrors.New(umpserrors.KindInvalidArgument, "proxy already running")
	}

	if err := p.frontend.Bind(p.cfg.FrontendAddress); err != nil {
		p.mu.Unlock()
		return err
	}
	if err := p.backend.Bind(p.cfg.BackendAddress); err != nil {
		p.mu.Unlock()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go p.pump(runCtx, &wg, p.frontend, p.backend, "frontend->backend")
	go p.pump(runCtx, &wg, p.backend, p.frontend, "backend->frontend")
	wg.Wait()

	p.mu.Lock()
	p.running = false
	close(p.done)
	p.mu.Unlock()
	return nil
}

// StartBackground launches Start in a new goroutine and returns
// immediately.
func (p *Proxy) StartBackground(ctx context.Context) {
	go func() {
		if err := p.Start(ctx); err != nil {
			p.cfg.Logger.Error("broadcast proxy exited", "error", err)
		}
	}()
}

func (p *Proxy) pump(ctx context.Context, wg *sync.WaitGroup, from, to *transport.Socket, label string) {
	defer wg.Done()
	for {
		frames, err := from.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.cfg.Logger.Warn("broadcast proxy receive error", "direction", label, "error", err)
			continue
		}
		if err := to.Send(frames...); err != nil {
			p.cfg.Logger.Warn("broadcast proxy forward error", "direction", label, "error", err)
			continue
		}
		observability.RecordProxyForward("broadcast", label)
	}
}

// Stop cancels the running forwarding loops and waits for them to exit.
func (p *Proxy) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done
}

// IsRunning reports whether the proxy's forwarding loops are active.
func (p *Proxy) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Close releases both underlying sockets. Stop should be called first if
// the proxy is running.
func (p *Proxy) Close() error {
	err1 := p.frontend.Close()
	err2 := p.backend.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
