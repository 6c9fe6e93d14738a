// Package routerdealer implements the router/dealer load-balancing proxy
// and the reply worker that services requests behind it, including the
// panic-safe callback contract: a worker callback that panics is recovered,
// logged, and answered with an error reply sentinel rather than crashing
// the worker, grounded in the teacher's gRPC recovery interceptor.
package routerdealer

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/observability"
	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/auth"
)

// ProxyConfig configures a Proxy's two sides: the frontend, where clients
// connect with Req/Dealer sockets, and the backend, where Replier workers
// connect with Dealer sockets. SecurityLevel and Authenticator are the
// spec's ZAPOptions: the frontend Router socket is the one place in this
// proxy that sees a peer's routing identity, so that is where the ZAP
// handshake hook is enforced.
type ProxyConfig struct {
	FrontendAddress string
	BackendAddress  string
	Logger          logging.Logger
	SecurityLevel   auth.SecurityLevel
	Authenticator   *auth.Task
}

// Proxy load-balances requests arriving on a Router frontend across
// whichever Dealer-connected workers are available on its backend.
type Proxy struct {
	cfg      ProxyConfig
	frontend *transport.Socket
	backend  *transport.Socket

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewProxy constructs a Proxy bound to cfg, without starting it.
func NewProxy(ctx context.Context, cfg ProxyConfig) (*Proxy, error) {
	if cfg.FrontendAddress == "" || cfg.BackendAddress == "" {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "frontend and backend addresses are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}

	frontendOpts := transport.DefaultOptions()
	frontendOpts.SecurityLevel = cfg.SecurityLevel
	frontendOpts.Authenticator = cfg.Authenticator
	frontend, err := transport.NewSocket(ctx, transport.KindRouter, frontendOpts)
	if err != nil {
		return nil, err
	}
	backend, err := transport.NewSocket(ctx, transport.KindDealer, transport.DefaultOptions())
	if err != nil {
		frontend.Close()
		return nil, err
	}
	return &Proxy{cfg: cfg, frontend: frontend, backend: backend}, nil
}

// Start binds both sockets and forwards frames bidirectionally until ctx
// is canceled or Stop is called. It blocks until the proxy stops.
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

// StartBackground launches Start in a new goroutine.
func (p *Proxy) StartBackground(ctx context.Context) {
	go func() {
		if err := p.Start(ctx); err != nil {
			p.cfg.Logger.Error("router/dealer proxy exited", "error", err)
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
			p.cfg.Logger.Warn("router/dealer proxy receive error", "direction", label, "error", err)
			continue
		}
		if err := to.Send(frames...); err != nil {
			p.cfg.Logger.Warn("router/dealer proxy forward error", "direction", label, "error", err)
			continue
		}
		observability.RecordProxyForward("routerdealer", label)
	}
}

// Stop cancels the forwarding loops and waits for them to exit.
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

// IsRunning reports whether the proxy is actively forwarding.
func (p *Proxy) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Close releases both underlying sockets.
func (p *Proxy) Close() error {
	err1 := p.frontend.Close()
	err2 := p.backend.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// recoverCallback runs fn and converts a panic into an error, logging the
// stack trace the way the teacher's RecoveryInterceptor does.
func recoverCallback(logger logging.Logger, label string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("callback panic recovered", "callback", label, "panic", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
			err = umpserrors.New(umpserrors.KindAlgorithmFailure, fmt.Sprintf("callback %s panicked: %v", label, r))
		}
	}()
	return fn()
}
