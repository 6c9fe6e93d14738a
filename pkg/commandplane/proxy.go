package commandplane

import (
	"context"
	"sync"
	"time"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/observability"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

// moduleRecord tracks one registered module's liveness.
type moduleRecord struct {
	info          message.RegistrationRequest
	state         LivenessState
	missedPings   int
	client        *reqrouter.Request
}

// ProxyConfig configures a Proxy.
type ProxyConfig struct {
	Registry *message.Registry
	Logger   logging.Logger
	// PingInterval is how often each registered module is pinged.
	PingInterval time.Duration
	// MaxMissedPings is how many consecutive missed pings move a module
	// from Alive/Missed to Dead.
	MaxMissedPings int
}

// Proxy is the remote half of the module command plane: it accepts
// RegistrationRequests, admits modules into its live table, and pings each
// on an interval, advancing the liveness state machine
// (Unknown -> Registering -> Alive <-> Missed -> Dead) as pings succeed or
// are missed.
type Proxy struct {
	cfg ProxyConfig

	mu      sync.Mutex
	modules map[string]*moduleRecord

	router  *reqrouter.Router
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewProxy constructs a Proxy bound to address for registration traffic.
func NewProxy(ctx context.Context, address string, cfg ProxyConfig) (*Proxy, error) {
	if cfg.Registry == nil {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 5 * time.Second
	}
	if cfg.MaxMissedPings <= 0 {
		cfg.MaxMissedPings = 3
	}

	router, err := reqrouter.NewRouter(ctx, reqrouter.RouterConfig{Address: address, Registry: cfg.Registry, Logger: cfg.Logger})
	if err != nil {
		return nil, err
	}

	p := &Proxy{cfg: cfg, modules: make(map[string]*moduleRecord), router: router}
	if err := router.RegisterCallback(message.RegistrationRequestMessageType, p.handleRegistration); err != nil {
		return nil, err
	}
	if err := router.RegisterCallback(message.AvailableModulesRequestMessageType, p.handleAvailableModules); err != nil {
		return nil, err
	}
	return p, nil
}

// handleAvailableModules lists every module this proxy currently tracks,
// alive or not, so a client can pick a target before issuing a CommandRequest
// against that module's own IPC endpoint.
func (p *Proxy) handleAvailableModules(ctx context.Context, req message.Message) (message.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	modules := make([]message.ModuleDetails, 0, len(p.modules))
	for _, rec := range p.modules {
		modules = append(modules, rec.info.Details)
	}
	return &message.AvailableModulesResponse{Modules: modules}, nil
}

func (p *Proxy) handleRegistration(ctx context.Context, req message.Message) (message.Message, error) {
	reg := req.(*message.RegistrationRequest)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.modules[reg.InstanceID]; exists {
		return &message.RegistrationResponse{ReturnCode: message.RegistrationExists}, nil
	}

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: reg.IPCAddress, Registry: p.cfg.Registry, Timeout: p.cfg.PingInterval,
	})
	if err != nil {
		return &message.RegistrationResponse{ReturnCode: message.RegistrationAlgorithmFailure, Details: err.Error()}, nil
	}

	p.modules[reg.InstanceID] = &moduleRecord{info: *reg, state: LivenessRegistering, client: client}
	return &message.RegistrationResponse{ReturnCode: message.RegistrationSuccess}, nil
}

// Start binds the registration router and launches the ping loop,
// blocking until ctx is canceled or Stop is called.
func (p *Proxy) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.pingLoop(runCtx)
	err := p.router.Start(runCtx)
	close(p.done)
	return err
}

// StartBackground runs Start in a new goroutine.
func (p *Proxy) StartBackground(ctx context.Context) {
	go func() {
		if err := p.Start(ctx); err != nil {
			p.cfg.Logger.Error("command plane proxy exited", "error", err)
		}
	}()
}

func (p *Proxy) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pingAll(ctx)
		}
	}
}

func (p *Proxy) pingAll(ctx context.Context) {
	p.mu.Lock()
	instanceIDs := make([]string, 0, len(p.modules))
	for id, rec := range p.modules {
		if rec.state == LivenessDead {
			continue
		}
		instanceIDs = append(instanceIDs, id)
	}
	p.mu.Unlock()

	for _, id := range instanceIDs {
		p.pingOne(ctx, id)
	}
}

func (p *Proxy) pingOne(ctx context.Context, instanceID string) {
	p.mu.Lock()
	rec, ok := p.modules[instanceID]
	p.mu.Unlock()
	if !ok {
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, p.cfg.PingInterval)
	defer cancel()
	start := time.Now()
	_, err := rec.client.Call(pingCtx, &message.PingRequest{InstanceID: instanceID})
	observability.RecordCommandDispatchDuration(rec.info.ModuleName, int(time.Since(start).Milliseconds()))

	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok = p.modules[instanceID]
	if !ok {
		return
	}
	if err == nil {
		rec.missedPings = 0
		rec.state = LivenessAlive
		return
	}

	rec.missedPings++
	if rec.missedPings >= p.cfg.MaxMissedPings {
		rec.state = LivenessDead
	} else {
		rec.state = LivenessMissed
	}
}

// State returns the current liveness state of instanceID, or
// LivenessUnknown if it was never registered.
func (p *Proxy) State(instanceID string) LivenessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.modules[instanceID]
	if !ok {
		return LivenessUnknown
	}
	return rec.state
}

// Stop cancels the ping loop and the registration router.
func (p *Proxy) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.router.Stop()
}

// Close releases every module client and the registration router's socket.
func (p *Proxy) Close() error {
	p.mu.Lock()
	for _, rec := range p.modules {
		rec.client.Close()
	}
	p.mu.Unlock()
	return p.router.Close()
}
