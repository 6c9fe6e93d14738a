package reqrouter

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel/codes"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/internal/wire"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// RouterCallback answers one decoded request. Like routerdealer.Callback,
// it must not panic; a panic is recovered and answered with an
// InvalidMessageTypeResponse carrying the error, rather than a crashed
// service.
type RouterCallback func(ctx context.Context, request message.Message) (message.Message, error)

// RouterConfig configures a Router service.
type RouterConfig struct {
	Address  string
	Registry *message.Registry
	Logger   logging.Logger
}

// Router services synchronous Request calls: it binds a Rep socket and
// dispatches each request by message type to a registered RouterCallback.
type Router struct {
	cfg       RouterConfig
	sock      *transport.Socket
	callbacks map[string]RouterCallback

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRouter constructs a Router bound to cfg, without binding it.
func NewRouter(ctx context.Context, cfg RouterConfig) (*Router, error) {
	if cfg.Address == "" {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "address is required")
	}
	if cfg.Registry == nil {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	sock, err := transport.NewSocket(ctx, transport.KindRep, transport.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return &Router{cfg: cfg, sock: sock, callbacks: make(map[string]RouterCallback)}, nil
}

// RegisterCallback binds fn to handle every request of messageType. It
// returns an error if messageType already has a registered callback,
// matching the Message Registry's uniqueness guarantee.
func (r *Router) RegisterCallback(messageType string, fn RouterCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[messageType]; exists {
		return umpserrors.New(umpserrors.KindInvalidArgument, "callback already registered for "+messageType)
	}
	r.callbacks[messageType] = fn
	return nil
}

// Start binds the socket and services requests until ctx is canceled or
// Stop is called. It blocks until the service loop exits.
func (r *Router) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return umpserrors.New(umpserrors.KindInvalidArgument, "router already running")
	}
	if err := r.sock.Bind(r.cfg.Address); err != nil {
		r.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.mu.Unlock()

	for {
		frames, err := r.sock.Receive(runCtx)
		if err != nil {
			if runCtx.Err() != nil {
				break
			}
			r.cfg.Logger.Warn("router receive error", "error", err)
			continue
		}
		r.handle(runCtx, frames)
	}

	r.mu.Lock()
	r.running = false
	close(r.done)
	r.mu.Unlock()
	return nil
}

// StartBackground launches Start in a new goroutine.
func (r *Router) StartBackground(ctx context.Context) {
	go func() {
		if err := r.Start(ctx); err != nil {
			r.cfg.Logger.Error("router exited", "error", err)
		}
	}()
}

// handle always sends exactly one reply, even on decode failure or a
// missing callback: the bound Rep socket enforces strict recv/send
// alternation, so returning without a Send would desync it and hang every
// later request on this Router.
func (r *Router) handle(ctx context.Context, frames [][]byte) {
	if len(frames) == 0 {
		return
	}
	request, err := wire.Decode(r.cfg.Registry, frames[0])
	if err != nil {
		r.cfg.Logger.Warn("router decode error", "error", err)
		r.reply(invalidMessageTypeReply(frames[0], err))
		return
	}

	r.mu.Lock()
	callback, ok := r.callbacks[request.MessageType()]
	r.mu.Unlock()
	if !ok {
		r.cfg.Logger.Warn("no callback registered", "message_type", request.MessageType())
		r.reply(&message.InvalidMessageTypeResponse{
			ReceivedType: request.MessageType(),
			Details:      "no callback registered",
		})
		return
	}

	response, err := r.invoke(ctx, callback, request)
	if err != nil {
		r.cfg.Logger.Error("router callback failed", "message_type", request.MessageType(), "error", err)
		r.reply(&message.InvalidMessageTypeResponse{
			ReceivedType: request.MessageType(),
			Details:      err.Error(),
		})
		return
	}

	r.reply(response)
}

// reply marshals response and sends it, falling back to an
// InvalidMessageTypeResponse if response itself fails to encode, so the
// socket still receives exactly one reply per request.
func (r *Router) reply(response message.Message) {
	reply, err := wire.Marshal(response)
	if err != nil {
		r.cfg.Logger.Error("router encode error", "error", err)
		reply, err = wire.Marshal(&message.InvalidMessageTypeResponse{Details: "failed to encode response"})
		if err != nil {
			r.cfg.Logger.Error("router fallback encode error", "error", err)
			return
		}
	}
	if err := r.sock.Send(reply); err != nil {
		r.cfg.Logger.Error("router send error", "error", err)
	}
}

// invalidMessageTypeReply peeks the attempted message type out of an
// undecodable payload so the standard response can at least name what it
// could not handle.
func invalidMessageTypeReply(payload []byte, decodeErr error) *message.InvalidMessageTypeResponse {
	receivedType, _, _ := wire.PeekType(payload)
	return &message.InvalidMessageTypeResponse{ReceivedType: receivedType, Details: decodeErr.Error()}
}

func (r *Router) invoke(ctx context.Context, callback RouterCallback, request message.Message) (response message.Message, err error) {
	ctx, span := tracer.Start(ctx, "reqrouter.Router.invoke", traceAttrs(request.MessageType())...)
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	defer func() {
		if p := recover(); p != nil {
			r.cfg.Logger.Error("router callback panic recovered",
				"message_type", request.MessageType(),
				"panic", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()))
			err = umpserrors.New(umpserrors.KindAlgorithmFailure, fmt.Sprintf("callback panicked: %v", p))
		}
	}()
	return callback(ctx, request)
}

// Stop cancels the service loop and waits for it to exit.
func (r *Router) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()
	cancel()
	<-done
}

// Address returns the endpoint the router is configured to bind.
func (r *Router) Address() string { return r.cfg.Address }

// IsRunning reports whether the router's service loop is active.
func (r *Router) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close releases the router's socket.
func (r *Router) Close() error { return r.sock.Close() }
