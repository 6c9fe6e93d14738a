package routerdealer

import (
	"context"
	"sync"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/internal/wire"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// Callback processes one decoded request message and returns the message to
// reply with. Callbacks must not panic; a panic is recovered by the
// Replier and answered with an error reply instead of crashing the worker.
type Callback func(ctx context.Context, request message.Message) (message.Message, error)

// ReplierConfig configures a Replier.
type ReplierConfig struct {
	// Address is the Dealer-connected backend a Proxy load-balances
	// requests across.
	Address  string
	Registry *message.Registry
	Logger   logging.Logger
}

// Replier is a worker that connects to a Proxy's backend with a Dealer
// socket and answers each request type it has a callback registered for.
type Replier struct {
	cfg       ReplierConfig
	sock      *transport.Socket
	callbacks map[string]Callback

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReplier constructs a Replier bound to cfg, without connecting it.
func NewReplier(ctx context.Context, cfg ReplierConfig) (*Replier, error) {
	if cfg.Address == "" {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "address is required")
	}
	if cfg.Registry == nil {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "registry is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	sock, err := transport.NewSocket(ctx, transport.KindDealer, transport.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return &Replier{cfg: cfg, sock: sock, callbacks: make(map[string]Callback)}, nil
}

// RegisterCallback binds fn to handle every request of messageType.
func (r *Replier) RegisterCallback(messageType string, fn Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[messageType] = fn
}

// Start connects the replier's socket and services requests until ctx is
// canceled or Stop is called. It blocks until the service loop exits.
func (r *Replier) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return umpserrors.New(umpserrors.KindInvalidArgument, "replier already running")
	}
	if err := r.sock.Connect(r.cfg.Address); err != nil {
		r.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.mu.Unlock()

	r.serve(runCtx)

	r.mu.Lock()
	r.running = false
	close(r.done)
	r.mu.Unlock()
	return nil
}

// StartBackground launches Start in a new goroutine.
func (r *Replier) StartBackground(ctx context.Context) {
	go func() {
		if err := r.Start(ctx); err != nil {
			r.cfg.Logger.Error("replier exited", "error", err)
		}
	}()
}

func (r *Replier) serve(ctx context.Context) {
	for {
		frames, err := r.sock.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.cfg.Logger.Warn("replier receive error", "error", err)
			continue
		}
		r.handle(ctx, frames)
	}
}

// handle processes one multi-part request. frames[:len-1] are routing
// identity envelopes prepended by the Dealer/Router chain and must be
// echoed back unchanged; frames[len-1] is the request payload. Every code
// path sends exactly one reply: a caller whose request can't be decoded or
// whose type has no callback still gets the standard InvalidMessageType
// response instead of silently timing out.
func (r *Replier) handle(ctx context.Context, frames [][]byte) {
	if len(frames) == 0 {
		return
	}
	envelope, payload := frames[:len(frames)-1], frames[len(frames)-1]

	request, err := wire.Decode(r.cfg.Registry, payload)
	if err != nil {
		r.cfg.Logger.Warn("replier decode error", "error", err)
		receivedType, _, _ := wire.PeekType(payload)
		r.reply(envelope, &message.InvalidMessageTypeResponse{ReceivedType: receivedType, Details: err.Error()})
		return
	}

	r.mu.Lock()
	callback, ok := r.callbacks[request.MessageType()]
	r.mu.Unlock()
	if !ok {
		r.cfg.Logger.Warn("no callback registered", "message_type", request.MessageType())
		r.reply(envelope, &message.InvalidMessageTypeResponse{
			ReceivedType: request.MessageType(),
			Details:      "no callback registered",
		})
		return
	}

	var response message.Message
	err = recoverCallback(r.cfg.Logger, request.MessageType(), func() error {
		var callbackErr error
		response, callbackErr = callback(ctx, request)
		return callbackErr
	})
	if err != nil {
		r.cfg.Logger.Error("replier callback failed", "message_type", request.MessageType(), "error", err)
		r.reply(envelope, &message.InvalidMessageTypeResponse{
			ReceivedType: request.MessageType(),
			Details:      err.Error(),
		})
		return
	}

	r.reply(envelope, response)
}

// reply marshals response, prefixes it with envelope, and sends it,
// falling back to an InvalidMessageTypeResponse if response itself fails to
// encode, so the caller still gets exactly one reply.
func (r *Replier) reply(envelope [][]byte, response message.Message) {
	reply, err := wire.Marshal(response)
	if err != nil {
		r.cfg.Logger.Error("replier encode error", "error", err)
		reply, err = wire.Marshal(&message.InvalidMessageTypeResponse{Details: "failed to encode response"})
		if err != nil {
			r.cfg.Logger.Error("replier fallback encode error", "error", err)
			return
		}
	}
	out := append(append([][]byte{}, envelope...), reply)
	if err := r.sock.Send(out...); err != nil {
		r.cfg.Logger.Error("replier send error", "error", err)
	}
}

// Stop cancels the service loop and waits for it to exit.
func (r *Replier) Stop() {
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

// IsRunning reports whether the replier's service loop is active.
func (r *Replier) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Close releases the replier's socket.
func (r *Replier) Close() error { return r.sock.Close() }
