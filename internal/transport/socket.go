// Package transport wraps github.com/go-zeromq/zmq4 behind the typed
// socket abstraction the rest of umps-go programs against: every other
// package imports transport, never zmq4 directly, the same layering the
// teacher keeps between coreengine/grpc and google.golang.org/grpc.
package transport

import (
	"context"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/auth"
)

// Kind identifies a ZeroMQ-style socket pattern.
type Kind int

const (
	KindPub Kind = iota
	KindSub
	KindXPub
	KindXSub
	KindRouter
	KindDealer
	KindReq
	KindRep
)

// Options configures a Socket at construction time. NewSocket applies only
// Identity to the underlying zmq4 socket; SendHWM, ReceiveHWM, Linger and
// ReceiveDeadline are stored on the Socket but not passed to zmq4.
type Options struct {
	Identity        string
	SendHWM         int
	ReceiveHWM      int
	Linger          time.Duration
	ReceiveDeadline time.Duration

	// SecurityLevel and Authenticator implement the spec's "authenticator
	// handshake hook on every socket that carries a non-Grasslands ZAP
	// configuration." Only meaningful on Router-kind sockets, the one
	// pattern in this module's transport layer whose leading frame is a
	// peer routing identity the hook can authenticate against; other
	// socket kinds carry no peer identity at this abstraction and ignore
	// both fields.
	SecurityLevel auth.SecurityLevel
	Authenticator *auth.Task
}

// DefaultOptions returns ZeroMQ's own default values: a high-water mark of
// 1000 in each direction and zero linger. These values are not applied to
// the zmq4 socket (see Options), so they do not bound its queues.
func DefaultOptions() Options {
	return Options{
		SendHWM:    1000,
		ReceiveHWM: 1000,
		Linger:     0,
	}
}

// Socket is the typed wrapper around a zmq4.Socket. It is not safe for
// concurrent Send/Receive from multiple goroutines simultaneously, matching
// ZeroMQ's own single-threaded-per-socket contract; callers that need
// concurrent access must serialize through a channel, as the broadcast and
// router/dealer proxies in this module do.
type Socket struct {
	kind   Kind
	sock   zmq4.Socket
	opts   Options
}

// NewSocket constructs a Socket of the given kind bound to ctx's lifetime.
func NewSocket(ctx context.Context, kind Kind, opts Options) (*Socket, error) {
	var sock zmq4.Socket
	switch kind {
	case KindPub:
		sock = zmq4.NewPub(ctx)
	case KindSub:
		sock = zmq4.NewSub(ctx)
	case KindXPub:
		sock = zmq4.NewXPub(ctx)
	case KindXSub:
		sock = zmq4.NewXSub(ctx)
	case KindRouter:
		sock = zmq4.NewRouter(ctx)
	case KindDealer:
		sock = zmq4.NewDealer(ctx)
	case KindReq:
		sock = zmq4.NewReq(ctx)
	case KindRep:
		sock = zmq4.NewRep(ctx)
	default:
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "unknown socket kind")
	}

	if opts.Identity != "" {
		if err := sock.SetOption(zmq4.OptionIdentity, opts.Identity); err != nil {
			return nil, umpserrors.Wrap(umpserrors.KindTransport, "setting socket identity", err)
		}
	}

	return &Socket{kind: kind, sock: sock, opts: opts}, nil
}

// Kind returns the socket's pattern.
func (s *Socket) Kind() Kind { return s.kind }

// Bind binds the socket to a local endpoint (e.g. "tcp://*:5555").
func (s *Socket) Bind(endpoint string) error {
	if err := s.sock.Listen(endpoint); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "binding to "+endpoint, err)
	}
	return nil
}

// Connect connects the socket to a remote endpoint.
func (s *Socket) Connect(endpoint string) error {
	if err := s.sock.Dial(endpoint); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "connecting to "+endpoint, err)
	}
	return nil
}

// Subscribe registers interest in messages with the given topic prefix.
// Only meaningful for Sub/XSub sockets; a zero-length topic subscribes to
// everything.
func (s *Socket) Subscribe(topic string) error {
	if err := s.sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "subscribing to topic", err)
	}
	return nil
}

// Unsubscribe removes a previously registered topic subscription.
func (s *Socket) Unsubscribe(topic string) error {
	if err := s.sock.SetOption(zmq4.OptionUnsubscribe, topic); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "unsubscribing from topic", err)
	}
	return nil
}

// Send transmits frames as a single multi-part message.
func (s *Socket) Send(frames ...[]byte) error {
	msg := zmq4.NewMsgFrom(frames...)
	if err := s.sock.Send(msg); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "sending frames", err)
	}
	return nil
}

// Receive blocks until a multi-part message from an admitted peer arrives
// and returns its frames. If ctx is canceled before a message arrives, it
// returns a Timeout-kind error. On a Router socket carrying a non-Grasslands
// Authenticator, a peer whose leading identity frame is denied has its
// message dropped and receiving continues, matching the spec's "transport
// drops the peer" failure mode instead of surfacing the denial as a reply.
func (s *Socket) Receive(ctx context.Context) ([][]byte, error) {
	for {
		frames, err := s.receiveOnce(ctx)
		if err != nil {
			return nil, err
		}
		admitted, err := s.admit(ctx, frames)
		if err != nil {
			return nil, err
		}
		if admitted {
			return frames, nil
		}
	}
}

func (s *Socket) receiveOnce(ctx context.Context) ([][]byte, error) {
	type result struct {
		msg zmq4.Msg
		err error
	}
	ch := make(chan result, 1)
	go func() {
		msg, err := s.sock.Recv()
		ch <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, umpserrors.Wrap(umpserrors.KindTimeout, "receive canceled", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, umpserrors.Wrap(umpserrors.KindTransport, "receiving frames", r.err)
		}
		return r.msg.Frames, nil
	}
}

// admit runs the ZAP handshake hook for a Router socket's leading identity
// frame against opts.Authenticator, when configured. Every other socket
// kind, or a Router with no Authenticator or a Grasslands security level,
// admits unconditionally.
func (s *Socket) admit(ctx context.Context, frames [][]byte) (bool, error) {
	if s.opts.Authenticator == nil || s.opts.SecurityLevel == auth.Grasslands {
		return true, nil
	}
	if s.kind != KindRouter || len(frames) == 0 {
		return true, nil
	}
	decision, err := s.opts.Authenticator.Authenticate(ctx, auth.Request{
		Address: string(frames[0]),
		Level:   s.opts.SecurityLevel,
	})
	if err != nil {
		return false, umpserrors.Wrap(umpserrors.KindAuthenticationDenied, "authenticating peer", err)
	}
	return decision.Allowed, nil
}

// Close releases the underlying socket.
func (s *Socket) Close() error {
	if err := s.sock.Close(); err != nil {
		return umpserrors.Wrap(umpserrors.KindTransport, "closing socket", err)
	}
	return nil
}
