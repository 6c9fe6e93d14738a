// Package reqrouter implements synchronous request/router RPC: a Request
// client that sends one message and waits for exactly one reply within a
// timeout, and a Router service that dispatches requests by message type
// to registered handlers. The timeout pattern is grounded directly on
// commbus's QuerySync: a context.WithTimeout plus a result channel raced
// against timeoutCtx.Done().
package reqrouter

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uofuseismo/umps-go/internal/observability"
	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/internal/wire"
	"github.com/uofuseismo/umps-go/pkg/message"
)

var tracer = otel.Tracer("github.com/uofuseismo/umps-go/pkg/reqrouter")

// RequestConfig configures a Request client.
type RequestConfig struct {
	Address  string
	Registry *message.Registry
	Timeout  time.Duration
}

// DefaultTimeout is a convenience value callers may assign to
// RequestConfig.Timeout; it carries no special meaning to Request itself.
// RequestConfig.Timeout has three distinct behaviors: negative blocks
// indefinitely (until ctx is canceled), zero sends the request and returns
// a timeout immediately without waiting for a reply (any reply that arrives
// later is dropped), and positive bounds the wait to that duration.
const DefaultTimeout = 5 * time.Second

// Request is a synchronous RPC client: one Send/Receive pair per call,
// serialized by a mutex since a single Req socket may not interleave calls.
type Request struct {
	cfg  RequestConfig
	sock *transport.Socket
	mu   sync.Mutex
}

// NewRequest constructs a Request client connected to cfg.Address.
func NewRequest(ctx context.Context, cfg RequestConfig) (*Request, error) {
	if cfg.Address == "" {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "address is required")
	}
	if cfg.Registry == nil {
		return nil, umpserrors.New(umpserrors.KindInvalidArgument, "registry is required")
	}
	sock, err := transport.NewSocket(ctx, transport.KindReq, transport.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if err := sock.Connect(cfg.Address); err != nil {
		sock.Close()
		return nil, err
	}
	return &Request{cfg: cfg, sock: sock}, nil
}

// Call sends req and waits for a reply per cfg.Timeout's three-way
// contract: a negative timeout blocks until ctx is canceled, zero returns a
// timeout right after sending, and a positive duration bounds the wait. A
// timeout produces a KindTimeout error, matching commbus's
// QueryTimeoutError contract: the overall observed latency stays within
// roughly ±10% of the configured timeout because the only added overhead
// is encode/decode.
func (r *Request) Call(ctx context.Context, req message.Message) (msg message.Message, callErr error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "reqrouter.Request.Call",
		traceAttrs(req.MessageType())...)
	defer func() {
		status := "ok"
		if callErr != nil {
			status = "error"
			if umpserrors.Is(callErr, umpserrors.KindTimeout) {
				status = "timeout"
			}
			span.SetStatus(codes.Error, callErr.Error())
		}
		observability.RecordRequestDuration(req.MessageType(), status, int(time.Since(start).Milliseconds()))
		span.End()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := wire.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := r.sock.Send(data); err != nil {
		return nil, err
	}

	var timeoutCtx context.Context
	var cancel context.CancelFunc
	switch {
	case r.cfg.Timeout < 0:
		timeoutCtx, cancel = context.WithCancel(ctx)
	case r.cfg.Timeout == 0:
		timeoutCtx, cancel = context.WithTimeout(ctx, 0)
	default:
		timeoutCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	}
	defer cancel()

	type result struct {
		frames [][]byte
		err    error
	}
	resultCh := make(chan result, 1)
	go func() {
		frames, err := r.sock.Receive(timeoutCtx)
		resultCh <- result{frames: frames, err: err}
	}()

	select {
	case <-timeoutCtx.Done():
		return nil, umpserrors.New(umpserrors.KindTimeout, "request timed out")
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		if len(res.frames) == 0 {
			return nil, umpserrors.New(umpserrors.KindInvalidMessage, "empty reply")
		}
		return wire.Decode(r.cfg.Registry, res.frames[0])
	}
}

// Close releases the underlying socket.
func (r *Request) Close() error { return r.sock.Close() }

func traceAttrs(messageType string) []trace.SpanStartOption {
	return []trace.SpanStartOption{
		trace.WithAttributes(attribute.String("umps.message_type", messageType)),
	}
}
