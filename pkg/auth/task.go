package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/uofuseismo/umps-go/internal/logging"
)

// Request is what a socket's ZAP handshake hook issues to the background
// authenticator task for one new peer, per the runtime model: "the
// transport issues a request with the peer's IP, ZAP domain, and
// credentials/key; the authenticator replies with status and user
// metadata."
type Request struct {
	Address     string
	Domain      string
	Level       SecurityLevel
	Credentials *Credentials
	Keys        *Keys
}

// Task runs an Authenticator on a dedicated goroutine reachable only
// through its request channel, modeling the spec's "background
// authenticator task bound to an in-process authentication endpoint." If
// the authenticator panics while servicing a request the task stops
// accepting new requests and records the panic as fatal, since a service
// that can no longer authenticate peers must not keep admitting them.
type Task struct {
	authenticator Authenticator
	logger        logging.Logger
	requests      chan taskRequest

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	fatal   error
}

type taskRequest struct {
	req   Request
	reply chan Decision
}

// NewTask constructs a Task around authenticator. The task does nothing
// until Start is called.
func NewTask(authenticator Authenticator, logger logging.Logger) *Task {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Task{authenticator: authenticator, logger: logger, requests: make(chan taskRequest, 64)}
}

// Start launches the task's service loop in a new goroutine, bound to
// ctx's lifetime.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true
	t.mu.Unlock()

	go t.run(runCtx)
}

func (t *Task) run(ctx context.Context) {
	defer func() {
		t.mu.Lock()
		t.running = false
		close(t.done)
		t.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("authenticator task panicked: %v", r)
			t.mu.Lock()
			t.fatal = err
			t.mu.Unlock()
			t.logger.Error("authenticator task stopped fatally", "panic", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case tr := <-t.requests:
			decision := Authenticate(t.authenticator, tr.req.Level, tr.req.Address, tr.req.Credentials, tr.req.Keys)
			if decision.Allowed {
				t.logger.Debug("authenticator admitted peer", "address", tr.req.Address, "level", tr.req.Level.String())
			} else {
				t.logger.Warn("authenticator denied peer", "address", tr.req.Address, "level", tr.req.Level.String(), "status", decision.Status, "message", decision.Message)
			}
			tr.reply <- decision
		}
	}
}

// Stop cancels the service loop and waits for it to exit.
func (t *Task) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()
	cancel()
	<-done
}

// IsRunning reports whether the task's service loop is active.
func (t *Task) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Err reports the fatal error that stopped the task, if servicing a
// request ever panicked.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fatal
}

// Authenticate submits req to the background task and blocks for its
// Decision, or returns ctx.Err() if ctx is canceled first.
func (t *Task) Authenticate(ctx context.Context, req Request) (Decision, error) {
	tr := taskRequest{req: req, reply: make(chan Decision, 1)}
	select {
	case t.requests <- tr:
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
	select {
	case d := <-tr.reply:
		return d, nil
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}
