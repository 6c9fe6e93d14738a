package broadcast

import (
	"context"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/observability"
	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/wire"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// Publisher sends typed messages on a Pub (or XSub-facing Dealer-less Pub)
// socket, framed as [topic, envelope] so subscribers can filter on topic
// without decoding the payload.
type Publisher struct {
	sock *transport.Socket
}

// NewPublisher creates a Publisher connected to address. Publishers
// connect to a broadcast Proxy's frontend rather than binding directly, so
// many publishers can share one fan-out point.
func NewPublisher(ctx context.Context, address string) (*Publisher, error) {
	sock, err := transport.NewSocket(ctx, transport.KindPub, transport.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if err := sock.Connect(address); err != nil {
		sock.Close()
		return nil, err
	}
	return &Publisher{sock: sock}, nil
}

// Publish sends msg tagged with topic.
func (p *Publisher) Publish(topic string, msg message.Message) error {
	data, err := wire.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.sock.Send([]byte(topic), data); err != nil {
		return err
	}
	observability.RecordMessagePublished(msg.MessageType())
	return nil
}

// Close releases the publisher's socket.
func (p *Publisher) Close() error { return p.sock.Close() }

// Subscriber receives typed messages from a Sub (or XPub-facing backend)
// socket, decoding each frame pair via a message.Registry.
type Subscriber struct {
	sock   *transport.Socket
	reg    *message.Registry
	logger logging.Logger
}

// NewSubscriber creates a Subscriber connected to address, subscribed to
// topic (empty string subscribes to everything).
func NewSubscriber(ctx context.Context, address, topic string, reg *message.Registry, logger logging.Logger) (*Subscriber, error) {
	if logger == nil {
		logger = logging.Noop()
	}
	sock, err := transport.NewSocket(ctx, transport.KindSub, transport.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if err := sock.Connect(address); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Subscribe(topic); err != nil {
		sock.Close()
		return nil, err
	}
	return &Subscriber{sock: sock, reg: reg, logger: logger}, nil
}

// Receive blocks for the next message, returning its topic and decoded
// payload.
func (s *Subscriber) Receive(ctx context.Context) (topic string, msg message.Message, err error) {
	frames, err := s.sock.Receive(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(frames) < 2 {
		return "", nil, nil
	}
	decoded, err := wire.Decode(s.reg, frames[1])
	if err != nil {
		return string(frames[0]), nil, err
	}
	observability.RecordMessageReceived(decoded.MessageType())
	return string(frames[0]), decoded, nil
}

// Close releases the subscriber's socket.
func (s *Subscriber) Close() error { return s.sock.Close() }
