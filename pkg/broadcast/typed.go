package broadcast

import (
	"context"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// umpsInvalidBroadcastType reports that a typed subscriber received a
// message whose registered type doesn't match the wrapper it arrived
// through, e.g. a PickSubscriber decoding a Heartbeat off a shared bus.
func umpsInvalidBroadcastType(receivedType string) error {
	return umpserrors.New(umpserrors.KindInvalidMessageType, "unexpected broadcast message type "+receivedType)
}

// DataPacketPublisher fixes the topic convention for DataPacket broadcasts:
// the topic is the packet's SNCL string, so a Subscriber can filter to one
// sensor without decoding every payload on the bus.
type DataPacketPublisher[T message.Sample] struct {
	pub *Publisher
}

// NewDataPacketPublisher connects a DataPacketPublisher to a broadcast
// Proxy's frontend.
func NewDataPacketPublisher[T message.Sample](ctx context.Context, address string) (*DataPacketPublisher[T], error) {
	pub, err := NewPublisher(ctx, address)
	if err != nil {
		return nil, err
	}
	return &DataPacketPublisher[T]{pub: pub}, nil
}

// Publish sends packet on the topic packet.SNCL().
func (d *DataPacketPublisher[T]) Publish(packet *message.DataPacket[T]) error {
	return d.pub.Publish(packet.SNCL(), packet)
}

// Close releases the underlying publisher socket.
func (d *DataPacketPublisher[T]) Close() error { return d.pub.Close() }

// DataPacketSubscriber decodes DataPacket broadcasts of sample type T. topic
// is an SNCL prefix; the empty string subscribes to every sensor.
type DataPacketSubscriber[T message.Sample] struct {
	sub *Subscriber
}

// NewDataPacketSubscriber connects a DataPacketSubscriber to address,
// filtered to topic.
func NewDataPacketSubscriber[T message.Sample](ctx context.Context, address, topic string, reg *message.Registry, logger logging.Logger) (*DataPacketSubscriber[T], error) {
	sub, err := NewSubscriber(ctx, address, topic, reg, logger)
	if err != nil {
		return nil, err
	}
	return &DataPacketSubscriber[T]{sub: sub}, nil
}

// Receive blocks for the next DataPacket, returning its SNCL topic and the
// decoded packet.
func (d *DataPacketSubscriber[T]) Receive(ctx context.Context) (string, *message.DataPacket[T], error) {
	topic, msg, err := d.sub.Receive(ctx)
	if err != nil {
		return "", nil, err
	}
	if msg == nil {
		return topic, nil, nil
	}
	packet, ok := msg.(*message.DataPacket[T])
	if !ok {
		return topic, nil, umpsInvalidBroadcastType(msg.MessageType())
	}
	return topic, packet, nil
}

// Close releases the underlying subscriber socket.
func (d *DataPacketSubscriber[T]) Close() error { return d.sub.Close() }

// PickPublisher fixes the topic convention for Pick broadcasts: every pick
// is published on the fixed PickMessageType topic, since picks are not
// naturally partitioned the way fixed-rate streams are.
type PickPublisher struct {
	pub *Publisher
}

// NewPickPublisher connects a PickPublisher to a broadcast Proxy's frontend.
func NewPickPublisher(ctx context.Context, address string) (*PickPublisher, error) {
	pub, err := NewPublisher(ctx, address)
	if err != nil {
		return nil, err
	}
	return &PickPublisher{pub: pub}, nil
}

// Publish sends pick on the fixed Pick topic.
func (p *PickPublisher) Publish(pick *message.Pick) error {
	return p.pub.Publish(message.PickMessageType, pick)
}

// Close releases the underlying publisher socket.
func (p *PickPublisher) Close() error { return p.pub.Close() }

// PickSubscriber decodes Pick broadcasts.
type PickSubscriber struct {
	sub *Subscriber
}

// NewPickSubscriber connects a PickSubscriber to address, subscribed to
// every Pick.
func NewPickSubscriber(ctx context.Context, address string, reg *message.Registry, logger logging.Logger) (*PickSubscriber, error) {
	sub, err := NewSubscriber(ctx, address, message.PickMessageType, reg, logger)
	if err != nil {
		return nil, err
	}
	return &PickSubscriber{sub: sub}, nil
}

// Receive blocks for the next Pick.
func (p *PickSubscriber) Receive(ctx context.Context) (*message.Pick, error) {
	_, msg, err := p.sub.Receive(ctx)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	pick, ok := msg.(*message.Pick)
	if !ok {
		return nil, umpsInvalidBroadcastType(msg.MessageType())
	}
	return pick, nil
}

// Close releases the underlying subscriber socket.
func (p *PickSubscriber) Close() error { return p.sub.Close() }

// HeartbeatPublisher fixes the topic convention for Heartbeat broadcasts:
// the topic is "<Module>.<InstanceID>" so a consumer can watch one module
// instance's pulse without decoding unrelated heartbeats.
type HeartbeatPublisher struct {
	pub *Publisher
}

// NewHeartbeatPublisher connects a HeartbeatPublisher to a broadcast Proxy's
// frontend.
func NewHeartbeatPublisher(ctx context.Context, address string) (*HeartbeatPublisher, error) {
	pub, err := NewPublisher(ctx, address)
	if err != nil {
		return nil, err
	}
	return &HeartbeatPublisher{pub: pub}, nil
}

// Publish sends hb on the topic "<Module>.<InstanceID>".
func (h *HeartbeatPublisher) Publish(hb *message.Heartbeat) error {
	return h.pub.Publish(hb.Module+"."+hb.InstanceID, hb)
}

// Close releases the underlying publisher socket.
func (h *HeartbeatPublisher) Close() error { return h.pub.Close() }

// HeartbeatSubscriber decodes Heartbeat broadcasts. topic is a
// "<Module>.<InstanceID>" prefix; the empty string subscribes to every
// module's heartbeat.
type HeartbeatSubscriber struct {
	sub *Subscriber
}

// NewHeartbeatSubscriber connects a HeartbeatSubscriber to address, filtered
// to topic.
func NewHeartbeatSubscriber(ctx context.Context, address, topic string, reg *message.Registry, logger logging.Logger) (*HeartbeatSubscriber, error) {
	sub, err := NewSubscriber(ctx, address, topic, reg, logger)
	if err != nil {
		return nil, err
	}
	return &HeartbeatSubscriber{sub: sub}, nil
}

// Receive blocks for the next Heartbeat.
func (h *HeartbeatSubscriber) Receive(ctx context.Context) (*message.Heartbeat, error) {
	_, msg, err := h.sub.Receive(ctx)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	hb, ok := msg.(*message.Heartbeat)
	if !ok {
		return nil, umpsInvalidBroadcastType(msg.MessageType())
	}
	return hb, nil
}

// Close releases the underlying subscriber socket.
func (h *HeartbeatSubscriber) Close() error { return h.sub.Close() }
