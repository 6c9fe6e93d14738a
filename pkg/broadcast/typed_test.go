package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
)

func TestDataPacketPublisherSubscriberRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy, err := NewProxy(ctx, Config{
		FrontendAddress: "inproc://broadcast-datapacket-frontend",
		BackendAddress:  "inproc://broadcast-datapacket-backend",
	})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	reg := message.NewStandardRegistry()
	sub, err := NewDataPacketSubscriber[int32](ctx, "inproc://broadcast-datapacket-backend", "", reg, nil)
	require.NoError(t, err)
	defer sub.Close()
	time.Sleep(50 * time.Millisecond)

	pub, err := NewDataPacketPublisher[int32](ctx, "inproc://broadcast-datapacket-frontend")
	require.NoError(t, err)
	defer pub.Close()

	packet := &message.DataPacket[int32]{
		Network: "UU", Station: "NOQ", Channel: "HHZ", Location: "01",
		SamplingRateHz: 100, StartTimeMicroseconds: 1000, Data: []int32{1, 2, 3},
	}

	require.Eventually(t, func() bool {
		return pub.Publish(packet) == nil
	}, 2*time.Second, 20*time.Millisecond)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	topic, received, err := sub.Receive(recvCtx)
	require.NoError(t, err)
	require.Equal(t, packet.SNCL(), topic)
	require.Equal(t, packet.Network, received.Network)
	require.Equal(t, packet.Data, received.Data)
}

func TestPickPublisherSubscriberRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy, err := NewProxy(ctx, Config{
		FrontendAddress: "inproc://broadcast-pick-frontend",
		BackendAddress:  "inproc://broadcast-pick-backend",
	})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	reg := message.NewStandardRegistry()
	sub, err := NewPickSubscriber(ctx, "inproc://broadcast-pick-backend", reg, nil)
	require.NoError(t, err)
	defer sub.Close()
	time.Sleep(50 * time.Millisecond)

	pub, err := NewPickPublisher(ctx, "inproc://broadcast-pick-frontend")
	require.NoError(t, err)
	defer pub.Close()

	pick := &message.Pick{
		Identifier: 84823, Network: "UU", Station: "NOQ", Channel: "HHZ", Location: "01",
		TimeMicroseconds: 5000, Phase: message.PhaseHintP, Polarity: message.PolarityUp,
	}

	require.Eventually(t, func() bool {
		return pub.Publish(pick) == nil
	}, 2*time.Second, 20*time.Millisecond)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	received, err := sub.Receive(recvCtx)
	require.NoError(t, err)
	require.Equal(t, pick.Identifier, received.Identifier)
}

func TestHeartbeatPublisherSubscriberRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy, err := NewProxy(ctx, Config{
		FrontendAddress: "inproc://broadcast-heartbeat-frontend",
		BackendAddress:  "inproc://broadcast-heartbeat-backend",
	})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	reg := message.NewStandardRegistry()
	sub, err := NewHeartbeatSubscriber(ctx, "inproc://broadcast-heartbeat-backend", "", reg, nil)
	require.NoError(t, err)
	defer sub.Close()
	time.Sleep(50 * time.Millisecond)

	pub, err := NewHeartbeatPublisher(ctx, "inproc://broadcast-heartbeat-frontend")
	require.NoError(t, err)
	defer pub.Close()

	hb := &message.Heartbeat{Module: "picker", InstanceID: "picker-1", TimeMicroseconds: 9000, SequenceNumber: 1}

	require.Eventually(t, func() bool {
		return pub.Publish(hb) == nil
	}, 2*time.Second, 20*time.Millisecond)

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	received, err := sub.Receive(recvCtx)
	require.NoError(t, err)
	require.Equal(t, hb.Module, received.Module)
	require.Equal(t, hb.InstanceID, received.InstanceID)
}
