package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPubSubRoundTripOverInproc(t *testing.T) {
	ctx := context.Background()

	pub, err := NewSocket(ctx, KindPub, DefaultOptions())
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, pub.Bind("inproc://umps-go-test-pubsub"))

	sub, err := NewSocket(ctx, KindSub, DefaultOptions())
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.Connect("inproc://umps-go-test-pubsub"))
	require.NoError(t, sub.Subscribe(""))

	// Allow the subscription to propagate before publishing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, pub.Send([]byte("topic"), []byte("payload")))

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	frames, err := sub.Receive(recvCtx)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("topic"), []byte("payload")}, frames)
}

func TestReceiveTimesOutWhenNoMessageArrives(t *testing.T) {
	ctx := context.Background()
	sub, err := NewSocket(ctx, KindSub, DefaultOptions())
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, sub.Connect("inproc://umps-go-test-empty"))
	require.NoError(t, sub.Subscribe(""))

	recvCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = sub.Receive(recvCtx)
	require.Error(t, err)
}
