package incrementer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

func TestIncrementerHandsOutSequentialValuesPerItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()
	svc, err := NewService(ctx, ServiceConfig{Address: "inproc://incrementer-test", Registry: reg})
	require.NoError(t, err)
	defer svc.Close()

	go svc.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: "inproc://incrementer-test", Registry: reg, Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	for want := int64(1); want <= 3; want++ {
		resp, err := client.Call(ctx, &message.IncrementRequest{Item: "eventID"})
		require.NoError(t, err)
		out, ok := resp.(*message.IncrementResponse)
		require.True(t, ok)
		require.Equal(t, want, out.Value)
	}

	resp, err := client.Call(ctx, &message.IncrementRequest{Item: "otherCounter"})
	require.NoError(t, err)
	out := resp.(*message.IncrementResponse)
	require.Equal(t, int64(1), out.Value)

	svc.Stop()
}
