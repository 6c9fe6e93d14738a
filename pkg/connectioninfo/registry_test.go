package connectioninfo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
)

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Details{Name: "packetCache", Kind: SocketKindRep, Address: "tcp://*:8080"}))
	require.Error(t, r.Add(Details{Name: "packetCache", Kind: SocketKindRep, Address: "tcp://*:8081"}))
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Details{Name: "dataPacketBroadcast", Kind: SocketKindXPub}))
	r.Remove("dataPacketBroadcast")
	r.Remove("dataPacketBroadcast")
	_, ok := r.Get("dataPacketBroadcast")
	require.False(t, ok)
}

func TestServiceAnswersWithRegistryContents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()
	require.NoError(t, RegisterMessages(reg))

	registry := NewRegistry()
	require.NoError(t, registry.Add(Details{Name: "incrementer", Kind: SocketKindRep, Address: "tcp://*:9000"}))

	svc, err := NewService(ctx, registry, reg, "inproc://connectioninfo-test", nil)
	require.NoError(t, err)
	defer svc.Close()

	go svc.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client, err := newTestClient(ctx, reg, "inproc://connectioninfo-test")
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Call(ctx, &Request{})
	require.NoError(t, err)
	out, ok := resp.(*Response)
	require.True(t, ok)
	require.Len(t, out.Connections, 1)
	require.Equal(t, "incrementer", out.Connections[0].Name)

	svc.Stop()
}
