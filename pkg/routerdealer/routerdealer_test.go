package routerdealer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/internal/transport"
	"github.com/uofuseismo/umps-go/internal/wire"
	"github.com/uofuseismo/umps-go/pkg/auth"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// dealerClient is a raw Dealer socket standing in for the Req/Dealer client
// a real module uses against a router/dealer proxy's frontend; the package
// has no higher-level request client of its own, so tests drive the wire
// protocol directly the way reqrouter.Request does internally.
func dealerClient(t *testing.T, ctx context.Context, address, identity string) *transport.Socket {
	t.Helper()
	opts := transport.DefaultOptions()
	opts.Identity = identity
	sock, err := transport.NewSocket(ctx, transport.KindDealer, opts)
	require.NoError(t, err)
	require.NoError(t, sock.Connect(address))
	return sock
}

func TestRouterDealerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()
	proxy, err := NewProxy(ctx, ProxyConfig{
		FrontendAddress: "inproc://routerdealer-roundtrip-frontend",
		BackendAddress:  "inproc://routerdealer-roundtrip-backend",
	})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)

	replier, err := NewReplier(ctx, ReplierConfig{Address: "inproc://routerdealer-roundtrip-backend", Registry: reg})
	require.NoError(t, err)
	defer replier.Close()
	replier.RegisterCallback(message.PingRequestMessageType, func(ctx context.Context, req message.Message) (message.Message, error) {
		ping := req.(*message.PingRequest)
		return &message.PingResponse{InstanceID: ping.InstanceID}, nil
	})
	go replier.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client := dealerClient(t, ctx, "inproc://routerdealer-roundtrip-frontend", "client-1")
	defer client.Close()

	payload, err := wire.Marshal(&message.PingRequest{InstanceID: "picker-1"})
	require.NoError(t, err)
	require.NoError(t, client.Send(payload))

	recvCtx, recvCancel := context.WithTimeout(ctx, 2*time.Second)
	defer recvCancel()
	frames, err := client.Receive(recvCtx)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	reply, err := wire.Decode(reg, frames[0])
	require.NoError(t, err)
	pong, ok := reply.(*message.PingResponse)
	require.True(t, ok)
	require.Equal(t, "picker-1", pong.InstanceID)
}

func TestRouterDealerProxyDeniesBlacklistedPeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPath := t.TempDir() + "/routerdealer-auth.db"
	authenticator, err := auth.OpenPersistentAuthenticator(dbPath, auth.ReadOnly)
	require.NoError(t, err)
	defer authenticator.Close()
	require.NoError(t, authenticator.Blacklist("blocked-client"))

	task := auth.NewTask(authenticator, nil)
	task.Start(ctx)
	defer task.Stop()

	reg := message.NewStandardRegistry()
	proxy, err := NewProxy(ctx, ProxyConfig{
		FrontendAddress: "inproc://routerdealer-denied-frontend",
		BackendAddress:  "inproc://routerdealer-denied-backend",
		SecurityLevel:   auth.Strawhouse,
		Authenticator:   task,
	})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)

	replier, err := NewReplier(ctx, ReplierConfig{Address: "inproc://routerdealer-denied-backend", Registry: reg})
	require.NoError(t, err)
	defer replier.Close()
	replier.RegisterCallback(message.PingRequestMessageType, func(ctx context.Context, req message.Message) (message.Message, error) {
		ping := req.(*message.PingRequest)
		return &message.PingResponse{InstanceID: ping.InstanceID}, nil
	})
	go replier.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	blocked := dealerClient(t, ctx, "inproc://routerdealer-denied-frontend", "blocked-client")
	defer blocked.Close()
	payload, err := wire.Marshal(&message.PingRequest{InstanceID: "blocked"})
	require.NoError(t, err)
	require.NoError(t, blocked.Send(payload))

	deniedCtx, deniedCancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer deniedCancel()
	_, err = blocked.Receive(deniedCtx)
	require.Error(t, err, "a blacklisted peer's request must be dropped, not answered")

	allowed := dealerClient(t, ctx, "inproc://routerdealer-denied-frontend", "allowed-client")
	defer allowed.Close()
	payload, err = wire.Marshal(&message.PingRequest{InstanceID: "allowed"})
	require.NoError(t, err)
	require.NoError(t, allowed.Send(payload))

	allowedCtx, allowedCancel := context.WithTimeout(ctx, 2*time.Second)
	defer allowedCancel()
	frames, err := allowed.Receive(allowedCtx)
	require.NoError(t, err)
	reply, err := wire.Decode(reg, frames[0])
	require.NoError(t, err)
	pong, ok := reply.(*message.PingResponse)
	require.True(t, ok)
	require.Equal(t, "allowed", pong.InstanceID)
}
