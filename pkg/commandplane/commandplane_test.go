package commandplane

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

func TestServiceAnswersAvailableCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()
	svc, err := NewService(ctx, ServiceConfig{Address: "inproc://commandplane-commands", Registry: reg})
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.RegisterCommand(message.IncrementRequestMessageType, "increments a counter",
		func(ctx context.Context, req message.Message) (message.Message, error) {
			return &message.IncrementResponse{}, nil
		}))

	go svc.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: "inproc://commandplane-commands", Registry: reg, Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Call(ctx, &message.AvailableCommandsRequest{})
	require.NoError(t, err)
	out, ok := resp.(*message.AvailableCommandsResponse)
	require.True(t, ok)
	require.Contains(t, out.Commands, message.IncrementRequestMessageType)

	svc.Stop()
}

func TestModuleBecomesAliveAfterRegistrationAndPing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()

	moduleSvc, err := NewService(ctx, ServiceConfig{Address: "inproc://commandplane-module", Registry: reg})
	require.NoError(t, err)
	defer moduleSvc.Close()
	go moduleSvc.StartBackground(ctx)

	proxy, err := NewProxy(ctx, "inproc://commandplane-registration", ProxyConfig{
		Registry: reg, PingInterval: 100 * time.Millisecond, MaxMissedPings: 2,
	})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: "inproc://commandplane-registration", Registry: reg, Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Call(ctx, &message.RegistrationRequest{
		ModuleName: "picker", InstanceID: "picker-1", IPCAddress: "inproc://commandplane-module",
	})
	require.NoError(t, err)
	regResp, ok := resp.(*message.RegistrationResponse)
	require.True(t, ok)
	require.Equal(t, message.RegistrationSuccess, regResp.ReturnCode)

	require.Eventually(t, func() bool {
		return proxy.State("picker-1") == LivenessAlive
	}, 2*time.Second, 20*time.Millisecond)

	proxy.Stop()
	moduleSvc.Stop()
}
