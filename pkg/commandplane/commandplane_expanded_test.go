package commandplane

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

func TestCommandRequestRunsWhenExecutionAllowed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()
	svc, err := NewService(ctx, ServiceConfig{
		Address: "inproc://commandplane-exec-allowed", Registry: reg,
		ModuleName: "picker", AllowCommandExecution: true,
	})
	require.NoError(t, err)
	defer svc.Close()
	go svc.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: "inproc://commandplane-exec-allowed", Registry: reg, Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Call(ctx, &message.CommandRequest{Command: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	out, ok := resp.(*message.CommandResponse)
	require.True(t, ok)
	require.Equal(t, 0, out.ExitCode)
	require.Contains(t, out.Stdout, "hello")

	svc.Stop()
}

func TestCommandRequestRefusedWhenExecutionDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()
	svc, err := NewService(ctx, ServiceConfig{Address: "inproc://commandplane-exec-disabled", Registry: reg, ModuleName: "picker"})
	require.NoError(t, err)
	defer svc.Close()
	go svc.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: "inproc://commandplane-exec-disabled", Registry: reg, Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Call(ctx, &message.CommandRequest{Command: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	out, ok := resp.(*message.CommandResponse)
	require.True(t, ok)
	require.NotEqual(t, 0, out.ExitCode)

	svc.Stop()
}

func TestServiceWritesAndRemovesModuleTableRow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	reg := message.NewStandardRegistry()
	svc, err := NewService(ctx, ServiceConfig{
		Address: "inproc://commandplane-table", Registry: reg,
		ModuleName: "picker", Executable: "pickerd", Instance: 1, TableDir: dir,
	})
	require.NoError(t, err)
	defer svc.Close()

	runCtx, runCancel := context.WithCancel(ctx)
	go svc.Start(runCtx)

	require.Eventually(t, func() bool {
		modules, err := ReadTable(TablePath(dir))
		return err == nil && len(modules) == 1 && modules[0].Name == "picker"
	}, 2*time.Second, 20*time.Millisecond)

	runCancel()

	require.Eventually(t, func() bool {
		modules, err := ReadTable(TablePath(dir))
		return err == nil && len(modules) == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestAvailableModulesRequestListsRegisteredModules(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := message.NewStandardRegistry()

	moduleSvc, err := NewService(ctx, ServiceConfig{
		Address: "inproc://commandplane-available-module", Registry: reg,
		ModuleName: "picker", Executable: "pickerd", Instance: 3,
	})
	require.NoError(t, err)
	defer moduleSvc.Close()
	go moduleSvc.StartBackground(ctx)

	proxy, err := NewProxy(ctx, "inproc://commandplane-available-registration", ProxyConfig{Registry: reg})
	require.NoError(t, err)
	defer proxy.Close()
	go proxy.StartBackground(ctx)
	time.Sleep(50 * time.Millisecond)

	resp, err := moduleSvc.Register(ctx, "inproc://commandplane-available-registration", reg, 1)
	require.NoError(t, err)
	require.Equal(t, message.RegistrationSuccess, resp.ReturnCode)

	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: "inproc://commandplane-available-registration", Registry: reg, Timeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	listResp, err := client.Call(ctx, &message.AvailableModulesRequest{})
	require.NoError(t, err)
	list, ok := listResp.(*message.AvailableModulesResponse)
	require.True(t, ok)
	require.Len(t, list.Modules, 1)
	require.Equal(t, "picker", list.Modules[0].Name)
	require.Equal(t, uint16(3), list.Modules[0].Instance)

	proxy.Stop()
	moduleSvc.Stop()
}
