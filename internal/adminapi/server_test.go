package adminapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/uofuseismo/umps-go/pkg/connectioninfo"
)

func waitForAddr(t *testing.T, s *Server) string {
	t.Helper()
	require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, 5*time.Millisecond)
	return s.Addr().String()
}

func TestServerReportsConnectionInfoHealth(t *testing.T) {
	registry := connectioninfo.NewRegistry()
	require.NoError(t, registry.Add(connectioninfo.Details{
		Name: "broadcast-frontend", Kind: connectioninfo.SocketKindXSub, Address: "tcp://127.0.0.1:5555",
	}))

	server := NewServer(nil)
	server.SyncConnectionInfo(registry)
	server.StartBackground("127.0.0.1:0")
	defer server.ShutdownWithTimeout(time.Second)

	addr := waitForAddr(t, server)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "broadcast-frontend"})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServerGracefulStopIsIdempotent(t *testing.T) {
	server := NewServer(nil)
	server.GracefulStop()
	server.ShutdownWithTimeout(100 * time.Millisecond)
}
