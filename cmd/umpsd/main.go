// Command umpsd runs a standalone umps-go broadcast proxy, connection
// information service, and admin health surface in one process. It is a
// reference wiring, not a deployment topology: a real cluster runs each
// service as its own process pointed at its own addresses.
//
// Usage:
//
//	go run ./cmd/umpsd -frontend tcp://*:5555 -backend tcp://*:5556 -connectioninfo tcp://*:5557 -admin :8080
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uofuseismo/umps-go/internal/adminapi"
	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/pkg/broadcast"
	"github.com/uofuseismo/umps-go/pkg/connectioninfo"
	"github.com/uofuseismo/umps-go/pkg/message"
)

func main() {
	frontend := flag.String("frontend", "tcp://*:5555", "broadcast proxy frontend address")
	backend := flag.String("backend", "tcp://*:5556", "broadcast proxy backend address")
	connInfoAddr := flag.String("connectioninfo", "tcp://*:5557", "connection information service address")
	adminAddr := flag.String("admin", ":8080", "admin health server address")
	flag.Parse()

	logger := logging.New("umpsd")
	logger.Info("umpsd starting", "frontend", *frontend, "backend", *backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy, err := broadcast.NewProxy(ctx, broadcast.Config{
		FrontendAddress: *frontend,
		BackendAddress:  *backend,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("umpsd: creating broadcast proxy: %v", err)
	}

	registry := connectioninfo.NewRegistry()
	if err := registry.Add(connectioninfo.Details{
		Name: "broadcast-frontend", Kind: connectioninfo.SocketKindXSub, Address: *frontend,
	}); err != nil {
		log.Fatalf("umpsd: registering broadcast frontend: %v", err)
	}
	if err := registry.Add(connectioninfo.Details{
		Name: "broadcast-backend", Kind: connectioninfo.SocketKindXPub, Address: *backend,
	}); err != nil {
		log.Fatalf("umpsd: registering broadcast backend: %v", err)
	}

	msgRegistry := message.NewStandardRegistry()
	if err := connectioninfo.RegisterMessages(msgRegistry); err != nil {
		log.Fatalf("umpsd: registering connection info messages: %v", err)
	}

	connInfoService, err := connectioninfo.NewService(ctx, registry, msgRegistry, *connInfoAddr, logger)
	if err != nil {
		log.Fatalf("umpsd: creating connection information service: %v", err)
	}

	admin := adminapi.NewServer(logger)
	admin.SyncConnectionInfo(registry)

	proxy.StartBackground(ctx)
	connInfoService.StartBackground(ctx)
	admin.StartBackground(*adminAddr)

	logger.Info("umpsd ready", "admin_address", *adminAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", "signal", sig.String())

	admin.ShutdownWithTimeout(5 * time.Second)
	proxy.Stop()
	connInfoService.Stop()
	cancel()

	logger.Info("umpsd stopped")
}
