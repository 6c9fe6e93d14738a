package commandplane

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

// CommandHandler answers an application-specific command. The module
// command plane's AvailableCommandsRequest/TerminateRequest are always
// handled; CommandHandler lets a module add its own command vocabulary
// through the same request/router callback table.
type CommandHandler func(ctx context.Context, request message.Message) (message.Message, error)

// Service is the local IPC command endpoint a running module exposes over
// a request/router socket so a remote Proxy (or an operator directly) can
// ask what commands it supports, run an application command, or tell it to
// terminate. While running, it keeps a row in the on-disk module table
// mapping its name to its IPC address.
type Service struct {
	router      *reqrouter.Router
	logger      logging.Logger
	commands    map[string]string
	onTerminate func(ctx context.Context) error

	details   message.ModuleDetails
	tablePath string
	allowExec bool
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Address     string
	Registry    *message.Registry
	Logger      logging.Logger
	OnTerminate func(ctx context.Context) error

	// ModuleName, Executable, and Instance identify this module instance in
	// the module table and in ModuleDetails reported to a remote Proxy.
	ModuleName string
	Executable string
	Instance   uint16
	// TableDir is the well-known directory the module table file lives
	// under. Empty disables table bookkeeping entirely, which test-only
	// Services that don't care about discovery can use to skip filesystem
	// access.
	TableDir string
	// AllowCommandExecution wires CommandRequest to run ModuleName's
	// Executable-independent application commands through os/exec. Left
	// false by default since running arbitrary commands on behalf of a
	// network peer is only appropriate once ZAP authentication is in place
	// in front of this service.
	AllowCommandExecution bool
}

// NewService constructs a Service bound to cfg. cfg.Registry must already
// carry the command plane message types (RegistrationRequest,
// AvailableCommandsRequest, CommandRequest, TerminateRequest, and their
// responses), which NewStandardRegistry provides.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	router, err := reqrouter.NewRouter(ctx, reqrouter.RouterConfig{
		Address: cfg.Address, Registry: cfg.Registry, Logger: cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	var tablePath string
	if cfg.TableDir != "" {
		tablePath = TablePath(cfg.TableDir)
	}
	machine, _ := os.Hostname()
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Noop()
	}

	s := &Service{
		router: router, logger: logger, commands: make(map[string]string), onTerminate: cfg.OnTerminate,
		tablePath: tablePath, allowExec: cfg.AllowCommandExecution,
		details: message.ModuleDetails{
			Name: cfg.ModuleName, Executable: cfg.Executable, Instance: cfg.Instance,
			PID: int64(os.Getpid()), PPID: int64(os.Getppid()), Machine: machine,
		},
	}

	if err := router.RegisterCallback(message.AvailableCommandsRequestMessageType, s.handleAvailableCommands); err != nil {
		return nil, err
	}
	if err := router.RegisterCallback(message.CommandRequestMessageType, s.handleCommand); err != nil {
		return nil, err
	}
	if err := router.RegisterCallback(message.TerminateRequestMessageType, s.handleTerminate); err != nil {
		return nil, err
	}
	if err := router.RegisterCallback(message.PingRequestMessageType, s.handlePing); err != nil {
		return nil, err
	}
	return s, nil
}

// Register announces this module to a remote command Proxy at
// proxyAddress, carrying its ModuleDetails and IPC address so the proxy can
// add it to the live module table and start pinging it.
func (s *Service) Register(ctx context.Context, proxyAddress string, registry *message.Registry, heartbeatPeriod int) (*message.RegistrationResponse, error) {
	client, err := reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: proxyAddress, Registry: registry, Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	instanceID := fmt.Sprintf("%s-%d", s.details.Name, s.details.Instance)
	resp, err := client.Call(ctx, &message.RegistrationRequest{
		ModuleName: s.details.Name, InstanceID: instanceID, IPCAddress: s.router.Address(),
		HeartbeatPeriod: heartbeatPeriod, Details: s.details,
	})
	if err != nil {
		return nil, err
	}
	registration, ok := resp.(*message.RegistrationResponse)
	if !ok {
		return nil, umpserrors.New(umpserrors.KindInvalidMessageType, "unexpected registration reply type")
	}
	return registration, nil
}

// RegisterCommand adds a named command with a short help string, listed in
// the AvailableCommandsResponse, and wires fn to answer any request of
// messageType.
func (s *Service) RegisterCommand(messageType, help string, fn CommandHandler) error {
	s.commands[messageType] = help
	return s.router.RegisterCallback(messageType, reqrouter.RouterCallback(fn))
}

func (s *Service) handleAvailableCommands(ctx context.Context, req message.Message) (message.Message, error) {
	commands := make(map[string]string, len(s.commands))
	for k, v := range s.commands {
		commands[k] = v
	}
	return &message.AvailableCommandsResponse{Commands: commands}, nil
}

func (s *Service) handleTerminate(ctx context.Context, req message.Message) (message.Message, error) {
	accepted := true
	if s.onTerminate != nil {
		if err := s.onTerminate(ctx); err != nil {
			accepted = false
		}
	}
	return &message.TerminateResponse{Accepted: accepted}, nil
}

func (s *Service) handlePing(ctx context.Context, req message.Message) (message.Message, error) {
	ping := req.(*message.PingRequest)
	return &message.PingResponse{InstanceID: ping.InstanceID}, nil
}

// handleCommand runs an application command via os/exec and reports its
// exit code and captured output. It refuses to run anything unless the
// Service was configured with AllowCommandExecution, since a bare
// request/router socket has no authentication of its own.
func (s *Service) handleCommand(ctx context.Context, req message.Message) (message.Message, error) {
	cmdReq := req.(*message.CommandRequest)
	if !s.allowExec {
		return &message.CommandResponse{ExitCode: -1, Stderr: "command execution is disabled for this module"}, nil
	}

	cmd := exec.CommandContext(ctx, cmdReq.Command, cmdReq.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
			stderr.WriteString(err.Error())
		}
	}
	return &message.CommandResponse{ExitCode: exitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// Start writes the service's module table row (if TableDir was configured),
// then binds the service and blocks servicing requests until ctx is
// canceled or Stop is called. The row is removed unconditionally when Start
// returns, mirroring the spec's "written on start(), removed on stop()".
func (s *Service) Start(ctx context.Context) error {
	if s.tablePath != "" {
		if err := WriteTableRow(s.tablePath, s.details, s.router.Address()); err != nil {
			return umpserrors.Wrap(umpserrors.KindTransport, "writing module table row", err)
		}
		defer RemoveTableRow(s.tablePath, s.details.Name, s.details.Instance)
	}
	return s.router.Start(ctx)
}

// StartBackground runs Start in a new goroutine, so table bookkeeping still
// happens even when the caller doesn't want to block on Start.
func (s *Service) StartBackground(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("command plane service exited", "error", err)
		}
	}()
}

// Stop cancels the service loop.
func (s *Service) Stop() { s.router.Stop() }

// IsRunning reports whether the service is actively handling requests.
func (s *Service) IsRunning() bool { return s.router.IsRunning() }

// Close releases the service's socket.
func (s *Service) Close() error { return s.router.Close() }
