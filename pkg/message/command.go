package message

const (
	RegistrationRequestMessageType        = "UMPS::Services::ModuleRegistry::RegistrationRequest"
	RegistrationResponseMessageType       = "UMPS::Services::ModuleRegistry::RegistrationResponse"
	AvailableCommandsRequestMessageType   = "UMPS::ProxyServices::Command::AvailableCommandsRequest"
	AvailableCommandsResponseMessageType  = "UMPS::ProxyServices::Command::AvailableCommandsResponse"
	CommandRequestMessageType             = "UMPS::ProxyServices::Command::CommandRequest"
	CommandResponseMessageType            = "UMPS::ProxyServices::Command::CommandResponse"
	AvailableModulesRequestMessageType    = "UMPS::Services::ModuleRegistry::AvailableModulesRequest"
	AvailableModulesResponseMessageType   = "UMPS::Services::ModuleRegistry::AvailableModulesResponse"
	TerminateRequestMessageType           = "UMPS::ProxyServices::Command::TerminateRequest"
	TerminateResponseMessageType          = "UMPS::ProxyServices::Command::TerminateResponse"
	commandMessageVersion                 = "1.0.0"
)

// RegistrationReturnCode mirrors original_source's
// umps::services::moduleRegistry::RegistrationReturnCode enum verbatim.
type RegistrationReturnCode int

const (
	RegistrationSuccess RegistrationReturnCode = iota
	RegistrationInvalidMessage
	RegistrationExists
	RegistrationAlgorithmFailure
)

// RegistrationRequest is sent by a module's local command Service when it
// starts, asking the remote command Proxy to admit it to the live module
// table.
type RegistrationRequest struct {
	ModuleName      string        `cbor:"module_name" json:"module_name"`
	InstanceID      string        `cbor:"instance_id" json:"instance_id"`
	IPCAddress      string        `cbor:"ipc_address" json:"ipc_address"`
	HeartbeatPeriod int           `cbor:"heartbeat_period_s" json:"heartbeat_period_s"`
	Details         ModuleDetails `cbor:"details,omitempty" json:"details,omitempty"`
}

func (r *RegistrationRequest) MessageVersion() string  { return commandMessageVersion }
func (r *RegistrationRequest) MessageType() string     { return RegistrationRequestMessageType }
func (r *RegistrationRequest) CreateInstance() Message { return &RegistrationRequest{} }

// RegistrationResponse answers a RegistrationRequest.
type RegistrationResponse struct {
	ReturnCode RegistrationReturnCode `cbor:"return_code" json:"return_code"`
	Details    string                 `cbor:"details,omitempty" json:"details,omitempty"`
}

func (r *RegistrationResponse) MessageVersion() string  { return commandMessageVersion }
func (r *RegistrationResponse) MessageType() string     { return RegistrationResponseMessageType }
func (r *RegistrationResponse) CreateInstance() Message { return &RegistrationResponse{} }

// AvailableCommandsRequest asks a module's local command Service to list
// the commands it understands.
type AvailableCommandsRequest struct{}

func (a *AvailableCommandsRequest) MessageVersion() string { return commandMessageVersion }
func (a *AvailableCommandsRequest) MessageType() string {
	return AvailableCommandsRequestMessageType
}
func (a *AvailableCommandsRequest) CreateInstance() Message { return &AvailableCommandsRequest{} }

// AvailableCommandsResponse enumerates a module's supported commands, with
// a short help string per command.
type AvailableCommandsResponse struct {
	Commands map[string]string `cbor:"commands" json:"commands"`
}

func (a *AvailableCommandsResponse) MessageVersion() string { return commandMessageVersion }
func (a *AvailableCommandsResponse) MessageType() string {
	return AvailableCommandsResponseMessageType
}
func (a *AvailableCommandsResponse) CreateInstance() Message { return &AvailableCommandsResponse{} }

// CommandRequest asks a module's local command Service to run an
// application-specific command, the general-purpose counterpart to the
// fixed AvailableCommands/Terminate pair.
type CommandRequest struct {
	Command string   `cbor:"command" json:"command"`
	Args    []string `cbor:"args,omitempty" json:"args,omitempty"`
}

func (c *CommandRequest) MessageVersion() string  { return commandMessageVersion }
func (c *CommandRequest) MessageType() string     { return CommandRequestMessageType }
func (c *CommandRequest) CreateInstance() Message { return &CommandRequest{} }

// CommandResponse reports the outcome of a CommandRequest.
type CommandResponse struct {
	ExitCode int    `cbor:"exit_code" json:"exit_code"`
	Stdout   string `cbor:"stdout,omitempty" json:"stdout,omitempty"`
	Stderr   string `cbor:"stderr,omitempty" json:"stderr,omitempty"`
}

func (c *CommandResponse) MessageVersion() string  { return commandMessageVersion }
func (c *CommandResponse) MessageType() string     { return CommandResponseMessageType }
func (c *CommandResponse) CreateInstance() Message { return &CommandResponse{} }

// ModuleDetails describes one running instance of a module, a row of the
// command plane's module table.
type ModuleDetails struct {
	Name       string `cbor:"name" json:"name"`
	Executable string `cbor:"executable" json:"executable"`
	Instance   uint16 `cbor:"instance" json:"instance"`
	PID        int64  `cbor:"pid" json:"pid"`
	PPID       int64  `cbor:"ppid" json:"ppid"`
	Machine    string `cbor:"machine" json:"machine"`
}

// AvailableModulesRequest asks the remote command Proxy for the module
// table: every module instance currently registered, alive or not.
type AvailableModulesRequest struct{}

func (a *AvailableModulesRequest) MessageVersion() string { return commandMessageVersion }
func (a *AvailableModulesRequest) MessageType() string {
	return AvailableModulesRequestMessageType
}
func (a *AvailableModulesRequest) CreateInstance() Message { return &AvailableModulesRequest{} }

// AvailableModulesResponse answers an AvailableModulesRequest with the
// Proxy's current module table.
type AvailableModulesResponse struct {
	Modules []ModuleDetails `cbor:"modules" json:"modules"`
}

func (a *AvailableModulesResponse) MessageVersion() string { return commandMessageVersion }
func (a *AvailableModulesResponse) MessageType() string {
	return AvailableModulesResponseMessageType
}
func (a *AvailableModulesResponse) CreateInstance() Message { return &AvailableModulesResponse{} }

// TerminateRequest asks a module to shut itself down.
type TerminateRequest struct{}

func (t *TerminateRequest) MessageVersion() string  { return commandMessageVersion }
func (t *TerminateRequest) MessageType() string     { return TerminateRequestMessageType }
func (t *TerminateRequest) CreateInstance() Message { return &TerminateRequest{} }

// TerminateResponse acknowledges a TerminateRequest.
type TerminateResponse struct {
	Accepted bool `cbor:"accepted" json:"accepted"`
}

func (t *TerminateResponse) MessageVersion() string  { return commandMessageVersion }
func (t *TerminateResponse) MessageType() string     { return TerminateResponseMessageType }
func (t *TerminateResponse) CreateInstance() Message { return &TerminateResponse{} }
