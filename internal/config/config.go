// Package config holds process-wide configuration for a umps-go
// component: socket addresses, security posture, and ring-buffer sizing.
// It follows the teacher's configuration package shape — a plain JSON-
// tagged struct, a DefaultConfig constructor, and a mutex-guarded global
// accessor a process's bootstrap code can inject into — generalized from
// pipeline-orchestration knobs to transport and authentication knobs.
package config

import "sync"

// Config holds the settings one umps-go process needs to stand up its
// sockets and authentication posture. Infrastructure specific to a single
// component (which messages it serves, its capacity) stays in that
// component's own *Config struct; this is the process-wide baseline.
type Config struct {
	// Addresses
	BroadcastFrontendAddress  string `json:"broadcast_frontend_address"`
	BroadcastBackendAddress   string `json:"broadcast_backend_address"`
	RouterDealerFrontendAddress string `json:"router_dealer_frontend_address"`
	RouterDealerBackendAddress  string `json:"router_dealer_backend_address"`
	ConnectionInformationAddress string `json:"connection_information_address"`
	CommandPlaneAddress       string `json:"command_plane_address"`
	AdminAddress              string `json:"admin_address"`

	// Security
	SecurityLevel          string `json:"security_level"` // Grasslands, Strawhouse, Woodhouse, Stonehouse, Ironhouse
	AuthenticatorDBPath    string `json:"authenticator_db_path"`
	MinimumUserPrivileges  string `json:"minimum_user_privileges"` // ReadOnly, ReadWrite, Administrator

	// Packet cache
	PacketCacheCapacity int `json:"packet_cache_capacity"`

	// Module command plane
	PingInterval   int `json:"ping_interval_seconds"`
	MaxMissedPings int `json:"max_missed_pings"`

	// Observability
	LogLevel               string `json:"log_level"`
	TracingCollectorAddress string `json:"tracing_collector_address"`
}

// DefaultConfig returns a Config with the same defaults a fresh umps-go
// deployment starts from: Grasslands security and TCP wildcard addresses on
// ports 5555-5560; callers override individual fields before use.
func DefaultConfig() *Config {
	return &Config{
		BroadcastFrontendAddress:     "tcp://*:5555",
		BroadcastBackendAddress:      "tcp://*:5556",
		RouterDealerFrontendAddress:  "tcp://*:5557",
		RouterDealerBackendAddress:   "tcp://*:5558",
		ConnectionInformationAddress: "tcp://*:5559",
		CommandPlaneAddress:          "tcp://*:5560",
		AdminAddress:                 ":8080",

		SecurityLevel:         "Grasslands",
		MinimumUserPrivileges: "ReadOnly",

		PacketCacheCapacity: 100,

		PingInterval:   5,
		MaxMissedPings: 3,

		LogLevel: "INFO",
	}
}

var (
	global   *Config
	globalMu sync.RWMutex
)

// Get returns the process's injected Config, or DefaultConfig if none has
// been set.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global == nil {
		return DefaultConfig()
	}
	return global
}

// Set injects cfg as the process-wide Config, typically called once by a
// cmd/ entrypoint after parsing flags or a config file.
func Set(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = cfg
}

// Reset clears the injected Config; the next Get returns DefaultConfig
// again. Useful for tests.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = nil
}
