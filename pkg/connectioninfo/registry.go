// Package connectioninfo implements the connection information service: an
// in-process registry of everything currently reachable through the
// broadcast and router/dealer proxies, plus a request/router wire service
// exposing it to remote clients. The registry's explicit add/remove/list
// shape is grounded in coreengine/kernel's ServiceRegistry
// (RegisterService/UnregisterService/ListServices), generalized here from
// load-balanced worker dispatch to a read-mostly connection directory.
package connectioninfo

import (
	"sync"
	"time"

	"github.com/uofuseismo/umps-go/internal/umpserrors"
)

// SocketKind names the socket pattern a Details entry represents.
type SocketKind string

const (
	SocketKindPub        SocketKind = "pub"
	SocketKindSub        SocketKind = "sub"
	SocketKindXPub       SocketKind = "xpub"
	SocketKindXSub       SocketKind = "xsub"
	SocketKindRouter     SocketKind = "router"
	SocketKindDealer     SocketKind = "dealer"
	SocketKindReq        SocketKind = "req"
	SocketKindRep        SocketKind = "rep"
)

// Details describes one reachable endpoint: the data a client needs to
// connect to it and the security posture it enforces.
type Details struct {
	Name            string     `json:"name"`
	Kind            SocketKind `json:"kind"`
	Address         string     `json:"address"`
	SecurityLevel   string     `json:"security_level"`
	RegisteredAt    time.Time  `json:"registered_at"`
}

// Registry tracks every endpoint registered with it. Entries change only
// through explicit Add and Remove calls by the caller; no service in this
// module registers itself on Start or removes itself on Stop.
type Registry struct {
	mu      sync.RWMutex
	details map[string]Details
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{details: make(map[string]Details)}
}

// Add registers d, keyed by d.Name. It returns an error if an entry with
// that name already exists — names are unique.
func (r *Registry) Add(d Details) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.details[d.Name]; exists {
		return umpserrors.New(umpserrors.KindInvalidArgument, "connection already registered: "+d.Name)
	}
	if d.RegisteredAt.IsZero() {
		d.RegisteredAt = time.Now().UTC()
	}
	r.details[d.Name] = d
	return nil
}

// Remove deletes the entry named name, if present. It is not an error to
// remove an entry that does not exist, matching stop() being safely
// callable on a component that never fully started.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.details, name)
}

// Get returns the entry named name.
func (r *Registry) Get(name string) (Details, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.details[name]
	return d, ok
}

// List returns every registered entry, in no particular order.
func (r *Registry) List() []Details {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Details, 0, len(r.details))
	for _, d := range r.details {
		out = append(out, d)
	}
	return out
}
