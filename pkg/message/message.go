// Package message defines the typed message registry: every wire message
// exchanged across umps-go's broadcast, router/dealer, and request/router
// patterns implements Message and is addressable by its MessageType in a
// Registry, the way commbus keys its bus off GetMessageType.
package message

import (
	"fmt"
	"sync"
)

// Message is implemented by every type that can travel across a umps-go
// transport. MessageType returns the wire identifier (e.g.
// "UMPS::MessageFormats::Pick"); MessageVersion lets a receiver reject a
// payload it cannot parse.
type Message interface {
	MessageType() string
	MessageVersion() string
}

// Cloner is implemented by messages that support the registry's Clone/
// CreateInstance pattern: producing a fresh, zero-valued instance of the
// same concrete type so a receiver can unmarshal into it without knowing
// the concrete type ahead of time.
type Cloner interface {
	Message
	CreateInstance() Message
}

// Registry maps a message type string to a factory that creates a blank
// instance of that type, mirroring commbus's handler-registration pattern
// but keyed on wire type name instead of a Go type.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() Message
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Message)}
}

// Register adds a factory for messageType. It returns an error if the type
// is already registered, the same uniqueness guarantee commbus enforces for
// handlers.
func (r *Registry) Register(messageType string, factory func() Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[messageType]; exists {
		return fmt.Errorf("message type already registered: %s", messageType)
	}
	r.factories[messageType] = factory
	return nil
}

// CreateInstance returns a new blank Message for messageType, or an error
// if no factory is registered.
func (r *Registry) CreateInstance(messageType string) (Message, error) {
	r.mu.RLock()
	factory, ok := r.factories[messageType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no factory registered for message type: %s", messageType)
	}
	return factory(), nil
}

// Contains reports whether messageType has a registered factory.
func (r *Registry) Contains(messageType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[messageType]
	return ok
}

// Types returns every registered message type, in no particular order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	return out
}

// NewStandardRegistry returns a Registry pre-populated with every concrete
// message type this module ships: data packets of the sample kinds it
// knows how to frame, picks, heartbeats, and the command/registration/
// increment/ping control messages.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Register(PickMessageType, func() Message { return &Pick{} }))
	must(r.Register(HeartbeatMessageType, func() Message { return &Heartbeat{} }))
	must(r.Register(DataPacketInt32MessageType, func() Message { return &DataPacket[int32]{} }))
	must(r.Register(DataPacketInt64MessageType, func() Message { return &DataPacket[int64]{} }))
	must(r.Register(DataPacketFloat32MessageType, func() Message { return &DataPacket[float32]{} }))
	must(r.Register(DataPacketFloat64MessageType, func() Message { return &DataPacket[float64]{} }))
	must(r.Register(PingRequestMessageType, func() Message { return &PingRequest{} }))
	must(r.Register(PingResponseMessageType, func() Message { return &PingResponse{} }))
	must(r.Register(RegistrationRequestMessageType, func() Message { return &RegistrationRequest{} }))
	must(r.Register(RegistrationResponseMessageType, func() Message { return &RegistrationResponse{} }))
	must(r.Register(AvailableCommandsRequestMessageType, func() Message { return &AvailableCommandsRequest{} }))
	must(r.Register(AvailableCommandsResponseMessageType, func() Message { return &AvailableCommandsResponse{} }))
	must(r.Register(CommandRequestMessageType, func() Message { return &CommandRequest{} }))
	must(r.Register(CommandResponseMessageType, func() Message { return &CommandResponse{} }))
	must(r.Register(AvailableModulesRequestMessageType, func() Message { return &AvailableModulesRequest{} }))
	must(r.Register(AvailableModulesResponseMessageType, func() Message { return &AvailableModulesResponse{} }))
	must(r.Register(TerminateRequestMessageType, func() Message { return &TerminateRequest{} }))
	must(r.Register(TerminateResponseMessageType, func() Message { return &TerminateResponse{} }))
	must(r.Register(IncrementRequestMessageType, func() Message { return &IncrementRequest{} }))
	must(r.Register(IncrementResponseMessageType, func() Message { return &IncrementResponse{} }))
	must(r.Register(InvalidMessageTypeResponseType, func() Message { return &InvalidMessageTypeResponse{} }))
	return r
}
