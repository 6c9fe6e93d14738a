// Package wire implements the on-the-wire framing for messages: a compact
// CBOR encoding for every message type. Data packets are encoded the same
// way, their samples as a CBOR array; there is no raw binary encoding of
// sample payloads. This is the module's one serialization
// layer, imported by every component that puts a message.Message on a
// transport.Socket frame.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/message"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building canonical CBOR encode mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: building CBOR decode mode: %v", err))
	}
}

// Envelope is the wire representation every message travels as: one CBOR
// map, sent as a single frame, holding a type tag clients can route on
// without decoding the payload (see PeekType), the message version, and the
// CBOR-encoded payload itself.
type Envelope struct {
	Type    string `cbor:"type"`
	Version string `cbor:"version"`
	Payload []byte `cbor:"payload"`
}

// Marshal encodes msg into an Envelope's wire bytes.
func Marshal(msg message.Message) ([]byte, error) {
	payload, err := encMode.Marshal(msg)
	if err != nil {
		return nil, umpserrors.Wrap(umpserrors.KindInvalidMessage, "encoding message payload", err)
	}
	env := Envelope{Type: msg.MessageType(), Version: msg.MessageVersion(), Payload: payload}
	out, err := encMode.Marshal(env)
	if err != nil {
		return nil, umpserrors.Wrap(umpserrors.KindInvalidMessage, "encoding envelope", err)
	}
	return out, nil
}

// PeekType decodes only the envelope header, returning the message type tag
// without unmarshaling the payload. Callers use this to look up a factory
// in a message.Registry before doing the full Unmarshal.
func PeekType(data []byte) (string, string, error) {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return "", "", umpserrors.Wrap(umpserrors.KindInvalidMessage, "decoding envelope header", err)
	}
	return env.Type, env.Version, nil
}

// Unmarshal decodes data into out, which must be a pointer to a type that
// matches the envelope's encoded type (normally produced via
// message.Registry.CreateInstance).
func Unmarshal(data []byte, out message.Message) error {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return umpserrors.Wrap(umpserrors.KindInvalidMessage, "decoding envelope", err)
	}
	if env.Type != out.MessageType() {
		return umpserrors.New(umpserrors.KindInvalidMessageType,
			fmt.Sprintf("envelope type %q does not match target %q", env.Type, out.MessageType()))
	}
	if env.Version != out.MessageVersion() {
		return umpserrors.New(umpserrors.KindInvalidMessage,
			fmt.Sprintf("unsupported message version %q for type %q", env.Version, env.Type))
	}
	if err := decMode.Unmarshal(env.Payload, out); err != nil {
		return umpserrors.Wrap(umpserrors.KindInvalidMessage, "decoding message payload", err)
	}
	return nil
}

// Decode looks messageType up in reg, creates a blank instance, and
// unmarshals data into it in one step — the common path for a receiver
// that only knows the wire bytes.
func Decode(reg *message.Registry, data []byte) (message.Message, error) {
	msgType, _, err := PeekType(data)
	if err != nil {
		return nil, err
	}
	instance, err := reg.CreateInstance(msgType)
	if err != nil {
		return nil, umpserrors.Wrap(umpserrors.KindInvalidMessageType, "no registered factory", err)
	}
	if err := Unmarshal(data, instance); err != nil {
		return nil, err
	}
	return instance, nil
}
