// Package commandplane implements the module command plane: a local IPC
// command service every module runs so operators can query it for its
// available commands or ask it to terminate, and a remote Proxy that keeps
// a live-module table by pinging each registered module and advancing a
// liveness state machine when pings are missed.
package commandplane

// LivenessState is the module command plane's per-module liveness state
// machine: Unknown -> Registering -> Alive <-> Missed -> Dead.
type LivenessState int

const (
	LivenessUnknown LivenessState = iota
	LivenessRegistering
	LivenessAlive
	LivenessMissed
	LivenessDead
)

func (s LivenessState) String() string {
	switch s {
	case LivenessRegistering:
		return "registering"
	case LivenessAlive:
		return "alive"
	case LivenessMissed:
		return "missed"
	case LivenessDead:
		return "dead"
	default:
		return "unknown"
	}
}
