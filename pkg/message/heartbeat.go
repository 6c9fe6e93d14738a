package message

const (
	HeartbeatMessageType    = "UMPS::MessageFormats::Heartbeat"
	heartbeatMessageVersion = "1.0.0"
)

// Heartbeat is broadcast periodically by a running module so that
// subscribers can observe it is alive without round-tripping through the
// command plane.
type Heartbeat struct {
	Module           string `cbor:"module" json:"module"`
	InstanceID       string `cbor:"instance_id" json:"instance_id"`
	TimeMicroseconds int64  `cbor:"time_us" json:"time_us"`
	SequenceNumber   uint64 `cbor:"sequence_number" json:"sequence_number"`
}

func (h *Heartbeat) MessageVersion() string  { return heartbeatMessageVersion }
func (h *Heartbeat) MessageType() string     { return HeartbeatMessageType }
func (h *Heartbeat) CreateInstance() Message { return &Heartbeat{} }
