package message

import "time"

const (
	PickMessageType    = "UMPS::MessageFormats::Pick"
	pickMessageVersion = "1.0.0"
)

// Polarity is the first-motion polarity an analyst or picker algorithm
// assigns to an arrival.
type Polarity string

const (
	PolarityUp      Polarity = "up"
	PolarityDown    Polarity = "down"
	PolarityUnknown Polarity = "unknown"
)

// PhaseHint names the seismic phase a pick most likely corresponds to.
type PhaseHint string

const (
	PhaseHintP       PhaseHint = "P"
	PhaseHintS       PhaseHint = "S"
	PhaseHintUnknown PhaseHint = "unknown"
)

// Pick is a single phase arrival time estimate for one SNCL, produced by a
// detector and broadcast to downstream association/magnitude consumers.
type Pick struct {
	Identifier       uint64    `cbor:"identifier" json:"identifier"`
	Network          string    `cbor:"network" json:"network"`
	Station          string    `cbor:"station" json:"station"`
	Channel          string    `cbor:"channel" json:"channel"`
	Location         string    `cbor:"location" json:"location"`
	TimeMicroseconds int64     `cbor:"time_us" json:"time_us"`
	Phase            PhaseHint `cbor:"phase" json:"phase"`
	Polarity         Polarity  `cbor:"polarity" json:"polarity"`
	Algorithm        string    `cbor:"algorithm" json:"algorithm"`
}

// Time returns the pick's arrival time as a time.Time in UTC.
func (p *Pick) Time() time.Time {
	return time.UnixMicro(p.TimeMicroseconds).UTC()
}

func (p *Pick) MessageVersion() string   { return pickMessageVersion }
func (p *Pick) MessageType() string      { return PickMessageType }
func (p *Pick) CreateInstance() Message  { return &Pick{} }
