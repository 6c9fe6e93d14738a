package message

import (
	"math"
	"time"
)

const (
	DataPacketInt32MessageType   = "UMPS::MessageFormats::DataPacket::Int32"
	DataPacketInt64MessageType   = "UMPS::MessageFormats::DataPacket::Int64"
	DataPacketFloat32MessageType = "UMPS::MessageFormats::DataPacket::Float32"
	DataPacketFloat64MessageType = "UMPS::MessageFormats::DataPacket::Float64"
	dataPacketMessageVersion     = "1.0.0"
)

// Sample is the set of sample types a DataPacket can carry. The original
// C++ CappedCollection template is generic over the sample's numeric type;
// Go generics model that directly.
type Sample interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// DataPacket is a fixed-rate time series segment for one station/network/
// channel/location (SNCL) identifier, the spec's core streaming payload.
type DataPacket[T Sample] struct {
	Network        string  `cbor:"network" json:"network"`
	Station        string  `cbor:"station" json:"station"`
	Channel        string  `cbor:"channel" json:"channel"`
	Location       string  `cbor:"location" json:"location"`
	SamplingRateHz float64 `cbor:"sampling_rate_hz" json:"sampling_rate_hz"`
	// StartTimeMicroseconds is signed: a segment may legitimately start
	// before the Unix epoch in historical replay scenarios, resolving the
	// spec's open question in favor of int64.
	StartTimeMicroseconds int64 `cbor:"start_time_us" json:"start_time_us"`
	Data                  []T   `cbor:"data" json:"data"`
}

// SNCL returns the dot-delimited network.station.channel.location key the
// packet cache uses to identify a stream.
func (p *DataPacket[T]) SNCL() string {
	return p.Network + "." + p.Station + "." + p.Channel + "." + p.Location
}

// StartTime returns the packet's start time as a time.Time in UTC.
func (p *DataPacket[T]) StartTime() time.Time {
	return time.UnixMicro(p.StartTimeMicroseconds).UTC()
}

// EndTimeMicroseconds returns the timestamp, in microseconds, of the last
// sample in the packet. A packet with zero samples has no meaningful end
// time and returns StartTimeMicroseconds unchanged.
func (p *DataPacket[T]) EndTimeMicroseconds() int64 {
	n := len(p.Data)
	if n == 0 || p.SamplingRateHz <= 0 {
		return p.StartTimeMicroseconds
	}
	deltaUs := int64(math.Round(float64(n-1) / p.SamplingRateHz * 1e6))
	return p.StartTimeMicroseconds + deltaUs
}

func (p *DataPacket[T]) MessageVersion() string { return dataPacketMessageVersion }

func (p *DataPacket[T]) MessageType() string {
	var zero T
	switch any(zero).(type) {
	case int32:
		return DataPacketInt32MessageType
	case int64:
		return DataPacketInt64MessageType
	case float32:
		return DataPacketFloat32MessageType
	default:
		return DataPacketFloat64MessageType
	}
}

func (p *DataPacket[T]) CreateInstance() Message { return &DataPacket[T]{} }
