package packetcache

import "github.com/uofuseismo/umps-go/pkg/message"

const (
	QueryRequestMessageType  = "UMPS::ProxyServices::PacketCache::QueryRequest"
	QueryResponseMessageType = "UMPS::ProxyServices::PacketCache::QueryResponse"
	messageVersion           = "1.0.0"
)

// QueryRequest asks the packet cache service for every packet cached for
// one SNCL overlapping a time range.
type QueryRequest struct {
	Network          string `cbor:"network" json:"network"`
	Station          string `cbor:"station" json:"station"`
	Channel          string `cbor:"channel" json:"channel"`
	Location         string `cbor:"location" json:"location"`
	FromMicroseconds int64  `cbor:"from_us" json:"from_us"`
	ToMicroseconds   int64  `cbor:"to_us" json:"to_us"`
}

func (q *QueryRequest) MessageVersion() string          { return messageVersion }
func (q *QueryRequest) MessageType() string              { return QueryRequestMessageType }
func (q *QueryRequest) CreateInstance() message.Message { return &QueryRequest{} }

// QueryResponse carries the packets matching a QueryRequest.
type QueryResponse struct {
	Packets []*message.DataPacket[int32] `cbor:"packets" json:"packets"`
}

func (q *QueryResponse) MessageVersion() string          { return messageVersion }
func (q *QueryResponse) MessageType() string              { return QueryResponseMessageType }
func (q *QueryResponse) CreateInstance() message.Message { return &QueryResponse{} }

// RegisterMessages adds QueryRequest/QueryResponse to reg.
func RegisterMessages(reg *message.Registry) error {
	if err := reg.Register(QueryRequestMessageType, func() message.Message { return &QueryRequest{} }); err != nil {
		return err
	}
	return reg.Register(QueryResponseMessageType, func() message.Message { return &QueryResponse{} })
}
