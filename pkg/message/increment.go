package message

const (
	IncrementRequestMessageType  = "UMPS::Services::Incrementer::IncrementRequest"
	IncrementResponseMessageType = "UMPS::Services::Incrementer::IncrementResponse"
	incrementMessageVersion      = "1.0.0"
)

// IncrementRequest asks the incrementer service for the next value of a
// named counter (original_source's umps::services::incrementer::Service),
// a feature the distilled spec dropped but the original implements as the
// simplest possible request/router consumer.
type IncrementRequest struct {
	Item string `cbor:"item" json:"item"`
}

func (i *IncrementRequest) MessageVersion() string  { return incrementMessageVersion }
func (i *IncrementRequest) MessageType() string     { return IncrementRequestMessageType }
func (i *IncrementRequest) CreateInstance() Message { return &IncrementRequest{} }

// IncrementResponse carries the next value for the requested item.
type IncrementResponse struct {
	Item  string `cbor:"item" json:"item"`
	Value int64  `cbor:"value" json:"value"`
}

func (i *IncrementResponse) MessageVersion() string  { return incrementMessageVersion }
func (i *IncrementResponse) MessageType() string     { return IncrementResponseMessageType }
func (i *IncrementResponse) CreateInstance() Message { return &IncrementResponse{} }
