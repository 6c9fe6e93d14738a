package message

const (
	InvalidMessageTypeResponseType = "UMPS::MessageFormats::InvalidMessageTypeResponse"
	invalidMessageTypeResponseVers = "1.0.0"
)

// InvalidMessageTypeResponse is the standard reply a Router or Replier
// sends back when it cannot decode an inbound request, or has no callback
// registered for its message type. Returning this instead of dropping the
// request silently keeps a strict-alternation Rep/Dealer socket answering
// exactly one reply per request.
type InvalidMessageTypeResponse struct {
	ReceivedType string `cbor:"received_type" json:"received_type"`
	Details      string `cbor:"details,omitempty" json:"details,omitempty"`
}

func (i *InvalidMessageTypeResponse) MessageVersion() string { return invalidMessageTypeResponseVers }
func (i *InvalidMessageTypeResponse) MessageType() string    { return InvalidMessageTypeResponseType }
func (i *InvalidMessageTypeResponse) CreateInstance() Message {
	return &InvalidMessageTypeResponse{}
}
