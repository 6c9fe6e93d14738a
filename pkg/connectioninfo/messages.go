package connectioninfo

import "github.com/uofuseismo/umps-go/pkg/message"

const (
	RequestMessageType  = "UMPS::Services::ConnectionInformation::Request"
	ResponseMessageType = "UMPS::Services::ConnectionInformation::Response"
	messageVersion      = "1.0.0"
)

// Request asks the connection information service to enumerate every
// endpoint it currently knows about.
type Request struct{}

func (r *Request) MessageVersion() string  { return messageVersion }
func (r *Request) MessageType() string     { return RequestMessageType }
func (r *Request) CreateInstance() message.Message { return &Request{} }

// Response carries the registry's current contents.
type Response struct {
	Connections []Details `cbor:"connections" json:"connections"`
}

func (r *Response) MessageVersion() string  { return messageVersion }
func (r *Response) MessageType() string     { return ResponseMessageType }
func (r *Response) CreateInstance() message.Message { return &Response{} }

// RegisterMessages adds Request/Response to reg. Components that wire a
// connectioninfo.Service must call this before starting it.
func RegisterMessages(reg *message.Registry) error {
	if err := reg.Register(RequestMessageType, func() message.Message { return &Request{} }); err != nil {
		return err
	}
	return reg.Register(ResponseMessageType, func() message.Message { return &Response{} })
}
