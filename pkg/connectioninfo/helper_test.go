package connectioninfo

import (
	"context"
	"time"

	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

func newTestClient(ctx context.Context, reg *message.Registry, address string) (*reqrouter.Request, error) {
	return reqrouter.NewRequest(ctx, reqrouter.RequestConfig{
		Address: address, Registry: reg, Timeout: time.Second,
	})
}
