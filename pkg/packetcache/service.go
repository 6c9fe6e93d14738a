package packetcache

import (
	"context"
	"time"

	"github.com/uofuseismo/umps-go/internal/logging"
	"github.com/uofuseismo/umps-go/internal/observability"
	"github.com/uofuseismo/umps-go/pkg/broadcast"
	"github.com/uofuseismo/umps-go/pkg/message"
	"github.com/uofuseismo/umps-go/pkg/reqrouter"
)

// Service wires a broadcast Subscriber's DataPacket ingest into a
// CappedCollection and answers QueryRequests over a reqrouter.Router,
// implementing the spec's packet cache service end to end.
type Service struct {
	collection *CappedCollection[int32]
	subscriber *broadcast.Subscriber
	router     *reqrouter.Router
	logger     logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	SubscriberAddress string
	Topic             string
	RouterAddress     string
	Capacity          int
	Registry          *message.Registry
	Logger            logging.Logger
}

// NewService constructs a Service from cfg. cfg.Registry must already have
// RegisterMessages applied.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	subscriber, err := broadcast.NewSubscriber(ctx, cfg.SubscriberAddress, cfg.Topic, cfg.Registry, cfg.Logger)
	if err != nil {
		return nil, err
	}
	router, err := reqrouter.NewRouter(ctx, reqrouter.RouterConfig{
		Address: cfg.RouterAddress, Registry: cfg.Registry, Logger: cfg.Logger,
	})
	if err != nil {
		subscriber.Close()
		return nil, err
	}

	s := &Service{
		collection: NewCappedCollection[int32](cfg.Capacity),
		subscriber: subscriber,
		router:     router,
		logger:     cfg.Logger,
	}
	if err := router.RegisterCallback(QueryRequestMessageType, s.handleQuery); err != nil {
		return nil, err
	}
	return s, nil
}

// GetTotalNumberOfPackets reports the collection's total packet count
// across every SNCL it is currently tracking.
func (s *Service) GetTotalNumberOfPackets() int {
	return s.collection.GetTotalPackets()
}

func (s *Service) handleQuery(ctx context.Context, req message.Message) (message.Message, error) {
	q := req.(*QueryRequest)
	sncl := q.Network + "." + q.Station + "." + q.Channel + "." + q.Location
	packets := s.collection.Query(sncl, q.FromMicroseconds, q.ToMicroseconds)
	return &QueryResponse{Packets: packets}, nil
}

// Start runs the ingest loop and the query router concurrently until ctx is
// canceled or Stop is called. It blocks until both exit.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	ingestDone := make(chan struct{})
	go func() {
		defer close(ingestDone)
		s.ingestLoop(runCtx)
	}()
	err := s.router.Start(runCtx)
	cancel()
	<-ingestDone

	close(s.done)
	return err
}

// StartBackground runs Start in a new goroutine.
func (s *Service) StartBackground(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("packet cache service exited", "error", err)
		}
	}()
}

func (s *Service) ingestLoop(ctx context.Context) {
	for {
		_, msg, err := s.subscriber.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("packet cache ingest receive error", "error", err)
			continue
		}
		packet, ok := msg.(*message.DataPacket[int32])
		if !ok || packet == nil {
			continue
		}
		if err := s.collection.AddPacket(packet, time.Now().UnixMicro()); err != nil {
			s.logger.Debug("packet cache rejected packet", "sncl", packet.SNCL(), "error", err)
			continue
		}
		observability.SetPacketCacheOccupancy(packet.SNCL(), s.collection.Size(packet.SNCL()))
	}
}

// Stop cancels the ingest and query loops and waits for them to exit.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.router.Stop()
}

// Close releases the service's sockets.
func (s *Service) Close() error {
	err1 := s.subscriber.Close()
	err2 := s.router.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
