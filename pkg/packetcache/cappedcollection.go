// Package packetcache implements the capped packet collection: a bounded,
// per-SNCL ring buffer of recent DataPacket samples, and the packet cache
// service that wires a broadcast subscriber's ingest into the ring and
// answers range queries over a request/router replier. Grounded on
// original_source's urts/applications/packetCache/cappedCollection.hpp,
// which is itself generic over the sample type — Go generics model that
// template directly.
package packetcache

import (
	"sort"
	"sync"

	"github.com/uofuseismo/umps-go/internal/umpserrors"
	"github.com/uofuseismo/umps-go/pkg/message"
)

// DefaultCapacity bounds how many packets a single SNCL's ring retains
// before the oldest is evicted to make room for a new one.
const DefaultCapacity = 100

type entry[T message.Sample] struct {
	packet  *message.DataPacket[T]
	addedAt int64
}

// sncl holds the bounded ring for one station/network/channel/location.
type sncl[T message.Sample] struct {
	mu       sync.Mutex
	capacity int
	packets  []entry[T]
}

func newSNCL[T message.Sample](capacity int) *sncl[T] {
	return &sncl[T]{capacity: capacity}
}

// add inserts p in start-time order. An exact duplicate start time is
// dropped; a packet older than the ring's oldest entry is dropped once the
// ring is full ("expired when full"); otherwise p is inserted in time order
// and the oldest entry is evicted if the ring now exceeds capacity.
func (s *sncl[T]) add(p *message.DataPacket[T], nowMicros int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.packets), func(i int) bool {
		return s.packets[i].packet.StartTimeMicroseconds >= p.StartTimeMicroseconds
	})
	if idx < len(s.packets) && s.packets[idx].packet.StartTimeMicroseconds == p.StartTimeMicroseconds {
		return umpserrors.New(umpserrors.KindInvalidArgument, "duplicate packet start time")
	}
	if len(s.packets) >= s.capacity && len(s.packets) > 0 && p.StartTimeMicroseconds < s.packets[0].packet.StartTimeMicroseconds {
		return umpserrors.New(umpserrors.KindInvalidArgument, "packet expired: older than ring's oldest entry while full")
	}

	s.packets = append(s.packets, entry[T]{})
	copy(s.packets[idx+1:], s.packets[idx:])
	s.packets[idx] = entry[T]{packet: p, addedAt: nowMicros}

	if len(s.packets) > s.capacity {
		s.packets = s.packets[1:]
	}
	return nil
}

// query returns every packet whose [start, end] window intersects
// [fromMicros, toMicros], in ascending start-time order.
func (s *sncl[T]) query(fromMicros, toMicros int64) []*message.DataPacket[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*message.DataPacket[T], 0)
	for _, e := range s.packets {
		p := e.packet
		if p.EndTimeMicroseconds() < fromMicros || p.StartTimeMicroseconds > toMicros {
			continue
		}
		out = append(out, p)
	}
	return out
}

// expireBefore drops every packet added before cutoffMicros, regardless of
// its own timestamp, implementing the collection's age-based eviction.
func (s *sncl[T]) expireBefore(cutoffMicros int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.packets[:0]
	for _, e := range s.packets {
		if e.addedAt >= cutoffMicros {
			kept = append(kept, e)
		}
	}
	s.packets = kept
}

func (s *sncl[T]) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.packets)
}

// CappedCollection is a thread-safe collection of bounded per-SNCL rings,
// generic over the sample type it stores.
type CappedCollection[T message.Sample] struct {
	mu       sync.RWMutex
	capacity int
	rings    map[string]*sncl[T]
}

// NewCappedCollection returns an empty CappedCollection whose rings each
// hold up to capacity packets.
func NewCappedCollection[T message.Sample](capacity int) *CappedCollection[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &CappedCollection[T]{capacity: capacity, rings: make(map[string]*sncl[T])}
}

func (c *CappedCollection[T]) ringFor(key string) *sncl[T] {
	c.mu.RLock()
	ring, ok := c.rings[key]
	c.mu.RUnlock()
	if ok {
		return ring
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ring, ok = c.rings[key]; ok {
		return ring
	}
	ring = newSNCL[T](c.capacity)
	c.rings[key] = ring
	return ring
}

// AddPacket inserts p into its SNCL's ring. nowMicros is the ingest
// timestamp used for age-based expiration, independent of the packet's own
// StartTimeMicroseconds. p is rejected outright if its SNCL fields are
// empty, its sampling rate is non-positive, or it carries no samples.
func (c *CappedCollection[T]) AddPacket(p *message.DataPacket[T], nowMicros int64) error {
	if p.Network == "" || p.Station == "" || p.Channel == "" || p.Location == "" {
		return umpserrors.New(umpserrors.KindInvalidArgument, "SNCL fields must not be empty")
	}
	if p.SamplingRateHz <= 0 {
		return umpserrors.New(umpserrors.KindInvalidArgument, "sampling rate must be positive")
	}
	if len(p.Data) == 0 {
		return umpserrors.New(umpserrors.KindInvalidArgument, "packet must contain at least one sample")
	}
	return c.ringFor(p.SNCL()).add(p, nowMicros)
}

// HaveSensor reports whether any packets are currently cached for sncl.
func (c *CappedCollection[T]) HaveSensor(sncl string) bool {
	c.mu.RLock()
	ring, ok := c.rings[sncl]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	return ring.size() > 0
}

// Query returns every cached packet for sncl overlapping
// [fromMicros, toMicros].
func (c *CappedCollection[T]) Query(sncl string, fromMicros, toMicros int64) []*message.DataPacket[T] {
	c.mu.RLock()
	ring, ok := c.rings[sncl]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	return ring.query(fromMicros, toMicros)
}

// Size returns the number of packets currently cached for sncl.
func (c *CappedCollection[T]) Size(sncl string) int {
	c.mu.RLock()
	ring, ok := c.rings[sncl]
	c.mu.RUnlock()
	if !ok {
		return 0
	}
	return ring.size()
}

// ExpireBefore drops every packet ingested before cutoffMicros across every
// tracked SNCL.
func (c *CappedCollection[T]) ExpireBefore(cutoffMicros int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ring := range c.rings {
		ring.expireBefore(cutoffMicros)
	}
}

// GetTotalPackets reports the number of packets currently cached across
// every tracked SNCL, the collection-wide count named by getTotalPackets.
func (c *CappedCollection[T]) GetTotalPackets() int {
	c.mu.RLock()
	rings := make([]*sncl[T], 0, len(c.rings))
	for _, ring := range c.rings {
		rings = append(rings, ring)
	}
	c.mu.RUnlock()

	total := 0
	for _, ring := range rings {
		total += ring.size()
	}
	return total
}

// Sensors returns the SNCL keys currently tracked.
func (c *CappedCollection[T]) Sensors() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.rings))
	for k := range c.rings {
		out = append(out, k)
	}
	return out
}
