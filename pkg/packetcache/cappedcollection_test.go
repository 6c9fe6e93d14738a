package packetcache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
)

func packetAt(start int64) *message.DataPacket[int32] {
	return &message.DataPacket[int32]{
		Network: "UU", Station: "NOQ", Channel: "HHZ", Location: "01",
		SamplingRateHz: 100, StartTimeMicroseconds: start, Data: []int32{1, 2, 3},
	}
}

func TestCappedCollectionEnforcesCapacity(t *testing.T) {
	c := NewCappedCollection[int32](3)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, c.AddPacket(packetAt(i*1000), i))
	}
	require.Equal(t, 3, len(c.Query("UU.NOQ.HHZ.01", 0, 10_000)))
}

func TestCappedCollectionRejectsDuplicateStartTime(t *testing.T) {
	c := NewCappedCollection[int32](10)
	require.NoError(t, c.AddPacket(packetAt(1000), 0))
	require.Error(t, c.AddPacket(packetAt(1000), 1))
}

func TestCappedCollectionTimeRangeQuery(t *testing.T) {
	c := NewCappedCollection[int32](100)
	for i := int64(0); i < 10; i++ {
		require.NoError(t, c.AddPacket(packetAt(i*1_000_000), i))
	}
	// Packets start at 0, 1e6, 2e6, ..., 9e6 microseconds; querying
	// [3e6, 6e6] should return the 4 packets starting at 3e6..6e6.
	got := c.Query("UU.NOQ.HHZ.01", 3_000_000, 6_000_000)
	require.Len(t, got, 4)
	require.Equal(t, int64(3_000_000), got[0].StartTimeMicroseconds)
	require.Equal(t, int64(6_000_000), got[3].StartTimeMicroseconds)
}

func TestCappedCollectionExpireBefore(t *testing.T) {
	c := NewCappedCollection[int32](100)
	require.NoError(t, c.AddPacket(packetAt(0), 10))
	require.NoError(t, c.AddPacket(packetAt(1000), 20))
	c.ExpireBefore(15)
	require.Equal(t, 1, len(c.Query("UU.NOQ.HHZ.01", 0, 100_000)))
}

func TestHaveSensor(t *testing.T) {
	c := NewCappedCollection[int32](10)
	require.False(t, c.HaveSensor("UU.NOQ.HHZ.01"))
	require.NoError(t, c.AddPacket(packetAt(0), 0))
	require.True(t, c.HaveSensor("UU.NOQ.HHZ.01"))
}

func TestAddPacketRejectsEmptySNCLFields(t *testing.T) {
	c := NewCappedCollection[int32](10)
	p := packetAt(0)
	p.Station = ""
	require.Error(t, c.AddPacket(p, 0))
}

func TestAddPacketRejectsNonPositiveSamplingRate(t *testing.T) {
	c := NewCappedCollection[int32](10)
	p := packetAt(0)
	p.SamplingRateHz = 0
	require.Error(t, c.AddPacket(p, 0))
}

func TestAddPacketRejectsEmptyData(t *testing.T) {
	c := NewCappedCollection[int32](10)
	p := packetAt(0)
	p.Data = nil
	require.Error(t, c.AddPacket(p, 0))
}

func TestAddPacketRejectsExpiredWhenFull(t *testing.T) {
	c := NewCappedCollection[int32](2)
	require.NoError(t, c.AddPacket(packetAt(1000), 0))
	require.NoError(t, c.AddPacket(packetAt(2000), 1))
	require.Error(t, c.AddPacket(packetAt(500), 2))
	require.Equal(t, 2, len(c.Query("UU.NOQ.HHZ.01", 0, 10_000)))
}

func TestGetTotalPackets(t *testing.T) {
	c := NewCappedCollection[int32](10)
	require.Equal(t, 0, c.GetTotalPackets())
	require.NoError(t, c.AddPacket(packetAt(0), 0))
	require.NoError(t, c.AddPacket(packetAt(1000), 1))
	require.Equal(t, 2, c.GetTotalPackets())
}
