package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/umps-go/pkg/message"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	pick := &message.Pick{
		Identifier: 84823, Network: "UU", Station: "NOQ", Channel: "HHZ", Location: "01",
		TimeMicroseconds: 42, Phase: message.PhaseHintP, Polarity: message.PolarityUp,
		Algorithm: "stalta",
	}

	data, err := Marshal(pick)
	require.NoError(t, err)

	mt, version, err := PeekType(data)
	require.NoError(t, err)
	require.Equal(t, message.PickMessageType, mt)
	require.Equal(t, pick.MessageVersion(), version)

	var out message.Pick
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, *pick, out)
}

func TestDecodeUsesRegistry(t *testing.T) {
	reg := message.NewStandardRegistry()
	hb := &message.Heartbeat{Module: "picker", InstanceID: "i-1", TimeMicroseconds: 7, SequenceNumber: 3}

	data, err := Marshal(hb)
	require.NoError(t, err)

	decoded, err := Decode(reg, data)
	require.NoError(t, err)
	got, ok := decoded.(*message.Heartbeat)
	require.True(t, ok)
	require.Equal(t, hb, got)
}

func TestUnmarshalRejectsTypeMismatch(t *testing.T) {
	pick := &message.Pick{Identifier: 7}
	data, err := Marshal(pick)
	require.NoError(t, err)

	var hb message.Heartbeat
	err = Unmarshal(data, &hb)
	require.Error(t, err)
}
