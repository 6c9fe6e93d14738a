package umpserrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("socket reset")
	err := Wrap(KindTransport, "failed to send frame", base)

	require.Equal(t, "transport_error: failed to send frame: socket reset", err.Error())
	require.Equal(t, base, err.Unwrap())
}

func TestIsWalksChain(t *testing.T) {
	inner := New(KindTimeout, "request timed out")
	outer := Wrap(KindAlgorithmFailure, "dispatch failed", inner)

	require.True(t, Is(outer, KindAlgorithmFailure))
	require.True(t, Is(outer, KindTimeout))
	require.False(t, Is(outer, KindNotRunning))
}
