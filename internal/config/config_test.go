package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReturnsDefaultsWhenUnset(t *testing.T) {
	Reset()
	cfg := Get()
	require.Equal(t, "Grasslands", cfg.SecurityLevel)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestSetOverridesDefaults(t *testing.T) {
	defer Reset()
	cfg := DefaultConfig()
	cfg.SecurityLevel = "Stonehouse"
	Set(cfg)

	require.Equal(t, "Stonehouse", Get().SecurityLevel)
}
