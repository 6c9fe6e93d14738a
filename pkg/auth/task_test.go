package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTaskAuthenticatesOverChannel(t *testing.T) {
	dbPath := t.TempDir() + "/auth.db"
	persistent, err := OpenPersistentAuthenticator(dbPath, ReadOnly)
	require.NoError(t, err)
	defer persistent.Close()
	require.NoError(t, persistent.Blacklist("10.0.0.9"))

	task := NewTask(persistent, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	task.Start(ctx)
	defer task.Stop()

	reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
	defer reqCancel()

	allowed, err := task.Authenticate(reqCtx, Request{Address: "10.0.0.1", Level: Strawhouse})
	require.NoError(t, err)
	require.True(t, allowed.Allowed)

	denied, err := task.Authenticate(reqCtx, Request{Address: "10.0.0.9", Level: Strawhouse})
	require.NoError(t, err)
	require.False(t, denied.Allowed)
}

func TestTaskStopIsIdempotent(t *testing.T) {
	task := NewTask(NewGrasslandsAuthenticator(), nil)
	task.Stop()
	task.Start(context.Background())
	require.True(t, task.IsRunning())
	task.Stop()
	task.Stop()
	require.False(t, task.IsRunning())
}
