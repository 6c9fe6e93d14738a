package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGrasslandsAllowsEverything(t *testing.T) {
	g := NewGrasslandsAuthenticator()
	d := Authenticate(g, Grasslands, "10.0.0.5", nil, nil)
	require.True(t, d.Allowed)
	require.Equal(t, ReadWrite, g.MinimumUserPrivileges())
}

func TestPersistentAuthenticatorBlacklistDeniesRegardlessOfWhitelist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")
	auth, err := OpenPersistentAuthenticator(dbPath, ReadOnly)
	require.NoError(t, err)
	defer auth.Close()

	require.NoError(t, auth.Whitelist("10.0.0.1"))
	require.NoError(t, auth.Blacklist("10.0.0.1"))

	decision := Authenticate(auth, Strawhouse, "10.0.0.1", nil, nil)
	require.False(t, decision.Allowed)
	require.Equal(t, StatusClientError, decision.Status)
}

func TestPersistentAuthenticatorEmptyWhitelistAllowsAll(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")
	auth, err := OpenPersistentAuthenticator(dbPath, ReadOnly)
	require.NoError(t, err)
	defer auth.Close()

	decision := Authenticate(auth, Strawhouse, "192.168.1.1", nil, nil)
	require.True(t, decision.Allowed)
}

func TestPersistentAuthenticatorCredentialValidation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")
	auth, err := OpenPersistentAuthenticator(dbPath, ReadOnly)
	require.NoError(t, err)
	defer auth.Close()

	require.NoError(t, auth.AddUser("analyst", "correct-horse"))

	good := Authenticate(auth, Woodhouse, "127.0.0.1", &Credentials{Username: "analyst", Password: "correct-horse"}, nil)
	require.True(t, good.Allowed)

	bad := Authenticate(auth, Woodhouse, "127.0.0.1", &Credentials{Username: "analyst", Password: "wrong"}, nil)
	require.False(t, bad.Allowed)
}

func TestPersistentAuthenticatorKeyValidation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth.db")
	auth, err := OpenPersistentAuthenticator(dbPath, ReadOnly)
	require.NoError(t, err)
	defer auth.Close()

	require.NoError(t, auth.AddKey("pubkey-123"))

	good := Authenticate(auth, Stonehouse, "127.0.0.1", nil, &Keys{PublicKey: "pubkey-123"})
	require.True(t, good.Allowed)

	bad := Authenticate(auth, Stonehouse, "127.0.0.1", nil, &Keys{PublicKey: "unknown"})
	require.False(t, bad.Allowed)
}
