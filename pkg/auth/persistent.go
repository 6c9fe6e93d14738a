package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/uofuseismo/umps-go/internal/umpserrors"
)

var (
	blacklistBucket  = []byte("blacklist")
	whitelistBucket  = []byte("whitelist")
	credentialBucket = []byte("credentials")
	keysBucket       = []byte("keys")
)

// PersistentAuthenticator is a bbolt-backed Authenticator implementing the
// spec's "persistent authenticator (sqlite-backed)" requirement. bbolt
// substitutes for sqlite3 here: it's the pack's own embedded, transactional,
// pure-Go key/value store, and every table this authenticator needs is a
// simple point-lookup/set-membership table with no relational joins.
type PersistentAuthenticator struct {
	db                     *bbolt.DB
	minimumUserPrivileges  UserPrivileges
}

// OpenPersistentAuthenticator opens (creating if necessary) a bbolt
// database at path and ensures its buckets exist.
func OpenPersistentAuthenticator(path string, minimumUserPrivileges UserPrivileges) (*PersistentAuthenticator, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, umpserrors.Wrap(umpserrors.KindTransport, "opening authenticator database", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{blacklistBucket, whitelistBucket, credentialBucket, keysBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, umpserrors.Wrap(umpserrors.KindTransport, "initializing authenticator buckets", err)
	}
	return &PersistentAuthenticator{db: db, minimumUserPrivileges: minimumUserPrivileges}, nil
}

// Close releases the underlying database file.
func (p *PersistentAuthenticator) Close() error {
	return p.db.Close()
}

func hashSecret(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return []byte(hex.EncodeToString(sum[:]))
}

// Blacklist adds address to the blacklist table.
func (p *PersistentAuthenticator) Blacklist(address string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blacklistBucket).Put([]byte(address), []byte{1})
	})
}

// Whitelist adds address to the whitelist table.
func (p *PersistentAuthenticator) Whitelist(address string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(whitelistBucket).Put([]byte(address), []byte{1})
	})
}

// RemoveFromBlacklist removes address from the blacklist table, if present.
func (p *PersistentAuthenticator) RemoveFromBlacklist(address string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(blacklistBucket).Delete([]byte(address))
	})
}

// AddUser stores a username/password pair, hashed at rest.
func (p *PersistentAuthenticator) AddUser(username, password string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(credentialBucket).Put([]byte(username), hashSecret(password))
	})
}

// AddKey authorizes a CURVE public key.
func (p *PersistentAuthenticator) AddKey(publicKey string) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(keysBucket).Put([]byte(publicKey), []byte{1})
	})
}

func (p *PersistentAuthenticator) IsBlacklisted(address string) (int, string) {
	var blacklisted bool
	_ = p.db.View(func(tx *bbolt.Tx) error {
		blacklisted = tx.Bucket(blacklistBucket).Get([]byte(address)) != nil
		return nil
	})
	if blacklisted {
		return StatusClientError, fmt.Sprintf("address %s is blacklisted", address)
	}
	return StatusOK, MessageOK
}

func (p *PersistentAuthenticator) IsWhitelisted(address string) (int, string) {
	var whitelisted, anyEntries bool
	_ = p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(whitelistBucket)
		anyEntries = b.Stats().KeyN > 0
		whitelisted = b.Get([]byte(address)) != nil
		return nil
	})
	// An empty whitelist table means whitelisting is not in effect.
	if !anyEntries || whitelisted {
		return StatusOK, MessageOK
	}
	return StatusClientError, fmt.Sprintf("address %s is not whitelisted", address)
}

func (p *PersistentAuthenticator) IsValidCredentials(creds Credentials) (int, string) {
	var stored []byte
	_ = p.db.View(func(tx *bbolt.Tx) error {
		stored = tx.Bucket(credentialBucket).Get([]byte(creds.Username))
		return nil
	})
	if stored == nil {
		return StatusClientError, "unknown user"
	}
	if subtle.ConstantTimeCompare(stored, hashSecret(creds.Password)) != 1 {
		return StatusClientError, "invalid password"
	}
	return StatusOK, MessageOK
}

func (p *PersistentAuthenticator) IsValidKeys(keys Keys) (int, string) {
	var known bool
	_ = p.db.View(func(tx *bbolt.Tx) error {
		known = tx.Bucket(keysBucket).Get([]byte(keys.PublicKey)) != nil
		return nil
	})
	if !known {
		return StatusClientError, "unrecognized public key"
	}
	return StatusOK, MessageOK
}

func (p *PersistentAuthenticator) MinimumUserPrivileges() UserPrivileges {
	return p.minimumUserPrivileges
}
