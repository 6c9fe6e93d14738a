// Package auth implements ZAP-style authentication for umps-go transports:
// security levels, user privileges, and the Authenticator contract every
// socket's ZAP handler enforces before admitting a peer.
package auth

import "github.com/uofuseismo/umps-go/internal/observability"

// SecurityLevel names the ZAP posture a socket enforces, mirroring
// original_source's umps::authentication::SecurityLevel enum.
type SecurityLevel int

const (
	// Grasslands performs no authentication; any peer is admitted.
	Grasslands SecurityLevel = iota
	// Strawhouse checks the peer's IP address against a blacklist/whitelist.
	Strawhouse
	// Woodhouse additionally requires a plain-text username/password.
	Woodhouse
	// Stonehouse additionally requires a CURVE public key on an allow list.
	Stonehouse
	// Ironhouse is Stonehouse with per-peer key pinning (no shared server key).
	Ironhouse
)

func (s SecurityLevel) String() string {
	switch s {
	case Grasslands:
		return "Grasslands"
	case Strawhouse:
		return "Strawhouse"
	case Woodhouse:
		return "Woodhouse"
	case Stonehouse:
		return "Stonehouse"
	case Ironhouse:
		return "Ironhouse"
	default:
		return "Unknown"
	}
}

// UserPrivileges ranks what an authenticated peer is allowed to do,
// mirroring original_source's umps::authentication::UserPrivileges enum
// verbatim.
type UserPrivileges int

const (
	ReadOnly UserPrivileges = iota
	ReadWrite
	Administrator
)

// Status codes returned alongside a human-readable message by every
// Authenticator decision, per original_source's authenticator.hpp static
// okayStatus/okayMessage/clientErrorStatus/serverErrorStatus constants.
const (
	StatusOK           = 200
	StatusClientError  = 400
	StatusServerError  = 500
	MessageOK          = "OK"
)

// Credentials is a plain-text username/password pair, used at Woodhouse and
// above.
type Credentials struct {
	Username string
	Password string
}

// Keys is a CURVE public-key pair presented by a peer, used at Stonehouse
// and above.
type Keys struct {
	PublicKey string
}

// Authenticator is implemented by every access-control backend a socket's
// ZAP handler can delegate to. isBlacklisted/isWhitelisted return a status
// code and message rather than a bare bool, per original_source's
// authenticator.hpp contract and per this module's resolution of the
// spec's Open Question about the two parallel authenticator hierarchies:
// one (status, message) contract is used everywhere, not a second
// ValidationResult enum.
type Authenticator interface {
	IsBlacklisted(address string) (status int, message string)
	IsWhitelisted(address string) (status int, message string)
	IsValidCredentials(creds Credentials) (status int, message string)
	IsValidKeys(keys Keys) (status int, message string)
	MinimumUserPrivileges() UserPrivileges
}

// Decision is the normalized outcome a socket's ZAP wiring consults after
// calling into an Authenticator, regardless of which check produced it.
type Decision struct {
	Allowed bool
	Status  int
	Message string
}

func allow() Decision { return Decision{Allowed: true, Status: StatusOK, Message: MessageOK} }

func deny(status int, message string) Decision {
	return Decision{Allowed: false, Status: status, Message: message}
}

// Authenticate runs the standard check sequence (blacklist, then whitelist,
// then credentials if supplied, then keys if supplied) against auth and
// returns the first denial encountered, or an overall Decision to allow.
// level is recorded against the authentication_decisions metric so
// dashboards can distinguish how often each security posture denies a
// peer.
func Authenticate(a Authenticator, level SecurityLevel, address string, creds *Credentials, keys *Keys) Decision {
	decision := authenticate(a, address, creds, keys)
	outcome := "denied"
	if decision.Allowed {
		outcome = "allowed"
	}
	observability.RecordAuthenticationDecision(level.String(), outcome)
	return decision
}

func authenticate(a Authenticator, address string, creds *Credentials, keys *Keys) Decision {
	if status, msg := a.IsBlacklisted(address); status != StatusOK {
		return deny(status, msg)
	}
	if status, msg := a.IsWhitelisted(address); status != StatusOK {
		return deny(status, msg)
	}
	if creds != nil {
		if status, msg := a.IsValidCredentials(*creds); status != StatusOK {
			return deny(status, msg)
		}
	}
	if keys != nil {
		if status, msg := a.IsValidKeys(*keys); status != StatusOK {
			return deny(status, msg)
		}
	}
	return allow()
}
