package auth

// GrasslandsAuthenticator admits every peer and grants read-write
// privileges, matching the Grasslands security level's "no authentication"
// contract. It is not installed by default: a transport.Socket whose
// Authenticator is nil admits every peer without consulting any
// Authenticator.
type GrasslandsAuthenticator struct{}

func NewGrasslandsAuthenticator() *GrasslandsAuthenticator { return &GrasslandsAuthenticator{} }

func (g *GrasslandsAuthenticator) IsBlacklisted(string) (int, string)        { return StatusOK, MessageOK }
func (g *GrasslandsAuthenticator) IsWhitelisted(string) (int, string)        { return StatusOK, MessageOK }
func (g *GrasslandsAuthenticator) IsValidCredentials(Credentials) (int, string) { return StatusOK, MessageOK }
func (g *GrasslandsAuthenticator) IsValidKeys(Keys) (int, string)            { return StatusOK, MessageOK }
func (g *GrasslandsAuthenticator) MinimumUserPrivileges() UserPrivileges     { return ReadWrite }
