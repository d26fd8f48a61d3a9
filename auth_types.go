package evote

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// AuthState is the authentication state of the client.
// The state can only be Anonymous, AuthenticatedVoter, AuthenticatedAdmin
type AuthState uint32

const (
	// Anonymous means no session is held
	Anonymous AuthState = iota

	// AuthenticatedVoter means a voter session is held
	AuthenticatedVoter

	// AuthenticatedAdmin means an administrator session is held
	AuthenticatedAdmin
)

// String return a human readable auth state
func (s AuthState) String() string {
	switch s {
	case AuthenticatedVoter:
		return "authenticated_voter"
	case AuthenticatedAdmin:
		return "authenticated_admin"
	}
	return "anonymous"
}

// authStateOf returns the auth state matching the principal kind
func authStateOf(kind PrincipalKind) AuthState {
	switch kind {
	case PrincipalVoter:
		return AuthenticatedVoter
	case PrincipalAdmin:
		return AuthenticatedAdmin
	}
	return Anonymous
}

// AuthGateway is the part of the gateway used by the auth controller
type AuthGateway interface {
	// LoginVoter exchanges voter credentials for a credential
	LoginVoter(ctx context.Context, credentials VoterCredentials) (LoginResult, error)

	// LoginAdmin exchanges administrator credentials for a credential
	LoginAdmin(ctx context.Context, credentials AdminCredentials) (LoginResult, error)

	// Logout invalidates the credential on the remote service
	Logout(ctx context.Context) error

	// Me fetches the voter record of the current credential
	Me(ctx context.Context) (Voter, error)
}

// AuthControllerOptions holds config of the auth controller
type AuthControllerOptions struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// metrics is set by the Client
	metrics *metrics
}

// AuthController owns the authentication state machine
// and the persisted session
type AuthController struct {
	// mu protects session and onLogout
	mu sync.RWMutex

	// loginMu serializes logins and logouts.
	// It is never taken by Credential so the gateway can read the
	// credential while a login is in flight
	loginMu sync.Mutex

	// state is the current auth state, read with atomic helpers
	state AuthState

	// session is the current session, nil when Anonymous
	session *Session

	// onLogout hooks are called after every logout or invalidation
	onLogout []func()

	gateway AuthGateway
	store   SessionStore
	logger  *zerolog.Logger
	metrics *metrics
}
