package evote

import (
	"net/http"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the default address of the remote e-voting service
	DefaultBaseURL string = "http://localhost:8000/api/v1"

	// defaultUserAgent is sent when GatewayOptions.UserAgent is empty
	defaultUserAgent string = "evote-client"

	// maxErrorTextLength caps plain text error bodies surfaced as message
	maxErrorTextLength int = 200
)

// TokenSource returns the bearer credential to attach to requests.
// An empty string means no credential
type TokenSource func() string

// GatewayOptions holds config of the remote procedure gateway
type GatewayOptions struct {
	// BaseURL is the address of the remote service including the api prefix.
	// Default to DefaultBaseURL
	BaseURL string

	// HTTPClient is the client used to issue requests.
	// Default to a client without timeout, callers bound calls with their context
	HTTPClient *http.Client

	// UserAgent sent with every request
	UserAgent string

	// TokenSource provides the bearer credential
	TokenSource TokenSource

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// metrics is set by the Client
	metrics *metrics
}

// Gateway exposes one typed method per remote operation.
// Every call is a single attempt, there is no retry
type Gateway struct {
	baseURL     string
	httpClient  *http.Client
	userAgent   string
	tokenSource TokenSource
	logger      *zerolog.Logger
	metrics     *metrics
}

// VoterCredentials are used by voters to log in
type VoterCredentials struct {
	// ExternalID is the student number (NIM)
	ExternalID string

	// Token is the single use voting token
	Token string
}

// AdminCredentials are used by administrators to log in
type AdminCredentials struct {
	Username string
	Password string
}

// LoginResult is the normalized login response
type LoginResult struct {
	// Credential is the issued bearer token
	Credential string

	// TokenType is usually bearer
	TokenType string

	// ExpiresIn is the lifetime of the credential in seconds, 0 when unknown
	ExpiresIn int64

	// Principal is the voter or administrator record
	Principal Principal
}

// Session builds the client session from the login result
func (l LoginResult) Session() Session {
	return Session{
		Credential: l.Credential,
		TokenType:  l.TokenType,
		Principal:  l.Principal,
	}
}

// response is a raw remote response
type response struct {
	status      int
	header      http.Header
	body        []byte
	requestID   string
	contentType string
}
