package evote

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Options holds config of the evote client
type Options struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// BaseURL is the address of the remote service.
	// Default to http://localhost:8000/api/v1
	BaseURL string

	// HTTPClient is used to call the remote service
	HTTPClient *http.Client

	// UserAgent sent to the remote service
	UserAgent string

	// DataDir is the directory of the persisted session.
	// When empty and SessionStore is nil, the session is only kept in memory
	DataDir string

	// SessionStore overrides the store built from DataDir
	SessionStore SessionStore

	// RosterCacheSize is the number of candidates kept by id.
	// Default to 64
	RosterCacheSize int

	// MetricsNamespacePrefix is the namespace of every prometheus metric
	MetricsNamespacePrefix string

	// Registerer is used to register prometheus metrics.
	// Metrics are not registered when nil
	Registerer prometheus.Registerer
}

// Client wires the gateway, the auth controller, the roster and
// the vote controller of the current voter session
type Client struct {
	// mu protects vote
	mu sync.Mutex

	// vote is the vote controller of the current voter session
	vote *VoteController

	gateway *Gateway
	auth    *AuthController
	roster  *Roster
	store   SessionStore
	logger  *zerolog.Logger
	metrics *metrics
}
