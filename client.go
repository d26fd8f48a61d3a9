package evote

import (
	"context"
)

// NewClient builds the evote client and restores the persisted session
func NewClient(options Options) (*Client, error) {
	logger := nopLoggerIfNil(options.Logger)
	store := options.SessionStore
	if store == nil {
		if options.DataDir == "" {
			store = NewMemorySessionStore()
		} else {
			bolt, err := NewBoltSessionStore(BoltOptions{DataDir: options.DataDir, Logger: logger})
			if err != nil {
				return nil, err
			}
			store = bolt
		}
	}

	c := &Client{
		store:   store,
		logger:  logger,
		metrics: newMetrics(options.MetricsNamespacePrefix, options.Registerer),
	}
	c.gateway = NewGateway(GatewayOptions{
		BaseURL:     options.BaseURL,
		HTTPClient:  options.HTTPClient,
		UserAgent:   options.UserAgent,
		TokenSource: func() string { return c.auth.Credential() },
		Logger:      logger,
		metrics:     c.metrics,
	})
	c.auth = NewAuthController(c.gateway, store, AuthControllerOptions{Logger: logger, metrics: c.metrics})
	c.roster = NewRoster(c.gateway, RosterOptions{CacheSize: options.RosterCacheSize, Logger: logger})

	c.auth.OnLogout(func() {
		c.mu.Lock()
		if c.vote != nil {
			c.vote.Close()
		}
		c.vote = nil
		c.mu.Unlock()
		c.roster.Reset()
	})
	return c, nil
}

// Gateway returns the remote procedure gateway
func (c *Client) Gateway() *Gateway {
	return c.gateway
}

// Auth returns the auth controller
func (c *Client) Auth() *AuthController {
	return c.auth
}

// Roster returns the candidate roster cache
func (c *Client) Roster() *Roster {
	return c.roster
}

// Voting returns the vote controller of the current voter session.
// The status is checked when it is still Unknown, the controller is
// returned even if the check failed
func (c *Client) Voting(ctx context.Context) (*VoteController, error) {
	if err := c.auth.RequireVoter(); err != nil {
		return nil, err
	}
	session, _ := c.auth.Session()
	voter, ok := session.Voter()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.vote == nil {
		c.vote = NewVoteController(c.gateway, VoteControllerOptions{
			Logger:  c.logger,
			OnVoted: func() { c.onVoted(voter.ID) },
			metrics: c.metrics,
		})
	}
	vote := c.vote
	c.mu.Unlock()

	if vote.State() == Unknown {
		if _, err := vote.CheckStatus(ctx); err != nil {
			return vote, err
		}
	}
	return vote, nil
}

// onVoted persists the HasVoted flag of the voter who submitted
func (c *Client) onVoted(voterID int64) {
	if err := c.auth.MarkVoted(voterID); err != nil {
		c.logger.Warn().Err(err).Int64("voterId", voterID).Msg("Fail to persist voted flag")
	}
}

// DropSessionOnUnauthorized clears the local session when err is
// KindUnauthorized and reports whether it did. A rejected login holds
// no session so nothing is dropped
func (c *Client) DropSessionOnUnauthorized(err error) bool {
	if !IsKind(err, KindUnauthorized) || !c.auth.IsAuthenticated() {
		return false
	}
	c.auth.Invalidate()
	return true
}

// Close releases the session store
func (c *Client) Close() error {
	return c.store.Close()
}
