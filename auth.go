package evote

import (
	"context"
	"fmt"
	"strings"
)

// NewAuthController builds the auth controller and restores
// the session persisted by the store, if any
func NewAuthController(gateway AuthGateway, store SessionStore, options AuthControllerOptions) *AuthController {
	a := &AuthController{
		gateway: gateway,
		store:   store,
		logger:  nopLoggerIfNil(options.Logger),
		metrics: options.metrics,
	}
	if a.metrics == nil {
		a.metrics = newMetrics("", nil)
	}

	session, err := store.Load()
	if err != nil {
		a.logger.Warn().Err(err).Msg("Fail to restore session, starting anonymous")
	}
	if session != nil && session.valid() {
		a.session = session
		a.setState(authStateOf(session.Kind()))
		a.logger.Debug().
			Str("principal", session.Kind().String()).
			Int64("principalId", session.Principal.PrincipalID()).
			Msg("Session restored")
	} else {
		a.setState(Anonymous)
	}
	return a
}

// LoginVoter logs in a voter with the student number and the single use token
func (a *AuthController) LoginVoter(ctx context.Context, externalID, token string) (Session, error) {
	const op = "loginVoter"
	externalID, token = strings.TrimSpace(externalID), strings.TrimSpace(token)
	fields := map[string][]string{}
	if externalID == "" {
		fields["nim"] = []string{"student number is required"}
	}
	if token == "" {
		fields["token"] = []string{"token is required"}
	}
	if len(fields) > 0 {
		return Session{}, &Error{Kind: KindValidation, Op: op, Message: firstFieldError(fields), Fields: fields}
	}

	return a.login(op, func() (LoginResult, error) {
		return a.gateway.LoginVoter(ctx, VoterCredentials{ExternalID: externalID, Token: token})
	})
}

// LoginAdmin logs in an administrator
func (a *AuthController) LoginAdmin(ctx context.Context, username, password string) (Session, error) {
	const op = "loginAdmin"
	username = strings.TrimSpace(username)
	fields := map[string][]string{}
	if username == "" {
		fields["username"] = []string{"username is required"}
	}
	if password == "" {
		fields["password"] = []string{"password is required"}
	}
	if len(fields) > 0 {
		return Session{}, &Error{Kind: KindValidation, Op: op, Message: firstFieldError(fields), Fields: fields}
	}

	return a.login(op, func() (LoginResult, error) {
		return a.gateway.LoginAdmin(ctx, AdminCredentials{Username: username, Password: password})
	})
}

// login runs the remote login and persists the resulting session
func (a *AuthController) login(op string, call func() (LoginResult, error)) (Session, error) {
	a.loginMu.Lock()
	defer a.loginMu.Unlock()

	if a.getState() != Anonymous {
		return Session{}, ErrAlreadyAuthenticated
	}

	result, err := call()
	if err != nil {
		a.logger.Info().Err(err).Str("operation", op).Msg("Login rejected")
		return Session{}, err
	}

	session := result.Session()
	if !session.valid() {
		return Session{}, newError(KindServerError, op, "login response without a usable session", nil)
	}
	if err := a.store.Save(session); err != nil {
		a.logger.Error().Err(err).Str("operation", op).Msg("Fail to persist session")
		return Session{}, fmt.Errorf("fail to persist session: %w", err)
	}

	a.mu.Lock()
	a.session = &session
	a.mu.Unlock()
	a.setState(authStateOf(session.Kind()))

	a.logger.Info().
		Str("principal", session.Kind().String()).
		Int64("principalId", session.Principal.PrincipalID()).
		Msg("Logged in")
	return session, nil
}

// Logout invalidates the credential on the remote service on a best effort
// basis, then always clears the local session. While Anonymous only the
// store is cleared, it may still hold undecodable entries
func (a *AuthController) Logout(ctx context.Context) {
	a.loginMu.Lock()
	defer a.loginMu.Unlock()

	if a.getState() == Anonymous {
		if err := a.store.Clear(); err != nil {
			a.logger.Error().Err(err).Msg("Fail to clear persisted session")
		}
		return
	}
	if err := a.gateway.Logout(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Fail to invalidate credential on remote service")
	}
	a.clear()
}

// Invalidate clears the local session without calling the remote service.
// It is used when the remote service answered Unauthorized
func (a *AuthController) Invalidate() {
	a.loginMu.Lock()
	defer a.loginMu.Unlock()

	if a.getState() == Anonymous {
		return
	}
	a.clear()
}

// clear drops the session and calls the logout hooks
func (a *AuthController) clear() {
	if err := a.store.Clear(); err != nil {
		a.logger.Error().Err(err).Msg("Fail to clear persisted session")
	}

	a.mu.Lock()
	a.session = nil
	hooks := make([]func(), len(a.onLogout))
	copy(hooks, a.onLogout)
	a.mu.Unlock()
	a.setState(Anonymous)

	for _, hook := range hooks {
		hook()
	}
	a.logger.Info().Msg("Logged out")
}

// OnLogout registers a hook called after every logout or invalidation
func (a *AuthController) OnLogout(hook func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLogout = append(a.onLogout, hook)
}

// State returns the current auth state
func (a *AuthController) State() AuthState {
	return a.getState()
}

// Session returns a copy of the current session
func (a *AuthController) Session() (Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return Session{}, false
	}
	return *a.session, true
}

// Credential returns the current credential, empty when Anonymous
func (a *AuthController) Credential() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return ""
	}
	return a.session.Credential
}

// IsAuthenticated reports whether a session is held
func (a *AuthController) IsAuthenticated() bool {
	return a.getState() != Anonymous
}

// IsVoter reports whether a voter session is held
func (a *AuthController) IsVoter() bool {
	return a.getState() == AuthenticatedVoter
}

// IsAdmin reports whether an administrator session is held
func (a *AuthController) IsAdmin() bool {
	return a.getState() == AuthenticatedAdmin
}

// RequireVoter returns an error unless a voter session is held
func (a *AuthController) RequireVoter() error {
	switch a.getState() {
	case AuthenticatedVoter:
		return nil
	case Anonymous:
		return ErrNotAuthenticated
	}
	return ErrWrongPrincipal
}

// RequireAdmin returns an error unless an administrator session is held
func (a *AuthController) RequireAdmin() error {
	switch a.getState() {
	case AuthenticatedAdmin:
		return nil
	case Anonymous:
		return ErrNotAuthenticated
	}
	return ErrWrongPrincipal
}

// MarkVoted flips the HasVoted flag of the voter and persists the session.
// It does nothing when the flag is already set. ErrWrongPrincipal is
// returned when the session belongs to anyone else
func (a *AuthController) MarkVoted(voterID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ErrNotAuthenticated
	}
	voter, ok := a.session.Voter()
	if !ok || voter.ID != voterID {
		return ErrWrongPrincipal
	}
	if voter.HasVoted {
		return nil
	}

	voter.HasVoted = true
	session := *a.session
	session.Principal = voter
	if err := a.store.Save(session); err != nil {
		return err
	}
	a.session = &session
	return nil
}

// RefreshPrincipal reloads the voter record from the remote service
// and persists it. HasVoted never goes back to false
func (a *AuthController) RefreshPrincipal(ctx context.Context) (Voter, error) {
	if err := a.RequireVoter(); err != nil {
		return Voter{}, err
	}

	voter, err := a.gateway.Me(ctx)
	if err != nil {
		return Voter{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// a logout may have happened during the call
	if a.session == nil {
		return Voter{}, ErrNotAuthenticated
	}
	current, ok := a.session.Voter()
	if !ok {
		return Voter{}, ErrWrongPrincipal
	}
	if current.HasVoted {
		voter.HasVoted = true
	}

	session := *a.session
	session.Principal = voter
	if err := a.store.Save(session); err != nil {
		return Voter{}, err
	}
	a.session = &session
	return voter, nil
}
