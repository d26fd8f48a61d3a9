package evote

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testVoterLogin() LoginResult {
	session := testVoterSession()
	return LoginResult{
		Credential: session.Credential,
		TokenType:  session.TokenType,
		ExpiresIn:  3600,
		Principal:  session.Principal,
	}
}

func testAdminLogin() LoginResult {
	session := testAdminSession()
	return LoginResult{
		Credential: session.Credential,
		TokenType:  session.TokenType,
		Principal:  session.Principal,
	}
}

func TestAuthController(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("starts_anonymous", func(t *testing.T) {
		auth := NewAuthController(&MockGatewayTestify{}, NewMemorySessionStore(), AuthControllerOptions{})
		assert.Equal(Anonymous, auth.State())
		assert.False(auth.IsAuthenticated())
		assert.Equal("", auth.Credential())
		_, ok := auth.Session()
		assert.False(ok)
		assert.ErrorIs(auth.RequireVoter(), ErrNotAuthenticated)
		assert.ErrorIs(auth.RequireAdmin(), ErrNotAuthenticated)
	})

	t.Run("restore_persisted_session", func(t *testing.T) {
		store := NewMemorySessionStore()
		session := testVoterSession()
		assert.Nil(store.Save(session))

		auth := NewAuthController(&MockGatewayTestify{}, store, AuthControllerOptions{})
		assert.Equal(AuthenticatedVoter, auth.State())
		assert.Equal(session.Credential, auth.Credential())
		assert.Nil(auth.RequireVoter())
		assert.ErrorIs(auth.RequireAdmin(), ErrWrongPrincipal)
	})

	t.Run("restore_fails_soft_on_closed_store", func(t *testing.T) {
		store := NewMemorySessionStore()
		assert.Nil(store.Close())

		auth := NewAuthController(&MockGatewayTestify{}, store, AuthControllerOptions{})
		assert.Equal(Anonymous, auth.State())
	})

	t.Run("login_voter_empty_inputs", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		auth := NewAuthController(gateway, NewMemorySessionStore(), AuthControllerOptions{})

		_, err := auth.LoginVoter(ctx, "", "  ")
		assert.True(IsKind(err, KindValidation))
		var e *Error
		assert.True(errors.As(err, &e))
		assert.Contains(e.Fields, "nim")
		assert.Contains(e.Fields, "token")
		gateway.AssertNotCalled(t, "LoginVoter", mock.Anything, mock.Anything)
		assert.Equal(Anonymous, auth.State())
	})

	t.Run("login_voter_success", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		auth := NewAuthController(gateway, store, AuthControllerOptions{})
		result := testVoterLogin()
		gateway.On("LoginVoter", mock.Anything, VoterCredentials{ExternalID: "21110001", Token: "T123"}).Return(result, nil).Once()

		session, err := auth.LoginVoter(ctx, " 21110001 ", "T123")
		assert.Nil(err)
		assert.Equal(result.Credential, session.Credential)
		assert.Equal(AuthenticatedVoter, auth.State())
		assert.True(auth.IsVoter())

		persisted, err := store.Load()
		assert.Nil(err)
		assert.Equal(session, *persisted)
		gateway.AssertExpectations(t)
	})

	t.Run("login_voter_rejected", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		auth := NewAuthController(gateway, store, AuthControllerOptions{})
		rejected := &Error{Kind: KindUnauthorized, StatusCode: 401, Message: "NIM atau token tidak valid"}
		gateway.On("LoginVoter", mock.Anything, mock.Anything).Return(LoginResult{}, rejected).Once()

		_, err := auth.LoginVoter(ctx, "21110001", "WRONG")
		assert.Equal(rejected, err)
		assert.Equal("NIM atau token tidak valid", err.Error())
		assert.Equal(Anonymous, auth.State())

		persisted, err := store.Load()
		assert.Nil(err)
		assert.Nil(persisted)
	})

	t.Run("login_admin_success", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		auth := NewAuthController(gateway, NewMemorySessionStore(), AuthControllerOptions{})
		gateway.On("LoginAdmin", mock.Anything, AdminCredentials{Username: "panitia", Password: "secret"}).Return(testAdminLogin(), nil).Once()

		_, err := auth.LoginAdmin(ctx, "panitia", "secret")
		assert.Nil(err)
		assert.Equal(AuthenticatedAdmin, auth.State())
		assert.Nil(auth.RequireAdmin())
		assert.ErrorIs(auth.RequireVoter(), ErrWrongPrincipal)
	})

	t.Run("login_admin_empty_password", func(t *testing.T) {
		auth := NewAuthController(&MockGatewayTestify{}, NewMemorySessionStore(), AuthControllerOptions{})
		_, err := auth.LoginAdmin(ctx, "panitia", "")
		assert.True(IsKind(err, KindValidation))
	})

	t.Run("switch_principal_requires_logout", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		auth := NewAuthController(gateway, NewMemorySessionStore(), AuthControllerOptions{})
		gateway.On("LoginVoter", mock.Anything, mock.Anything).Return(testVoterLogin(), nil).Once()

		_, err := auth.LoginVoter(ctx, "21110001", "T123")
		assert.Nil(err)

		_, err = auth.LoginAdmin(ctx, "panitia", "secret")
		assert.ErrorIs(err, ErrAlreadyAuthenticated)
		_, err = auth.LoginVoter(ctx, "21110002", "T456")
		assert.ErrorIs(err, ErrAlreadyAuthenticated)
		assert.Equal(AuthenticatedVoter, auth.State())
		gateway.AssertNumberOfCalls(t, "LoginVoter", 1)
		gateway.AssertNotCalled(t, "LoginAdmin", mock.Anything, mock.Anything)
	})

	t.Run("login_without_credential", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		auth := NewAuthController(gateway, NewMemorySessionStore(), AuthControllerOptions{})
		gateway.On("LoginVoter", mock.Anything, mock.Anything).Return(LoginResult{Principal: Voter{ID: 1}}, nil).Once()

		_, err := auth.LoginVoter(ctx, "21110001", "T123")
		assert.True(IsKind(err, KindServerError))
		assert.Equal(Anonymous, auth.State())
	})

	t.Run("logout_is_idempotent", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		auth := NewAuthController(gateway, store, AuthControllerOptions{})
		hooks := 0
		auth.OnLogout(func() { hooks++ })
		gateway.On("LoginVoter", mock.Anything, mock.Anything).Return(testVoterLogin(), nil).Once()
		gateway.On("Logout", mock.Anything).Return(nil).Once()

		_, err := auth.LoginVoter(ctx, "21110001", "T123")
		assert.Nil(err)

		auth.Logout(ctx)
		auth.Logout(ctx)
		assert.Equal(Anonymous, auth.State())
		assert.Equal(1, hooks)
		gateway.AssertNumberOfCalls(t, "Logout", 1)

		persisted, err := store.Load()
		assert.Nil(err)
		assert.Nil(persisted)
	})

	t.Run("logout_clears_undecodable_session", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		store.kv[keyToken] = []byte("T123")
		store.kv[keyUser] = []byte("{not json")
		store.kv[keyUserType] = []byte("voter")
		auth := NewAuthController(gateway, store, AuthControllerOptions{})
		assert.Equal(Anonymous, auth.State())

		auth.Logout(ctx)
		auth.Logout(ctx)
		assert.Equal(Anonymous, auth.State())
		assert.Empty(store.kv)
		gateway.AssertNotCalled(t, "Logout", mock.Anything)
	})

	t.Run("logout_remote_failure_is_swallowed", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		assert.Nil(store.Save(testAdminSession()))
		auth := NewAuthController(gateway, store, AuthControllerOptions{})
		gateway.On("Logout", mock.Anything).Return(newError(KindNetwork, "logout", "unable to reach the remote service", nil)).Once()

		auth.Logout(ctx)
		assert.Equal(Anonymous, auth.State())
		persisted, err := store.Load()
		assert.Nil(err)
		assert.Nil(persisted)
	})

	t.Run("invalidate_is_local", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		assert.Nil(store.Save(testVoterSession()))
		auth := NewAuthController(gateway, store, AuthControllerOptions{})
		hooks := 0
		auth.OnLogout(func() { hooks++ })

		auth.Invalidate()
		assert.Equal(Anonymous, auth.State())
		assert.Equal(1, hooks)
		gateway.AssertNotCalled(t, "Logout", mock.Anything)
	})

	t.Run("mark_voted", func(t *testing.T) {
		store := NewMemorySessionStore()
		assert.Nil(store.Save(testVoterSession()))
		auth := NewAuthController(&MockGatewayTestify{}, store, AuthControllerOptions{})

		assert.Nil(auth.MarkVoted(1))
		assert.Nil(auth.MarkVoted(1))
		session, ok := auth.Session()
		assert.True(ok)
		voter, ok := session.Voter()
		assert.True(ok)
		assert.True(voter.HasVoted)

		persisted, err := store.Load()
		assert.Nil(err)
		voter, _ = persisted.Voter()
		assert.True(voter.HasVoted)
	})

	t.Run("mark_voted_wrong_principal", func(t *testing.T) {
		store := NewMemorySessionStore()
		assert.Nil(store.Save(testAdminSession()))
		auth := NewAuthController(&MockGatewayTestify{}, store, AuthControllerOptions{})
		assert.ErrorIs(auth.MarkVoted(9), ErrWrongPrincipal)

		auth = NewAuthController(&MockGatewayTestify{}, NewMemorySessionStore(), AuthControllerOptions{})
		assert.ErrorIs(auth.MarkVoted(1), ErrNotAuthenticated)
	})

	t.Run("mark_voted_other_voter", func(t *testing.T) {
		store := NewMemorySessionStore()
		assert.Nil(store.Save(testVoterSession()))
		auth := NewAuthController(&MockGatewayTestify{}, store, AuthControllerOptions{})

		assert.ErrorIs(auth.MarkVoted(2), ErrWrongPrincipal)
		persisted, err := store.Load()
		assert.Nil(err)
		voter, _ := persisted.Voter()
		assert.False(voter.HasVoted)
	})

	t.Run("refresh_principal_keeps_voted_flag", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		store := NewMemorySessionStore()
		session := testVoterSession()
		voter, _ := session.Voter()
		voter.HasVoted = true
		session.Principal = voter
		assert.Nil(store.Save(session))
		auth := NewAuthController(gateway, store, AuthControllerOptions{})

		remote := voter
		remote.HasVoted = false
		remote.Faculty = "Ekonomi"
		gateway.On("Me", mock.Anything).Return(remote, nil).Once()

		refreshed, err := auth.RefreshPrincipal(ctx)
		assert.Nil(err)
		assert.True(refreshed.HasVoted)
		assert.Equal("Ekonomi", refreshed.Faculty)
	})

	t.Run("refresh_principal_requires_voter", func(t *testing.T) {
		gateway := &MockGatewayTestify{}
		auth := NewAuthController(gateway, NewMemorySessionStore(), AuthControllerOptions{})
		_, err := auth.RefreshPrincipal(ctx)
		assert.ErrorIs(err, ErrNotAuthenticated)
		gateway.AssertNotCalled(t, "Me", mock.Anything)
	})

	t.Run("state_string", func(t *testing.T) {
		assert.Equal("anonymous", Anonymous.String())
		assert.Equal("authenticated_voter", AuthenticatedVoter.String())
		assert.Equal("authenticated_admin", AuthenticatedAdmin.String())
	})
}
