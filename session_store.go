package evote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const (
	// keyToken holds the raw bearer credential
	keyToken = "auth_token"

	// keyTokenType holds the credential type, usually bearer
	keyTokenType = "auth_token_type"

	// keyUser holds the serialized principal record
	keyUser = "auth_user"

	// keyUserType holds the principal kind tag
	keyUserType = "auth_user_type"
)

// sessionKeys are the persisted entries of a session
var sessionKeys = []string{keyToken, keyTokenType, keyUser, keyUserType}

// errInvalidSession is returned when saving an incomplete session
var errInvalidSession = errors.New("session requires a credential and a principal")

// SessionStore persists the client session.
// It's the only component allowed to touch persisted session data
type SessionStore interface {
	// Save persists credential and principal together
	Save(session Session) error

	// Load returns the persisted session or nil when there is none.
	// Undecodable data is reported as no session
	Load() (*Session, error)

	// Clear removes the persisted session
	Clear() error

	// Close releases the underlying resources
	Close() error
}

// encodeSession returns the persisted entries of the session
func encodeSession(session Session) (map[string][]byte, error) {
	if !session.valid() {
		return nil, errInvalidSession
	}
	user, err := json.Marshal(session.Principal)
	if err != nil {
		return nil, fmt.Errorf("fail to encode principal: %w", err)
	}
	return map[string][]byte{
		keyToken:     []byte(session.Credential),
		keyTokenType: []byte(session.TokenType),
		keyUser:      user,
		keyUserType:  []byte(session.Kind().String()),
	}, nil
}

// decodeSession rebuilds a session from its persisted entries.
// It returns nil when the credential or the principal is missing or undecodable.
// The token type is optional
func decodeSession(token, tokenType, user, userType []byte) (*Session, error) {
	if len(token) == 0 || len(user) == 0 || len(userType) == 0 {
		return nil, nil
	}

	session := &Session{Credential: string(token), TokenType: string(tokenType)}
	switch parsePrincipalKind(string(userType)) {
	case PrincipalVoter:
		var voter Voter
		if err := json.Unmarshal(user, &voter); err != nil {
			return nil, err
		}
		session.Principal = voter
	case PrincipalAdmin:
		var admin Administrator
		if err := json.Unmarshal(user, &admin); err != nil {
			return nil, err
		}
		session.Principal = admin
	default:
		return nil, fmt.Errorf("unknown principal kind %q", userType)
	}
	return session, nil
}

// createDirectoryIfNotExist permits to check if a directory exist
// and create it if not. An error will be return if there is any
func createDirectoryIfNotExist(d string, perm fs.FileMode) error {
	if _, err := os.Stat(d); os.IsNotExist(err) {
		if err := os.MkdirAll(d, perm); err != nil {
			return err
		}
		return nil
	}
	return nil
}
