package evote

import (
	"sync"

	"github.com/rs/zerolog"
)

// MemorySessionStore keeps the session entries in memory.
// It's used when no data dir is configured and as a fake in tests
type MemorySessionStore struct {
	// mu hold locking mecanism
	mu sync.RWMutex

	// kv map holds the persisted entries
	kv map[string][]byte

	// closed is set by Close
	closed bool

	logger *zerolog.Logger
}

// NewMemorySessionStore returns an empty in memory session store
func NewMemorySessionStore() *MemorySessionStore {
	nop := zerolog.Nop()
	return &MemorySessionStore{
		kv:     make(map[string][]byte),
		logger: &nop,
	}
}

// Save persists the session entries at once
func (in *MemorySessionStore) Save(session Session) error {
	entries, err := encodeSession(session)
	if err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrStoreClosed
	}
	for key, value := range entries {
		in.kv[key] = value
	}
	return nil
}

// Load returns the persisted session or nil
func (in *MemorySessionStore) Load() (*Session, error) {
	in.mu.RLock()
	if in.closed {
		in.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	token, tokenType := in.kv[keyToken], in.kv[keyTokenType]
	user, userType := in.kv[keyUser], in.kv[keyUserType]
	in.mu.RUnlock()

	session, err := decodeSession(token, tokenType, user, userType)
	if err != nil {
		in.logger.Warn().Err(err).Msg("Ignoring undecodable persisted session")
		return nil, nil
	}
	return session, nil
}

// Clear removes the session entries at once
func (in *MemorySessionStore) Clear() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrStoreClosed
	}
	for _, key := range sessionKeys {
		delete(in.kv, key)
	}
	return nil
}

// Close will close the store
func (in *MemorySessionStore) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.kv = nil
	return nil
}
