package evote

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

const (
	// dbFileName is the name of the database file
	dbFileName string = "evote.db"

	// bucketSessionName will be used to store the session entries
	bucketSessionName string = "evote_session"
)

// BoltOptions hold all requirements to open the bolt session store
type BoltOptions struct {
	// DataDir is the directory that will be used to store the database. It's required
	DataDir string

	// Options hold all bolt options
	Options *bolt.Options

	// Logger is used to report undecodable sessions
	Logger *zerolog.Logger
}

// BoltSessionStore persists the session into a bolt database
type BoltSessionStore struct {
	// dataDir is the directory holding the database
	dataDir string

	// db allows us to manipulate the k/v database
	db *bolt.DB

	logger *zerolog.Logger
}

// NewBoltSessionStore opens or creates the session database
// under <DataDir>/db/evote.db
func NewBoltSessionStore(options BoltOptions) (*BoltSessionStore, error) {
	if options.DataDir == "" {
		return nil, ErrDataDirRequired
	}
	dbdir := filepath.Join(options.DataDir, "db")
	if err := createDirectoryIfNotExist(dbdir, 0700); err != nil {
		return nil, fmt.Errorf("fail to create directory %s: %w", dbdir, err)
	}

	db, err := bolt.Open(filepath.Join(dbdir, dbFileName), 0600, options.Options)
	if err != nil {
		return nil, err
	}

	store := &BoltSessionStore{
		dataDir: options.DataDir,
		db:      db,
		logger:  nopLoggerIfNil(options.Logger),
	}

	if options.Options == nil || !options.Options.ReadOnly {
		if err := store.initializeBuckets(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// initializeBuckets creates the session bucket
func (b *BoltSessionStore) initializeBuckets() error {
	return b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSessionName))
		return err
	})
}

// Save persists the session entries in a single transaction
func (b *BoltSessionStore) Save(session Session) error {
	entries, err := encodeSession(session)
	if err != nil {
		return err
	}
	return b.update(func(bucket *bolt.Bucket) error {
		for _, key := range sessionKeys {
			if err := bucket.Put([]byte(key), entries[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the persisted session.
// Corrupted entries are logged and reported as no session
func (b *BoltSessionStore) Load() (*Session, error) {
	var token, tokenType, user, userType []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSessionName))
		if bucket == nil {
			return nil
		}
		// values are only valid during the transaction
		token = clone(bucket.Get([]byte(keyToken)))
		tokenType = clone(bucket.Get([]byte(keyTokenType)))
		user = clone(bucket.Get([]byte(keyUser)))
		userType = clone(bucket.Get([]byte(keyUserType)))
		return nil
	})
	if err != nil {
		if errors.Is(err, bolt.ErrDatabaseNotOpen) {
			return nil, ErrStoreClosed
		}
		return nil, err
	}

	session, err := decodeSession(token, tokenType, user, userType)
	if err != nil {
		b.logger.Warn().Err(err).
			Str("dataDir", b.dataDir).
			Msg("Ignoring undecodable persisted session")
		return nil, nil
	}
	return session, nil
}

// Clear deletes the session entries in a single transaction
func (b *BoltSessionStore) Clear() error {
	return b.update(func(bucket *bolt.Bucket) error {
		for _, key := range sessionKeys {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close will close bolt database
func (b *BoltSessionStore) Close() error {
	return b.db.Close()
}

// update runs fn against the session bucket in a read-write transaction
func (b *BoltSessionStore) update(fn func(bucket *bolt.Bucket) error) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketSessionName))
		if err != nil {
			return err
		}
		return fn(bucket)
	})
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrStoreClosed
	}
	return err
}

// clone copies a bolt value so that it outlives its transaction
func clone(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
