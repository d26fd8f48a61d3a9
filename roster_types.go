package evote

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// defaultRosterCacheSize is the default number of candidates kept by id
const defaultRosterCacheSize int = 64

// Candidate is a ticket (leader and deputy) standing for election
type Candidate struct {
	// ID is the remote id
	ID int64

	// BallotNumber is unique across candidates, not necessarily dense
	BallotNumber int

	// LeaderName is the name of the leader (ketua)
	LeaderName string

	// DeputyName is the name of the deputy (wakil)
	DeputyName string

	// PlatformStatement is the vision (visi)
	PlatformStatement string

	// PlatformPoints are the mission points (misi), one per line
	PlatformPoints []string

	// WorkProgram is the optional work program (program kerja)
	WorkProgram string

	// LeaderPhoto is an optional photo reference
	LeaderPhoto string

	// DeputyPhoto is an optional photo reference
	DeputyPhoto string

	// Active is false for candidates withdrawn by administrators
	Active bool

	// VoteCount is only filled by the administration contract
	VoteCount int
}

// CandidateSource is the part of the gateway used by the roster
type CandidateSource interface {
	// ListCandidates fetches the active candidates
	ListCandidates(ctx context.Context) ([]Candidate, error)

	// GetCandidate fetches a single candidate
	GetCandidate(ctx context.Context, id int64) (Candidate, error)
}

// RosterOptions holds config of the candidate roster cache
type RosterOptions struct {
	// CacheSize is the number of candidates kept by id.
	// Default to 64
	CacheSize int

	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger
}

// Roster is a read through cache of the candidates shown on the ballot
type Roster struct {
	// mu protects candidates, fetchedAt and lastErr
	mu sync.RWMutex

	// candidates is the last successfully fetched list, in remote order
	candidates []Candidate

	// fetchedAt is the date of the last successful fetch
	fetchedAt time.Time

	// lastErr is the error of the last refresh, nil when it succeeded
	lastErr error

	// byID caches candidates by id
	byID *lru.Cache[int64, Candidate]

	source CandidateSource
	logger *zerolog.Logger
}
