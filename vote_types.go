package evote

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// VoteState represent what the client knows about the voter ballot.
// The state can only be Unknown, NotVoted, Voted
type VoteState uint32

const (
	// Unknown is the state before the first successful status check.
	// Submitting is not allowed
	Unknown VoteState = iota

	// NotVoted means the remote service holds no ballot for this voter
	NotVoted

	// Voted is terminal, there is no transition out of it
	Voted
)

// String return a human readable vote state
func (s VoteState) String() string {
	switch s {
	case NotVoted:
		return "not_voted"
	case Voted:
		return "voted"
	}
	return "unknown"
}

// BallotSubmission is the ephemeral submission request
type BallotSubmission struct {
	// CandidateID is the id of the chosen candidate
	CandidateID int64
}

// VoteStatus is the voter status as known by the remote service
type VoteStatus struct {
	// HasVoted is true once the ballot is recorded
	HasVoted bool

	// VotedAt is set by the remote service when the ballot was recorded
	VotedAt *time.Time

	// Candidate is the chosen candidate as recorded by the remote service
	Candidate *Candidate
}

// Complete reports whether a voted status carries its timestamp and candidate
func (s VoteStatus) Complete() bool {
	return s.HasVoted && s.VotedAt != nil && s.Candidate != nil
}

// Outcome tells how a submission ended up in the Voted state
type Outcome uint8

const (
	// OutcomeAccepted means this submission was recorded
	OutcomeAccepted Outcome = iota

	// OutcomeAlreadyRecorded means the remote service already held
	// a ballot for this voter, from another tab or device
	OutcomeAlreadyRecorded
)

// String return a human readable outcome
func (o Outcome) String() string {
	if o == OutcomeAlreadyRecorded {
		return "already_recorded"
	}
	return "accepted"
}

// Receipt is returned by a submission that reached the Voted state
type Receipt struct {
	// Status is the authoritative status returned by the remote service.
	// It's the zero value when the remote service reported an existing
	// ballot without any usable status
	Status VoteStatus

	// Outcome of the submission
	Outcome Outcome
}

// BallotGateway is the part of the gateway used by the vote controller
type BallotGateway interface {
	// SubmitVote submits the ballot. On conflict it returns the status
	// carried by the remote rejection with a KindConflict error
	SubmitVote(ctx context.Context, ballot BallotSubmission) (VoteStatus, error)

	// VoteStatus fetches the current voter status
	VoteStatus(ctx context.Context) (VoteStatus, error)
}

// VoteControllerOptions holds config of the vote controller
type VoteControllerOptions struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// OnVoted is called once when the controller reaches Voted.
	// It's never called after Close
	OnVoted func()

	// metrics is set by the Client
	metrics *metrics
}

// VoteController owns the one shot submission protocol
// and the voter status projection of a single voter session
type VoteController struct {
	// mu protects state and status
	mu sync.Mutex

	// state is the current vote state
	state VoteState

	// status is the authoritative status. Once voted, the first
	// complete status is kept
	status *VoteStatus

	// submitting is the re-entrancy guard of Submit
	submitting atomic.Bool

	// votedOnce makes sure OnVoted is only called once
	votedOnce sync.Once

	// closed is set when the voter session ended
	closed atomic.Bool

	gateway BallotGateway
	logger  *zerolog.Logger
	onVoted func()
	metrics *metrics
}
