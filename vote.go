package evote

import (
	"context"
)

// NewVoteController builds the vote controller of a voter session.
// The state is Unknown until CheckStatus succeeds
func NewVoteController(gateway BallotGateway, options VoteControllerOptions) *VoteController {
	v := &VoteController{
		gateway: gateway,
		logger:  nopLoggerIfNil(options.Logger),
		onVoted: options.OnVoted,
		metrics: options.metrics,
	}
	if v.metrics == nil {
		v.metrics = newMetrics("", nil)
	}
	v.setState(Unknown)
	return v
}

// CheckStatus fetches the voter status from the remote service.
// A failure leaves the state unchanged
func (v *VoteController) CheckStatus(ctx context.Context) (VoteStatus, error) {
	const op = "checkStatus"
	if v.closed.Load() {
		return VoteStatus{}, ErrVoterSessionClosed
	}
	status, err := v.gateway.VoteStatus(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Str("state", v.getState().String()).Msg("Fail to check vote status")
		return VoteStatus{}, err
	}

	if status.HasVoted {
		if !status.Complete() {
			return VoteStatus{}, newError(KindServerError, op, "vote status without timestamp or candidate", nil)
		}
		return *v.toVoted(&status), nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// Voted is terminal, a stale answer is ignored
	if v.getState() == Voted {
		v.logger.Debug().Msg("Ignoring stale not voted status")
		if v.status == nil {
			return VoteStatus{}, newError(KindServerError, op, "remote service reports no ballot after recording one", nil)
		}
		return *v.status, nil
	}
	v.status = &status
	v.setState(NotVoted)
	return status, nil
}

// Submit casts the ballot for the candidate. At most one submission
// runs at a time and the remote service is called at most once per call
func (v *VoteController) Submit(ctx context.Context, candidateID int64) (Receipt, error) {
	const op = "submitVote"
	if !v.submitting.CompareAndSwap(false, true) {
		v.metrics.incSubmission("rejected")
		return Receipt{}, ErrSubmissionInFlight
	}
	defer v.submitting.Store(false)

	if v.closed.Load() {
		v.metrics.incSubmission("rejected")
		return Receipt{}, ErrVoterSessionClosed
	}
	switch v.getState() {
	case Voted:
		v.metrics.incSubmission("rejected")
		return Receipt{}, ErrAlreadyVoted
	case Unknown:
		v.metrics.incSubmission("rejected")
		return Receipt{}, ErrVoteStatusUnknown
	}
	if candidateID <= 0 {
		v.metrics.incSubmission("rejected")
		return Receipt{}, &Error{
			Kind:    KindValidation,
			Op:      op,
			Message: "a candidate must be selected",
			Fields:  map[string][]string{"kandidat_id": {"a candidate must be selected"}},
		}
	}

	status, err := v.gateway.SubmitVote(ctx, BallotSubmission{CandidateID: candidateID})
	if err != nil {
		if IsKind(err, KindConflict) {
			return v.alreadyRecorded(ctx, status), nil
		}
		v.metrics.incSubmission("failed")
		v.logger.Warn().Err(err).Int64("candidateId", candidateID).Msg("Ballot submission failed")
		return Receipt{}, err
	}

	if !status.Complete() {
		v.mu.Lock()
		v.status = nil
		v.setState(Unknown)
		v.mu.Unlock()
		v.metrics.incSubmission("failed")
		v.logger.Error().Int64("candidateId", candidateID).Msg("Ballot accepted with an incomplete status")
		return Receipt{}, newError(KindServerError, op, "ballot accepted but the vote status is incomplete", nil)
	}

	recorded := v.toVoted(&status)
	v.metrics.incSubmission(OutcomeAccepted.String())
	v.logger.Info().Int64("candidateId", candidateID).Msg("Ballot recorded")
	return Receipt{Status: *recorded, Outcome: OutcomeAccepted}, nil
}

// alreadyRecorded moves to Voted after the remote service reported
// an existing ballot. The status is read once when the conflict carries none.
// Without any complete status, Voted is reached with no status at all
func (v *VoteController) alreadyRecorded(ctx context.Context, status VoteStatus) Receipt {
	var recorded *VoteStatus
	if status.Complete() {
		recorded = &status
	} else if !v.closed.Load() {
		fetched, err := v.gateway.VoteStatus(ctx)
		switch {
		case err != nil:
			v.logger.Warn().Err(err).Msg("Fail to fetch vote status after conflict")
		case fetched.Complete():
			recorded = &fetched
		default:
			v.logger.Warn().Msg("Vote status still incomplete after conflict")
		}
	}

	receipt := Receipt{Outcome: OutcomeAlreadyRecorded}
	if kept := v.toVoted(recorded); kept != nil {
		receipt.Status = *kept
	}
	v.metrics.incSubmission(OutcomeAlreadyRecorded.String())
	v.logger.Info().Msg("Ballot already recorded by the remote service")
	return receipt
}

// toVoted moves to the terminal Voted state and returns the kept status.
// The first complete status wins, status is nil when none is known
func (v *VoteController) toVoted(status *VoteStatus) *VoteStatus {
	v.mu.Lock()
	if v.getState() != Voted || v.status == nil {
		v.status = status
	}
	kept := v.status
	v.setState(Voted)
	v.mu.Unlock()

	v.votedOnce.Do(func() {
		if v.onVoted != nil && !v.closed.Load() {
			v.onVoted()
		}
	})
	return kept
}

// Close detaches the controller from its voter session.
// Later calls fail with ErrVoterSessionClosed and OnVoted is no longer called
func (v *VoteController) Close() {
	v.closed.Store(true)
}

// State returns the current vote state
func (v *VoteController) State() VoteState {
	return v.getState()
}

// Status returns the last authoritative status, false when unknown
func (v *VoteController) Status() (VoteStatus, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.status == nil {
		return VoteStatus{}, false
	}
	return *v.status, true
}

// IsSubmitting reports whether a submission is in flight
func (v *VoteController) IsSubmitting() bool {
	return v.submitting.Load()
}
