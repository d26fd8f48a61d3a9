package evote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// LoginVoter exchanges the student number and the single use token for a credential
func (g *Gateway) LoginVoter(ctx context.Context, credentials VoterCredentials) (LoginResult, error) {
	const op = "loginVoter"
	body := map[string]string{
		"nim":   credentials.ExternalID,
		"token": credentials.Token,
	}

	var wire wireLogin
	if err := g.callJSON(ctx, op, http.MethodPost, "/auth/mahasiswa/login", nil, body, &wire); err != nil {
		return LoginResult{}, err
	}
	result, ok := wire.toLoginResult(PrincipalVoter)
	if !ok {
		return LoginResult{}, newError(KindServerError, op, "login response without credential or voter record", nil)
	}
	return result, nil
}

// LoginAdmin exchanges administrator credentials for a credential
func (g *Gateway) LoginAdmin(ctx context.Context, credentials AdminCredentials) (LoginResult, error) {
	const op = "loginAdmin"
	body := map[string]string{
		"username": credentials.Username,
		"password": credentials.Password,
	}

	var wire wireLogin
	if err := g.callJSON(ctx, op, http.MethodPost, "/auth/admin/login", nil, body, &wire); err != nil {
		return LoginResult{}, err
	}
	result, ok := wire.toLoginResult(PrincipalAdmin)
	if !ok {
		return LoginResult{}, newError(KindServerError, op, "login response without credential or administrator record", nil)
	}
	return result, nil
}

// Logout invalidates the credential on the remote service
func (g *Gateway) Logout(ctx context.Context) error {
	return g.callJSON(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me fetches the voter record of the current credential
func (g *Gateway) Me(ctx context.Context) (Voter, error) {
	var wire wireVoter
	if err := g.callJSON(ctx, "me", http.MethodGet, "/auth/me", nil, nil, &wire); err != nil {
		return Voter{}, err
	}
	return wire.toVoter(), nil
}

// ListCandidates fetches the candidates in the order returned by the remote service
func (g *Gateway) ListCandidates(ctx context.Context) ([]Candidate, error) {
	var wire []wireCandidate
	if err := g.callJSON(ctx, "listCandidates", http.MethodGet, "/kandidat", nil, nil, &wire); err != nil {
		return nil, err
	}
	return toCandidates(wire), nil
}

// GetCandidate fetches a single candidate
func (g *Gateway) GetCandidate(ctx context.Context, id int64) (Candidate, error) {
	var wire wireCandidate
	if err := g.callJSON(ctx, "getCandidate", http.MethodGet, pathID("/kandidat", id), nil, nil, &wire); err != nil {
		return Candidate{}, err
	}
	return wire.toCandidate(), nil
}

// SubmitVote submits the confirmed ballot, exactly once.
// When the remote service rejects it because a ballot already exists,
// the status carried by the rejection is returned with a KindConflict error
func (g *Gateway) SubmitVote(ctx context.Context, ballot BallotSubmission) (VoteStatus, error) {
	const op = "submitVote"
	body := wireBallot{
		KandidatID:   ballot.CandidateID,
		Confirmation: true,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return VoteStatus{}, newError(KindValidation, op, "fail to encode request", err)
	}
	req, err := g.newRequest(ctx, op, http.MethodPost, "/vote", nil, bytes.NewReader(payload))
	if err != nil {
		return VoteStatus{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.roundTrip(op, req)
	if err != nil {
		var failure *Error
		if errors.As(err, &failure) && failure.Kind == KindConflict && resp != nil {
			var wire wireVoteStatus
			// the conflict body may carry no status at all
			_ = decodeData(op, resp, &wire)
			return wire.toVoteStatus(), err
		}
		return VoteStatus{}, err
	}

	var wire wireVoteStatus
	if err := decodeData(op, resp, &wire); err != nil {
		return VoteStatus{}, err
	}
	return wire.toVoteStatus(), nil
}

// VoteStatus fetches the current voter status
func (g *Gateway) VoteStatus(ctx context.Context) (VoteStatus, error) {
	var wire wireVoteStatus
	if err := g.callJSON(ctx, "voteStatus", http.MethodGet, "/vote/status", nil, nil, &wire); err != nil {
		return VoteStatus{}, err
	}
	return wire.toVoteStatus(), nil
}
