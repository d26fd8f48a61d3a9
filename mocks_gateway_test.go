package evote

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGatewayTestify struct {
	mock.Mock
}

func (m *MockGatewayTestify) LoginVoter(ctx context.Context, credentials VoterCredentials) (LoginResult, error) {
	args := m.Called(ctx, credentials)
	resp, _ := args.Get(0).(LoginResult)
	return resp, args.Error(1)
}

func (m *MockGatewayTestify) LoginAdmin(ctx context.Context, credentials AdminCredentials) (LoginResult, error) {
	args := m.Called(ctx, credentials)
	resp, _ := args.Get(0).(LoginResult)
	return resp, args.Error(1)
}

func (m *MockGatewayTestify) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockGatewayTestify) Me(ctx context.Context) (Voter, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(Voter)
	return resp, args.Error(1)
}

func (m *MockGatewayTestify) ListCandidates(ctx context.Context) ([]Candidate, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).([]Candidate)
	return resp, args.Error(1)
}

func (m *MockGatewayTestify) GetCandidate(ctx context.Context, id int64) (Candidate, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(Candidate)
	return resp, args.Error(1)
}

func (m *MockGatewayTestify) SubmitVote(ctx context.Context, ballot BallotSubmission) (VoteStatus, error) {
	args := m.Called(ctx, ballot)
	resp, _ := args.Get(0).(VoteStatus)
	return resp, args.Error(1)
}

func (m *MockGatewayTestify) VoteStatus(ctx context.Context) (VoteStatus, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(VoteStatus)
	return resp, args.Error(1)
}
