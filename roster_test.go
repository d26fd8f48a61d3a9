package evote

import (
	"context"
	"testing"

	"github.com/jackc/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testCandidates() []Candidate {
	return []Candidate{
		{ID: 7, BallotNumber: 2, LeaderName: fake.FullName(), DeputyName: fake.FullName(), PlatformStatement: fake.Sentence(), Active: true},
		{ID: 3, BallotNumber: 1, LeaderName: fake.FullName(), DeputyName: fake.FullName(), PlatformStatement: fake.Sentence(), Active: true},
		{ID: 5, BallotNumber: 4, LeaderName: fake.FullName(), DeputyName: fake.FullName(), PlatformStatement: fake.Sentence(), Active: true},
	}
}

func TestRoster(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("refresh_keeps_remote_order", func(t *testing.T) {
		source := &MockGatewayTestify{}
		candidates := testCandidates()
		source.On("ListCandidates", mock.Anything).Return(candidates, nil).Once()
		roster := NewRoster(source, RosterOptions{})

		list, err := roster.Refresh(ctx)
		assert.Nil(err)
		assert.Equal(candidates, list)
		assert.Equal(candidates, roster.List())
		assert.False(roster.FetchedAt().IsZero())
		assert.Nil(roster.LastError())
	})

	t.Run("refresh_failure_keeps_previous_list", func(t *testing.T) {
		source := &MockGatewayTestify{}
		candidates := testCandidates()
		failure := newError(KindNetwork, "listCandidates", "unable to reach the remote service", nil)
		source.On("ListCandidates", mock.Anything).Return(candidates, nil).Once()
		source.On("ListCandidates", mock.Anything).Return(nil, failure).Once()
		roster := NewRoster(source, RosterOptions{})

		_, err := roster.Refresh(ctx)
		assert.Nil(err)
		fetchedAt := roster.FetchedAt()

		list, err := roster.Refresh(ctx)
		assert.Equal(failure, err)
		assert.Equal(candidates, list)
		assert.Equal(failure, roster.LastError())
		assert.Equal(fetchedAt, roster.FetchedAt())
	})

	t.Run("refresh_failure_without_previous_list", func(t *testing.T) {
		source := &MockGatewayTestify{}
		source.On("ListCandidates", mock.Anything).Return(nil, newError(KindServerError, "listCandidates", "Server error: 500", nil)).Once()
		roster := NewRoster(source, RosterOptions{})

		list, err := roster.Refresh(ctx)
		assert.True(IsKind(err, KindServerError))
		assert.Empty(list)
	})

	t.Run("list_returns_a_copy", func(t *testing.T) {
		source := &MockGatewayTestify{}
		source.On("ListCandidates", mock.Anything).Return(testCandidates(), nil).Once()
		roster := NewRoster(source, RosterOptions{})
		_, err := roster.Refresh(ctx)
		assert.Nil(err)

		list := roster.List()
		list[0].LeaderName = "changed"
		assert.NotEqual("changed", roster.List()[0].LeaderName)
	})

	t.Run("get_reads_through", func(t *testing.T) {
		source := &MockGatewayTestify{}
		candidate := testCandidates()[0]
		source.On("GetCandidate", mock.Anything, candidate.ID).Return(candidate, nil).Once()
		roster := NewRoster(source, RosterOptions{CacheSize: 2})

		got, err := roster.Get(ctx, candidate.ID)
		assert.Nil(err)
		assert.Equal(candidate, got)
		got, err = roster.Get(ctx, candidate.ID)
		assert.Nil(err)
		assert.Equal(candidate, got)
		source.AssertNumberOfCalls(t, "GetCandidate", 1)
	})

	t.Run("get_uses_refreshed_list", func(t *testing.T) {
		source := &MockGatewayTestify{}
		candidates := testCandidates()
		source.On("ListCandidates", mock.Anything).Return(candidates, nil).Once()
		roster := NewRoster(source, RosterOptions{})
		_, err := roster.Refresh(ctx)
		assert.Nil(err)

		got, err := roster.Get(ctx, candidates[2].ID)
		assert.Nil(err)
		assert.Equal(candidates[2], got)
		source.AssertNotCalled(t, "GetCandidate", mock.Anything, mock.Anything)
	})

	t.Run("get_not_found", func(t *testing.T) {
		source := &MockGatewayTestify{}
		source.On("GetCandidate", mock.Anything, int64(404)).Return(Candidate{}, &Error{Kind: KindNotFound, StatusCode: 404, Message: "Kandidat tidak ditemukan"}).Once()
		roster := NewRoster(source, RosterOptions{})

		_, err := roster.Get(ctx, 404)
		assert.True(IsKind(err, KindNotFound))
	})

	t.Run("reset", func(t *testing.T) {
		source := &MockGatewayTestify{}
		candidates := testCandidates()
		source.On("ListCandidates", mock.Anything).Return(candidates, nil).Once()
		source.On("GetCandidate", mock.Anything, candidates[0].ID).Return(candidates[0], nil).Once()
		roster := NewRoster(source, RosterOptions{})
		_, err := roster.Refresh(ctx)
		assert.Nil(err)

		roster.Reset()
		assert.Empty(roster.List())
		assert.True(roster.FetchedAt().IsZero())

		_, err = roster.Get(ctx, candidates[0].ID)
		assert.Nil(err)
		source.AssertNumberOfCalls(t, "GetCandidate", 1)
	})
}
