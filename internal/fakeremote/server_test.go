package fakeremote

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

// do sends a JSON request to the service
func do(t *testing.T, s *Server, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, pathPrefix+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.Handler().ServeHTTP(recorder, req)

	var result envelope
	_ = json.Unmarshal(recorder.Body.Bytes(), &result)
	return recorder, result
}

// loginAs logs the voter in and returns the access token
func loginAs(t *testing.T, s *Server, voter Voter) string {
	recorder, result := do(t, s, http.MethodPost, "/auth/mahasiswa/login", "", loginVoterRequest{NIM: voter.NIM, Token: voter.VotingToken})
	assert.Equal(t, http.StatusOK, recorder.Code)
	var data struct {
		AccessToken string `json:"access_token"`
	}
	assert.Nil(t, json.Unmarshal(result.Data, &data))
	return data.AccessToken
}

func TestServer(t *testing.T) {
	assert := assert.New(t)

	t.Run("seeded", func(t *testing.T) {
		s := New(Options{Voters: 3, Candidates: 2})
		assert.Len(s.Voters(), 3)
		candidates := s.Candidates()
		assert.Len(candidates, 2)
		assert.Equal(1, candidates[0].NomorUrut)
	})

	t.Run("login_voter", func(t *testing.T) {
		s := New(Options{})
		voter := s.AddVoter("21110001", "Budi")

		recorder, result := do(t, s, http.MethodPost, "/auth/mahasiswa/login", "", loginVoterRequest{NIM: "21110001", Token: "WRONG"})
		assert.Equal(http.StatusUnauthorized, recorder.Code)
		assert.Equal("NIM atau token tidak valid", result.Message)

		token := loginAs(t, s, voter)
		assert.NotEmpty(token)
		recorder, _ = do(t, s, http.MethodGet, "/auth/me", token, nil)
		assert.Equal(http.StatusOK, recorder.Code)
	})

	t.Run("login_validation", func(t *testing.T) {
		s := New(Options{})
		recorder, result := do(t, s, http.MethodPost, "/auth/mahasiswa/login", "", loginVoterRequest{})
		assert.Equal(http.StatusUnprocessableEntity, recorder.Code)
		assert.Contains(result.Errors, "nim")
	})

	t.Run("bearer_required", func(t *testing.T) {
		s := New(Options{})
		recorder, _ := do(t, s, http.MethodGet, "/kandidat", "", nil)
		assert.Equal(http.StatusUnauthorized, recorder.Code)
		recorder, _ = do(t, s, http.MethodGet, "/kandidat", "not-a-jwt", nil)
		assert.Equal(http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired_token", func(t *testing.T) {
		s := New(Options{TokenTTL: time.Nanosecond})
		voter := s.AddVoter("21110001", "Budi")
		token := loginAs(t, s, voter)
		time.Sleep(time.Second)

		recorder, _ := do(t, s, http.MethodGet, "/auth/me", token, nil)
		assert.Equal(http.StatusUnauthorized, recorder.Code)
	})

	t.Run("logout_revokes_token", func(t *testing.T) {
		s := New(Options{})
		voter := s.AddVoter("21110001", "Budi")
		token := loginAs(t, s, voter)

		recorder, _ := do(t, s, http.MethodPost, "/auth/logout", token, nil)
		assert.Equal(http.StatusOK, recorder.Code)
		recorder, _ = do(t, s, http.MethodGet, "/auth/me", token, nil)
		assert.Equal(http.StatusUnauthorized, recorder.Code)
	})

	t.Run("admin_routes_forbidden_to_voters", func(t *testing.T) {
		s := New(Options{})
		voter := s.AddVoter("21110001", "Budi")
		token := loginAs(t, s, voter)

		recorder, result := do(t, s, http.MethodGet, "/dashboard/statistics", token, nil)
		assert.Equal(http.StatusForbidden, recorder.Code)
		assert.Equal("Akses ditolak", result.Message)
	})

	t.Run("vote_once", func(t *testing.T) {
		s := New(Options{Candidates: 2})
		voter := s.AddVoter("21110001", "Budi")
		candidate := s.Candidates()[1]
		token := loginAs(t, s, voter)

		recorder, _ := do(t, s, http.MethodPost, "/vote", token, voteRequest{KandidatID: candidate.ID})
		assert.Equal(http.StatusUnprocessableEntity, recorder.Code)

		recorder, result := do(t, s, http.MethodPost, "/vote", token, voteRequest{KandidatID: candidate.ID, Confirmation: true})
		assert.Equal(http.StatusOK, recorder.Code)
		var status voteStatus
		assert.Nil(json.Unmarshal(result.Data, &status))
		assert.True(status.HasVoted)
		assert.NotNil(status.VotedAt)
		assert.Equal(candidate.ID, status.Kandidat.ID)

		recorder, result = do(t, s, http.MethodPost, "/vote", token, voteRequest{KandidatID: s.Candidates()[0].ID, Confirmation: true})
		assert.Equal(http.StatusConflict, recorder.Code)
		assert.Nil(json.Unmarshal(result.Data, &status))
		assert.Equal(candidate.ID, status.Kandidat.ID)
	})

	t.Run("vote_unknown_candidate", func(t *testing.T) {
		s := New(Options{})
		voter := s.AddVoter("21110001", "Budi")
		token := loginAs(t, s, voter)

		recorder, _ := do(t, s, http.MethodPost, "/vote", token, voteRequest{KandidatID: 999, Confirmation: true})
		assert.Equal(http.StatusNotFound, recorder.Code)
	})

	t.Run("injected_failure", func(t *testing.T) {
		s := New(Options{})
		s.Fail(http.MethodGet, "/kandidat", Failure{Status: http.StatusBadGateway, Body: "<html><title>502 Bad Gateway</title></html>", ContentType: "text/html", Once: true})

		recorder, _ := do(t, s, http.MethodGet, "/kandidat", "", nil)
		assert.Equal(http.StatusBadGateway, recorder.Code)
		assert.Equal("text/html", recorder.Header().Get("Content-Type"))

		recorder, _ = do(t, s, http.MethodGet, "/kandidat", "", nil)
		assert.Equal(http.StatusUnauthorized, recorder.Code)
		assert.Equal(2, s.Requests(http.MethodGet, "/kandidat"))
	})

	t.Run("hold_votes", func(t *testing.T) {
		s := New(Options{Candidates: 1})
		voter := s.AddVoter("21110001", "Budi")
		token := loginAs(t, s, voter)
		held, release := s.HoldVotes()

		done := make(chan int)
		go func() {
			recorder, _ := do(t, s, http.MethodPost, "/vote", token, voteRequest{KandidatID: s.Candidates()[0].ID, Confirmation: true})
			done <- recorder.Code
		}()
		<-held
		select {
		case <-done:
			t.Fatal("vote was not held")
		default:
		}
		release()
		assert.Equal(http.StatusOK, <-done)
	})

	t.Run("record_vote_from_another_device", func(t *testing.T) {
		s := New(Options{Candidates: 1})
		voter := s.AddVoter("21110001", "Budi")
		assert.Nil(s.RecordVote(voter.ID, s.Candidates()[0].ID))
		assert.Error(s.RecordVote(999, s.Candidates()[0].ID))

		token := loginAs(t, s, voter)
		_, result := do(t, s, http.MethodGet, "/vote/status", token, nil)
		var status voteStatus
		assert.Nil(json.Unmarshal(result.Data, &status))
		assert.True(status.HasVoted)
	})

	t.Run("percentage", func(t *testing.T) {
		assert.Equal(float64(0), percentage(1, 0))
		assert.Equal(66.67, percentage(2, 3))
	})
}
