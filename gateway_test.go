package evote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// testGateway starts a remote service answering with handler
func testGateway(t *testing.T, token string, handler http.HandlerFunc) *Gateway {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewGateway(GatewayOptions{
		BaseURL:     server.URL + "/api/v1/",
		TokenSource: func() string { return token },
	})
}

// writeJSON writes a JSON body with the provided status
func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGateway(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		gateway := NewGateway(GatewayOptions{})
		assert.Equal(DefaultBaseURL, gateway.BaseURL())
	})

	t.Run("login_voter", func(t *testing.T) {
		gateway := testGateway(t, "", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(http.MethodPost, r.Method)
			assert.Equal("/api/v1/auth/mahasiswa/login", r.URL.Path)
			assert.Empty(r.Header.Get("Authorization"))
			assert.NotEmpty(r.Header.Get("X-Request-ID"))
			assert.Equal("application/json", r.Header.Get("Content-Type"))

			var body map[string]string
			assert.Nil(json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(map[string]string{"nim": "21110001", "token": "T123"}, body)

			writeJSON(w, http.StatusOK, `{"success":true,"message":"Login berhasil","data":{"access_token":"abc","token_type":"bearer","expires_in":3600,"mahasiswa":{"id":1,"nim":"21110001","name":"Budi","has_voted":false}}}`)
		})

		result, err := gateway.LoginVoter(ctx, VoterCredentials{ExternalID: "21110001", Token: "T123"})
		assert.Nil(err)
		assert.Equal("abc", result.Credential)
		voter, ok := result.Session().Voter()
		assert.True(ok)
		assert.Equal("Budi", voter.DisplayName)
	})

	t.Run("login_rejected_message_verbatim", func(t *testing.T) {
		gateway := testGateway(t, "", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"NIM atau token tidak valid"}`)
		})

		_, err := gateway.LoginVoter(ctx, VoterCredentials{ExternalID: "21110001", Token: "WRONG"})
		assert.True(IsKind(err, KindUnauthorized))
		assert.Equal("NIM atau token tidak valid", err.Error())
	})

	t.Run("login_admin_without_record", func(t *testing.T) {
		gateway := testGateway(t, "", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/api/v1/auth/admin/login", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"access_token":"abc"}}`)
		})

		_, err := gateway.LoginAdmin(ctx, AdminCredentials{Username: "panitia", Password: "secret"})
		assert.True(IsKind(err, KindServerError))
	})

	t.Run("bearer_header", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("Bearer abc", r.Header.Get("Authorization"))
			assert.Equal("/api/v1/auth/me", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":1,"nim":"21110001","name":"Budi","has_voted":true}}`)
		})

		voter, err := gateway.Me(ctx)
		assert.Nil(err)
		assert.True(voter.HasVoted)
	})

	t.Run("logout", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(http.MethodPost, r.Method)
			assert.Equal("/api/v1/auth/logout", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"success":true,"message":"Logout berhasil"}`)
		})
		assert.Nil(gateway.Logout(ctx))
	})

	t.Run("list_candidates_bare_array", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":7,"nomor_urut":2,"ketua_nama":"A","wakil_nama":"B","visi":"V","misi":"M1\nM2"},{"id":3,"nomor_urut":1,"nama_ketua":"C","nama_wakil":"D","visi":"V","misi":"M"}]`)
		})

		candidates, err := gateway.ListCandidates(ctx)
		assert.Nil(err)
		assert.Len(candidates, 2)
		assert.Equal(int64(7), candidates[0].ID)
		assert.Equal("C", candidates[1].LeaderName)
		assert.Equal([]string{"M1", "M2"}, candidates[0].PlatformPoints)
	})

	t.Run("get_candidate_not_found", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/api/v1/kandidat/42", r.URL.Path)
			writeJSON(w, http.StatusNotFound, `{"success":false,"message":"Kandidat tidak ditemukan"}`)
		})

		_, err := gateway.GetCandidate(ctx, 42)
		assert.True(IsKind(err, KindNotFound))
		assert.Equal("Kandidat tidak ditemukan", err.Error())
	})

	t.Run("submit_vote", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/api/v1/vote", r.URL.Path)
			var body wireBallot
			assert.Nil(json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(wireBallot{KandidatID: 3, Confirmation: true}, body)
			writeJSON(w, http.StatusCreated, `{"success":true,"message":"Suara berhasil dicatat","data":{"has_voted":true,"voted_at":"2025-03-10T09:30:00Z","kandidat":{"id":3,"nomor_urut":1}}}`)
		})

		status, err := gateway.SubmitVote(ctx, BallotSubmission{CandidateID: 3})
		assert.Nil(err)
		assert.True(status.Complete())
	})

	t.Run("submit_vote_conflict_carries_status", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, `{"success":false,"message":"Anda sudah memberikan suara","data":{"has_voted":true,"voted_at":"2025-03-10T09:30:00Z","kandidat":{"id":5,"nomor_urut":3}}}`)
		})

		status, err := gateway.SubmitVote(ctx, BallotSubmission{CandidateID: 3})
		assert.True(IsKind(err, KindConflict))
		assert.Equal("Anda sudah memberikan suara", err.Error())
		assert.True(status.Complete())
		assert.Equal(int64(5), status.Candidate.ID)
	})

	t.Run("submit_vote_conflict_without_status", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, `{"success":false,"message":"Anda sudah memberikan suara"}`)
		})

		status, err := gateway.SubmitVote(ctx, BallotSubmission{CandidateID: 3})
		assert.True(IsKind(err, KindConflict))
		assert.False(status.Complete())
	})

	t.Run("vote_status", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/api/v1/vote/status", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"has_voted":false,"voted_at":null,"kandidat":null}}`)
		})

		status, err := gateway.VoteStatus(ctx)
		assert.Nil(err)
		assert.False(status.HasVoted)
		assert.Nil(status.VotedAt)
	})

	t.Run("error_kind_table", func(t *testing.T) {
		tests := []struct {
			status int
			kind   ErrorKind
		}{
			{http.StatusBadRequest, KindValidation},
			{http.StatusUnauthorized, KindUnauthorized},
			{http.StatusForbidden, KindForbidden},
			{http.StatusNotFound, KindNotFound},
			{http.StatusConflict, KindConflict},
			{http.StatusUnprocessableEntity, KindValidation},
			{http.StatusInternalServerError, KindServerError},
			{http.StatusBadGateway, KindServerError},
			{http.StatusTooManyRequests, KindServerError},
		}
		for _, tc := range tests {
			gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, `{"success":false}`)
			})
			_, err := gateway.VoteStatus(ctx)
			assert.Equal(tc.kind, KindOf(err), http.StatusText(tc.status))
			assert.Equal(http.StatusText(tc.status), err.Error())
		}
	})

	t.Run("validation_fields", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, `{"success":false,"errors":{"kandidat_id":["Kandidat wajib dipilih"]}}`)
		})

		_, err := gateway.SubmitVote(ctx, BallotSubmission{CandidateID: 3})
		var failure *Error
		assert.ErrorAs(err, &failure)
		assert.Equal("Kandidat wajib dipilih", failure.Message)
		assert.Equal([]string{"Kandidat wajib dipilih"}, failure.Fields["kandidat_id"])
	})

	t.Run("html_error_page", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "<html><head><title>502 Bad Gateway</title></head><body><h1>nginx</h1></body></html>")
		})

		_, err := gateway.ListCandidates(ctx)
		assert.True(IsKind(err, KindServerError))
		assert.Equal("502 Bad Gateway", err.Error())
	})

	t.Run("html_without_title", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "<html><body><h1>Whoops, <b>something</b> went wrong</h1></body></html>")
		})

		_, err := gateway.ListCandidates(ctx)
		assert.Equal("Whoops, something went wrong", err.Error())
	})

	t.Run("html_without_text", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, "<html><body><div></div></body></html>")
		})

		_, err := gateway.ListCandidates(ctx)
		assert.Equal("Server error: 500", err.Error())
	})

	t.Run("plain_text_error", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, "maintenance in progress\n")
		})

		_, err := gateway.ListCandidates(ctx)
		assert.Equal("maintenance in progress", err.Error())
	})

	t.Run("unparseable_success", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, "<html>ok</html>")
		})

		_, err := gateway.ListCandidates(ctx)
		assert.True(IsKind(err, KindServerError))
	})

	t.Run("network_failure", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		gateway := NewGateway(GatewayOptions{BaseURL: server.URL})

		_, err := gateway.VoteStatus(ctx)
		assert.True(IsKind(err, KindNetwork))
		var failure *Error
		assert.ErrorAs(err, &failure)
		assert.Equal(0, failure.StatusCode)
		assert.NotNil(failure.Unwrap())
	})

	t.Run("canceled_context", func(t *testing.T) {
		gateway := testGateway(t, "abc", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"success":true,"data":[]}`)
		})
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := gateway.ListCandidates(canceled)
		assert.True(IsKind(err, KindNetwork))
		assert.ErrorIs(err, context.Canceled)
	})
}
