package fakeremote

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type loginVoterRequest struct {
	NIM   string `json:"nim"`
	Token string `json:"token"`
}

type loginAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type voteRequest struct {
	KandidatID   int64 `json:"kandidat_id"`
	Confirmation bool  `json:"confirmation"`
}

// loginVoter exchanges the student number and the voting token for a bearer token
func (s *Server) loginVoter(c *gin.Context) {
	var data loginVoterRequest
	if err := c.ShouldBindJSON(&data); err != nil {
		failure(c, http.StatusBadRequest, "Format permintaan tidak valid", nil)
		return
	}
	fields := map[string][]string{}
	if data.NIM == "" {
		fields["nim"] = []string{"NIM wajib diisi"}
	}
	if data.Token == "" {
		fields["token"] = []string{"Token wajib diisi"}
	}
	if len(fields) > 0 {
		failure(c, http.StatusUnprocessableEntity, "Data tidak valid", fields)
		return
	}

	s.mu.Lock()
	voter := s.voterByNIM(data.NIM)
	if voter == nil || voter.VotingToken != data.Token || !voter.IsActive {
		s.mu.Unlock()
		failure(c, http.StatusUnauthorized, "NIM atau token tidak valid", nil)
		return
	}
	record := *voter
	s.mu.Unlock()

	token, err := s.issueToken(kindVoter, record.ID)
	if err != nil {
		failure(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	record.VotingToken = ""
	success(c, http.StatusOK, "Login berhasil", gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int64(s.tokenTTL / time.Second),
		"mahasiswa":    record,
	})
}

// loginAdmin exchanges administrator credentials for a bearer token
func (s *Server) loginAdmin(c *gin.Context) {
	var data loginAdminRequest
	if err := c.ShouldBindJSON(&data); err != nil {
		failure(c, http.StatusBadRequest, "Format permintaan tidak valid", nil)
		return
	}

	s.mu.Lock()
	admin := s.adminByUsername(data.Username)
	if admin == nil || admin.password != data.Password {
		s.mu.Unlock()
		failure(c, http.StatusUnauthorized, "Username atau password salah", nil)
		return
	}
	record := *admin
	s.mu.Unlock()

	token, err := s.issueToken(kindAdmin, record.ID)
	if err != nil {
		failure(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	success(c, http.StatusOK, "Login berhasil", gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int64(s.tokenTTL / time.Second),
		"admin":        record,
	})
}

// logout revokes the bearer token
func (s *Server) logout(c *gin.Context) {
	parsed := currentClaims(c)
	s.mu.Lock()
	s.revoked[parsed.ID] = struct{}{}
	s.mu.Unlock()
	success(c, http.StatusOK, "Logout berhasil", nil)
}

// me returns the voter record of the bearer token
func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	voter, ok := s.voters[currentClaims(c).principalID()]
	if !ok {
		s.mu.Unlock()
		failure(c, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}
	record := *voter
	s.mu.Unlock()
	record.VotingToken = ""
	success(c, http.StatusOK, "", record)
}

// listCandidates returns the active candidates by ballot number
func (s *Server) listCandidates(c *gin.Context) {
	s.mu.Lock()
	candidates := make([]Candidate, 0, len(s.candidates))
	for _, candidate := range s.sortedCandidates() {
		if candidate.IsActive {
			candidates = append(candidates, *candidate)
		}
	}
	s.mu.Unlock()
	success(c, http.StatusOK, "", candidates)
}

// getCandidate returns a single candidate
func (s *Server) getCandidate(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	candidate, ok := s.candidates[id]
	var record Candidate
	if ok {
		record = *candidate
	}
	s.mu.Unlock()
	if !ok {
		notFound(c, "Kandidat tidak ditemukan")
		return
	}
	success(c, http.StatusOK, "", record)
}

// vote records the ballot of the voter, exactly once
func (s *Server) vote(c *gin.Context) {
	voterID := currentClaims(c).principalID()

	var data voteRequest
	if err := c.ShouldBindJSON(&data); err != nil {
		failure(c, http.StatusBadRequest, "Format permintaan tidak valid", nil)
		return
	}
	if data.KandidatID <= 0 {
		failure(c, http.StatusUnprocessableEntity, "Kandidat wajib dipilih", map[string][]string{"kandidat_id": {"Kandidat wajib dipilih"}})
		return
	}
	if !data.Confirmation {
		failure(c, http.StatusUnprocessableEntity, "Konfirmasi wajib diberikan", map[string][]string{"confirmation": {"Konfirmasi wajib diberikan"}})
		return
	}

	s.mu.Lock()
	hold, held := s.hold, s.held
	s.mu.Unlock()
	if hold != nil {
		select {
		case held <- struct{}{}:
		default:
		}
		<-hold
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		failure(c, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}
	if _, ok := s.ballots[voterID]; ok {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "Anda sudah memberikan suara",
			"data":    s.statusOf(voterID),
		})
		return
	}
	candidate, ok := s.candidates[data.KandidatID]
	if !ok {
		notFound(c, "Kandidat tidak ditemukan")
		return
	}
	if !candidate.IsActive {
		failure(c, http.StatusUnprocessableEntity, "Kandidat tidak aktif", nil)
		return
	}

	s.ballots[voterID] = ballot{candidateID: candidate.ID, votedAt: time.Now().UTC()}
	voter.HasVoted = true
	success(c, http.StatusOK, "Suara berhasil dicatat", s.statusOf(voterID))
}

// voteStatus returns the vote status of the voter
func (s *Server) voteStatus(c *gin.Context) {
	s.mu.Lock()
	status := s.statusOf(currentClaims(c).principalID())
	s.mu.Unlock()
	success(c, http.StatusOK, "", status)
}
