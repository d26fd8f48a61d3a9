package fakeremote

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/jackc/fake"
	"github.com/rs/zerolog"
)

// New builds the fake remote service with generated voters and candidates
func New(options Options) *Server {
	s := &Server{
		voters:     make(map[int64]*Voter),
		admins:     make(map[int64]*Admin),
		candidates: make(map[int64]*Candidate),
		ballots:    make(map[int64]ballot),
		revoked:    make(map[string]struct{}),
		failures:   make(map[string]Failure),
		requests:   make(map[string]int),
		secret:     options.Secret,
		tokenTTL:   options.TokenTTL,
		logger:     options.Logger,
	}
	if len(s.secret) == 0 {
		s.secret = make([]byte, 32)
		_, _ = rand.Read(s.secret)
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.logger == nil {
		nop := zerolog.Nop()
		s.logger = &nop
	}

	for range options.Voters {
		s.AddVoter(fake.DigitsN(8), fake.FullName())
	}
	for i := range options.Candidates {
		s.AddCandidate(Candidate{
			NomorUrut: i + 1,
			KetuaNama: fake.FullName(),
			WakilNama: fake.FullName(),
			Visi:      fake.Sentence(),
			Misi:      strings.Join([]string{fake.Sentence(), fake.Sentence()}, "\n"),
			IsActive:  true,
		})
	}
	s.router = s.newRouters()
	return s
}

// Handler returns the http handler of the service
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the service on a local port and returns its base url
func (s *Server) Start() string {
	s.httpServer = httptest.NewServer(s.router)
	return s.URL()
}

// URL returns the base url of the started service
func (s *Server) URL() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.URL + pathPrefix
}

// Close stops the service and releases held votes
func (s *Server) Close() {
	s.mu.Lock()
	if s.hold != nil {
		close(s.hold)
		s.hold = nil
	}
	s.mu.Unlock()
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// AddVoter enrolls a voter and returns it with its single use token
func (s *Server) AddVoter(nim, name string) Voter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	voter := &Voter{
		ID:           s.nextID,
		NIM:          nim,
		Name:         name,
		Fakultas:     "Teknik",
		Jurusan:      fake.Industry(),
		ProgramStudi: "S1",
		VotingToken:  newVotingToken(),
		IsActive:     true,
	}
	s.voters[voter.ID] = voter
	return *voter
}

// AddAdmin registers an administrator
func (s *Server) AddAdmin(username, password string) Admin {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	admin := &Admin{
		ID:       s.nextID,
		Username: username,
		Name:     fake.FullName(),
		Role:     "super_admin",
		password: password,
	}
	s.admins[admin.ID] = admin
	return *admin
}

// AddCandidate registers a candidate, the id is assigned by the service
func (s *Server) AddCandidate(candidate Candidate) Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	candidate.ID = s.nextID
	s.candidates[candidate.ID] = &candidate
	return candidate
}

// Voters returns the enrolled voters sorted by id
func (s *Server) Voters() []Voter {
	s.mu.Lock()
	defer s.mu.Unlock()
	voters := make([]Voter, 0, len(s.voters))
	for _, voter := range s.sortedVoters() {
		voters = append(voters, *voter)
	}
	return voters
}

// Candidates returns the candidates sorted by ballot number
func (s *Server) Candidates() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidates := make([]Candidate, 0, len(s.candidates))
	for _, candidate := range s.sortedCandidates() {
		candidates = append(candidates, *candidate)
	}
	return candidates
}

// RecordVote records a ballot as if it was cast from another device
func (s *Server) RecordVote(voterID, candidateID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return fmt.Errorf("voter %d not found", voterID)
	}
	if _, ok := s.candidates[candidateID]; !ok {
		return fmt.Errorf("candidate %d not found", candidateID)
	}
	s.ballots[voterID] = ballot{candidateID: candidateID, votedAt: time.Now().UTC()}
	voter.HasVoted = true
	return nil
}

// Fail makes the route answer with the failure until ClearFailures.
// The path is relative to /api/v1
func (s *Server) Fail(method, path string, failure Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[routeKey(method, pathPrefix+path)] = failure
}

// ClearFailures removes every injected failure
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
}

// HoldVotes blocks vote submissions until release is called.
// held receives a value every time a submission is blocked
func (s *Server) HoldVotes() (held <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold := make(chan struct{})
	s.hold = hold
	s.held = make(chan struct{}, 16)

	return s.held, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.hold == hold {
			close(hold)
			s.hold = nil
		}
	}
}

// Requests returns the number of requests received by the route.
// The path is relative to /api/v1
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[routeKey(method, pathPrefix+path)]
}

// Revoked reports whether the token id was revoked by a logout
func (s *Server) Revoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenID]
	return ok
}

func routeKey(method, path string) string {
	return method + " " + path
}

// newVotingToken returns a single use token like the ones printed for voters
func newVotingToken() string {
	return strings.ToUpper(fake.CharactersN(8))
}
