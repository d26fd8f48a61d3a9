package fakeremote

import (
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// defaultTokenTTL is the default lifetime of issued tokens
	defaultTokenTTL = time.Hour

	// pathPrefix is the prefix of every route
	pathPrefix = "/api/v1"
)

// Options holds config of the fake remote service
type Options struct {
	// Logger expose zerolog so it can be override
	Logger *zerolog.Logger

	// Secret signs the issued tokens, a random one is used when empty
	Secret []byte

	// TokenTTL is the lifetime of issued tokens.
	// Default to 1h
	TokenTTL time.Duration

	// Voters is the number of generated voters
	Voters int

	// Candidates is the number of generated candidates
	Candidates int
}

// Voter is a student record (mahasiswa)
type Voter struct {
	ID           int64  `json:"id"`
	NIM          string `json:"nim"`
	Name         string `json:"name"`
	Fakultas     string `json:"fakultas,omitempty"`
	Jurusan      string `json:"jurusan,omitempty"`
	ProgramStudi string `json:"program_studi,omitempty"`
	HasVoted     bool   `json:"has_voted"`
	VotingToken  string `json:"voting_token,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// Admin is an administrator record
type Admin struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`

	password string
}

// Candidate is a candidate record (kandidat)
type Candidate struct {
	ID           int64  `json:"id"`
	NomorUrut    int    `json:"nomor_urut"`
	KetuaNama    string `json:"ketua_nama"`
	WakilNama    string `json:"wakil_nama"`
	KetuaFoto    string `json:"ketua_foto,omitempty"`
	WakilFoto    string `json:"wakil_foto,omitempty"`
	Visi         string `json:"visi"`
	Misi         string `json:"misi"`
	ProgramKerja string `json:"program_kerja,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// candidateWithVotes is the administration view of a candidate
type candidateWithVotes struct {
	Candidate
	TotalVotes int `json:"total_votes"`
}

// ballot is a recorded vote
type ballot struct {
	candidateID int64
	votedAt     time.Time
}

// voteStatus is the vote status payload
type voteStatus struct {
	HasVoted bool       `json:"has_voted"`
	VotedAt  *string    `json:"voted_at"`
	Kandidat *Candidate `json:"kandidat"`
}

// Failure is an injected response
type Failure struct {
	// Status is the HTTP status to answer
	Status int

	// Body is written verbatim
	Body string

	// ContentType of the body, default to application/json
	ContentType string

	// Once removes the failure after its first use
	Once bool
}

// Server is an in memory implementation of the remote e-voting service
type Server struct {
	// mu protects everything below
	mu sync.Mutex

	voters     map[int64]*Voter
	admins     map[int64]*Admin
	candidates map[int64]*Candidate
	ballots    map[int64]ballot
	revoked    map[string]struct{}
	failures   map[string]Failure
	requests   map[string]int
	nextID     int64
	hold       chan struct{}
	held       chan struct{}
	secret     []byte
	tokenTTL   time.Duration
	router     *gin.Engine
	httpServer *httptest.Server
	logger     *zerolog.Logger
}
