package evote

import (
	"encoding/json"
	"strings"
	"time"
)

// The remote service names fields inconsistently between envelopes.
// wire* types mirror what it sends and are converted right away
// into the canonical types, nothing else in evote reads them

// wireVoter is the student record (mahasiswa)
type wireVoter struct {
	ID           int64  `json:"id"`
	NIM          string `json:"nim"`
	Name         string `json:"name"`
	Fakultas     string `json:"fakultas"`
	Jurusan      string `json:"jurusan"`
	ProgramStudi string `json:"program_studi"`
	HasVoted     bool   `json:"has_voted"`
	VotingToken  string `json:"voting_token"`
	IsActive     *bool  `json:"is_active"`
}

// wireAdmin is the administrator record
type wireAdmin struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// wireLogin is the login payload, voters get a mahasiswa record
// and administrators an admin record. Older deployments send token/user
type wireLogin struct {
	AccessToken string          `json:"access_token"`
	Token       string          `json:"token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	Mahasiswa   *wireVoter      `json:"mahasiswa"`
	Admin       *wireAdmin      `json:"admin"`
	User        json.RawMessage `json:"user"`
}

// wireCandidate is the candidate record (kandidat) with its aliases
type wireCandidate struct {
	ID           int64  `json:"id"`
	NomorUrut    int    `json:"nomor_urut"`
	KetuaNama    string `json:"ketua_nama"`
	NamaKetua    string `json:"nama_ketua"`
	WakilNama    string `json:"wakil_nama"`
	NamaWakil    string `json:"nama_wakil"`
	KetuaFoto    string `json:"ketua_foto"`
	FotoKetua    string `json:"foto_ketua"`
	WakilFoto    string `json:"wakil_foto"`
	FotoWakil    string `json:"foto_wakil"`
	Visi         string `json:"visi"`
	Misi         string `json:"misi"`
	ProgramKerja string `json:"program_kerja"`
	IsActive     *bool  `json:"is_active"`
	TotalVotes   *int   `json:"total_votes"`
	VotingsCount *int   `json:"votings_count"`
}

// wireVoteStatus is the vote status payload
type wireVoteStatus struct {
	HasVoted bool           `json:"has_voted"`
	VotedAt  string         `json:"voted_at"`
	Kandidat *wireCandidate `json:"kandidat"`
}

// wireBallot is the vote submission body
type wireBallot struct {
	KandidatID   int64 `json:"kandidat_id"`
	Confirmation bool  `json:"confirmation"`
}

func (w wireVoter) toVoter() Voter {
	major := w.Jurusan
	if major == "" {
		major = w.ProgramStudi
	}
	return Voter{
		ID:          w.ID,
		ExternalID:  w.NIM,
		DisplayName: w.Name,
		Faculty:     w.Fakultas,
		Major:       major,
		HasVoted:    w.HasVoted,
	}
}

func (w wireAdmin) toAdministrator() Administrator {
	username := w.Username
	if username == "" {
		username = w.Email
	}
	return Administrator{
		ID:          w.ID,
		Username:    username,
		DisplayName: w.Name,
		Role:        w.Role,
	}
}

// toLoginResult normalizes the login payload for the expected principal kind
func (w wireLogin) toLoginResult(kind PrincipalKind) (LoginResult, bool) {
	result := LoginResult{
		Credential: firstNonEmpty(w.AccessToken, w.Token),
		TokenType:  w.TokenType,
		ExpiresIn:  w.ExpiresIn,
	}
	if result.TokenType == "" {
		result.TokenType = "bearer"
	}

	switch kind {
	case PrincipalVoter:
		record := w.Mahasiswa
		if record == nil && len(w.User) > 0 {
			record = new(wireVoter)
			if err := json.Unmarshal(w.User, record); err != nil {
				return result, false
			}
		}
		if record == nil {
			return result, false
		}
		result.Principal = record.toVoter()
	case PrincipalAdmin:
		record := w.Admin
		if record == nil && len(w.User) > 0 {
			record = new(wireAdmin)
			if err := json.Unmarshal(w.User, record); err != nil {
				return result, false
			}
		}
		if record == nil {
			return result, false
		}
		result.Principal = record.toAdministrator()
	}
	return result, result.Credential != ""
}

func (w wireCandidate) toCandidate() Candidate {
	active := true
	if w.IsActive != nil {
		active = *w.IsActive
	}
	votes := 0
	switch {
	case w.TotalVotes != nil:
		votes = *w.TotalVotes
	case w.VotingsCount != nil:
		votes = *w.VotingsCount
	}
	return Candidate{
		ID:                w.ID,
		BallotNumber:      w.NomorUrut,
		LeaderName:        firstNonEmpty(w.KetuaNama, w.NamaKetua),
		DeputyName:        firstNonEmpty(w.WakilNama, w.NamaWakil),
		PlatformStatement: strings.TrimSpace(w.Visi),
		PlatformPoints:    splitLines(w.Misi),
		WorkProgram:       strings.TrimSpace(w.ProgramKerja),
		LeaderPhoto:       firstNonEmpty(w.KetuaFoto, w.FotoKetua),
		DeputyPhoto:       firstNonEmpty(w.WakilFoto, w.FotoWakil),
		Active:            active,
		VoteCount:         votes,
	}
}

func toCandidates(wire []wireCandidate) []Candidate {
	candidates := make([]Candidate, 0, len(wire))
	for _, w := range wire {
		candidates = append(candidates, w.toCandidate())
	}
	return candidates
}

func (w wireVoteStatus) toVoteStatus() VoteStatus {
	status := VoteStatus{HasVoted: w.HasVoted}
	if votedAt, ok := parseTimestamp(w.VotedAt); ok {
		status.VotedAt = &votedAt
	}
	if w.Kandidat != nil {
		candidate := w.Kandidat.toCandidate()
		status.Candidate = &candidate
	}
	return status
}

// timestampLayouts are the layouts sent by the remote service
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp parses a remote timestamp, false is returned when empty or unknown
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// splitLines returns the non empty trimmed lines of value
func splitLines(value string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(value, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
