package evote

// Types of the administration contract. The remote service owns
// candidates, voter rolls and tallies, evote only carries them

// ExportFormat is the format of the exported results
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// valid reports whether the remote service supports the format
func (f ExportFormat) valid() bool {
	return f == ExportCSV || f == ExportXLSX
}

// StudentFilter filters students by vote status
type StudentFilter string

const (
	StudentsAll      StudentFilter = "all"
	StudentsVoted    StudentFilter = "voted"
	StudentsNotVoted StudentFilter = "not_voted"
)

// Student is a voter roll entry as seen by administrators
type Student struct {
	ID           int64
	ExternalID   string
	Name         string
	Faculty      string
	Major        string
	StudyProgram string
	HasVoted     bool

	// VotingToken is only returned to administrators
	VotingToken string

	Active bool
}

// StudentQuery filters and paginates the voter roll
type StudentQuery struct {
	Search  string
	Status  StudentFilter
	Page    int
	PerPage int
	SortBy  string

	// SortDir is asc or desc
	SortDir string
}

// StudentPage is a page of the voter roll
type StudentPage struct {
	Students    []Student
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int
}

// StudentForm creates or updates a voter roll entry
type StudentForm struct {
	ExternalID   string `json:"nim"`
	Name         string `json:"name"`
	StudyProgram string `json:"program_studi"`
}

// StudentStatistics summarizes the voter roll
type StudentStatistics struct {
	Total    int `json:"total"`
	Voted    int `json:"voted"`
	NotVoted int `json:"not_voted"`
}

// ImportResult is the outcome of a voter roll import
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// CandidateForm creates or updates a candidate
type CandidateForm struct {
	BallotNumber int
	LeaderName   string
	DeputyName   string
	Vision       string
	Mission      string
	WorkProgram  string

	// LeaderPhoto and DeputyPhoto are optional uploads
	LeaderPhoto *Upload
	DeputyPhoto *Upload
}

// VotingResult is the tally of a candidate
type VotingResult struct {
	Candidate  Candidate
	TotalVotes int
	Percentage float64
}

// TimelinePoint is the number of votes cast during an hour
type TimelinePoint struct {
	Hour  string `json:"hour"`
	Votes int    `json:"votes"`
}

// DashboardStatistics summarizes the election
type DashboardStatistics struct {
	TotalStudents    int     `json:"total_mahasiswa"`
	TotalVoted       int     `json:"total_voted"`
	TotalNotVoted    int     `json:"total_not_voted"`
	TotalCandidates  int     `json:"total_kandidat"`
	VotingPercentage float64 `json:"voting_percentage"`
}

// Export is an exported results file
type Export struct {
	Format      ExportFormat
	ContentType string

	// Filename is taken from Content-Disposition when provided
	Filename string

	Data []byte
}

// wireStudentPage is the paginated voter roll
type wireStudentPage struct {
	Data []wireVoter `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
		PerPage     int `json:"per_page"`
		Total       int `json:"total"`
	} `json:"meta"`
}

// wireVotingResult is a single tally
type wireVotingResult struct {
	Kandidat   wireCandidate `json:"kandidat"`
	TotalVotes int           `json:"total_votes"`
	Percentage float64       `json:"percentage"`
}

func (w wireVoter) toStudent() Student {
	active := true
	if w.IsActive != nil {
		active = *w.IsActive
	}
	return Student{
		ID:           w.ID,
		ExternalID:   w.NIM,
		Name:         w.Name,
		Faculty:      w.Fakultas,
		Major:        w.Jurusan,
		StudyProgram: w.ProgramStudi,
		HasVoted:     w.HasVoted,
		VotingToken:  w.VotingToken,
		Active:       active,
	}
}
