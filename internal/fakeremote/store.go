package fakeremote

import (
	"sort"
	"strconv"
	"time"
)

// timestampLayout is the layout of voted_at
const timestampLayout = "2006-01-02 15:04:05"

// Caller must hold s.mu for every function below

func (s *Server) sortedVoters() []*Voter {
	voters := make([]*Voter, 0, len(s.voters))
	for _, voter := range s.voters {
		voters = append(voters, voter)
	}
	sort.Slice(voters, func(i, j int) bool { return voters[i].ID < voters[j].ID })
	return voters
}

func (s *Server) sortedCandidates() []*Candidate {
	candidates := make([]*Candidate, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		candidates = append(candidates, candidate)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].NomorUrut < candidates[j].NomorUrut })
	return candidates
}

func (s *Server) voterByNIM(nim string) *Voter {
	for _, voter := range s.voters {
		if voter.NIM == nim {
			return voter
		}
	}
	return nil
}

func (s *Server) adminByUsername(username string) *Admin {
	for _, admin := range s.admins {
		if admin.Username == username {
			return admin
		}
	}
	return nil
}

// statusOf returns the vote status of the voter
func (s *Server) statusOf(voterID int64) voteStatus {
	recorded, ok := s.ballots[voterID]
	if !ok {
		return voteStatus{}
	}
	votedAt := recorded.votedAt.Format(timestampLayout)
	status := voteStatus{HasVoted: true, VotedAt: &votedAt}
	if candidate, ok := s.candidates[recorded.candidateID]; ok {
		copied := *candidate
		status.Kandidat = &copied
	}
	return status
}

// tally returns the number of votes per candidate id
func (s *Server) tally() map[int64]int {
	votes := make(map[int64]int, len(s.candidates))
	for _, recorded := range s.ballots {
		votes[recorded.candidateID]++
	}
	return votes
}

// timeline returns the number of votes per hour in chronological order
func (s *Server) timeline() []timelinePoint {
	perHour := make(map[time.Time]int)
	for _, recorded := range s.ballots {
		perHour[recorded.votedAt.Truncate(time.Hour)]++
	}
	hours := make([]time.Time, 0, len(perHour))
	for hour := range perHour {
		hours = append(hours, hour)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	points := make([]timelinePoint, 0, len(hours))
	for _, hour := range hours {
		points = append(points, timelinePoint{Hour: hour.Format("15:04"), Votes: perHour[hour]})
	}
	return points
}

// timelinePoint is the number of votes cast during an hour
type timelinePoint struct {
	Hour  string `json:"hour"`
	Votes int    `json:"votes"`
}

// percentage returns part over total as a percentage rounded to 2 decimals
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	value, _ := strconv.ParseFloat(strconv.FormatFloat(float64(part)*100/float64(total), 'f', 2, 64), 64)
	return value
}
