package fakeremote

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type studentRequest struct {
	NIM          string `json:"nim"`
	Name         string `json:"name"`
	ProgramStudi string `json:"program_studi"`
}

type studentPageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

type votingResult struct {
	Kandidat   Candidate `json:"kandidat"`
	TotalVotes int       `json:"total_votes"`
	Percentage float64   `json:"percentage"`
}

// listCandidatesWithVotes returns every candidate with its vote count
func (s *Server) listCandidatesWithVotes(c *gin.Context) {
	s.mu.Lock()
	votes := s.tally()
	candidates := make([]candidateWithVotes, 0, len(s.candidates))
	for _, candidate := range s.sortedCandidates() {
		candidates = append(candidates, candidateWithVotes{Candidate: *candidate, TotalVotes: votes[candidate.ID]})
	}
	s.mu.Unlock()
	success(c, http.StatusOK, "", candidates)
}

// candidateFromForm reads the multipart candidate form
func candidateFromForm(c *gin.Context) (Candidate, map[string][]string) {
	fields := map[string][]string{}
	number, err := strconv.Atoi(c.PostForm("nomor_urut"))
	if err != nil || number <= 0 {
		fields["nomor_urut"] = []string{"Nomor urut tidak valid"}
	}
	candidate := Candidate{
		NomorUrut:    number,
		KetuaNama:    c.PostForm("ketua_nama"),
		WakilNama:    c.PostForm("wakil_nama"),
		Visi:         c.PostForm("visi"),
		Misi:         c.PostForm("misi"),
		ProgramKerja: c.PostForm("program_kerja"),
		IsActive:     true,
	}
	for name, value := range map[string]string{"ketua_nama": candidate.KetuaNama, "wakil_nama": candidate.WakilNama, "visi": candidate.Visi, "misi": candidate.Misi} {
		if value == "" {
			fields[name] = []string{fmt.Sprintf("Kolom %s wajib diisi", name)}
		}
	}
	if header, err := c.FormFile("ketua_foto"); err == nil {
		candidate.KetuaFoto = "kandidat/" + header.Filename
	}
	if header, err := c.FormFile("wakil_foto"); err == nil {
		candidate.WakilFoto = "kandidat/" + header.Filename
	}
	return candidate, fields
}

// ballotNumberTaken reports whether another candidate holds the ballot number.
// Caller must hold s.mu
func (s *Server) ballotNumberTaken(number int, except int64) bool {
	for _, candidate := range s.candidates {
		if candidate.NomorUrut == number && candidate.ID != except {
			return true
		}
	}
	return false
}

// createCandidate registers a candidate from a multipart form
func (s *Server) createCandidate(c *gin.Context) {
	candidate, fields := candidateFromForm(c)
	if len(fields) > 0 {
		failure(c, http.StatusUnprocessableEntity, "Data tidak valid", fields)
		return
	}

	s.mu.Lock()
	if s.ballotNumberTaken(candidate.NomorUrut, 0) {
		s.mu.Unlock()
		failure(c, http.StatusUnprocessableEntity, "Nomor urut sudah digunakan", map[string][]string{"nomor_urut": {"Nomor urut sudah digunakan"}})
		return
	}
	s.nextID++
	candidate.ID = s.nextID
	s.candidates[candidate.ID] = &candidate
	s.mu.Unlock()
	success(c, http.StatusCreated, "Kandidat berhasil ditambahkan", candidate)
}

// updateCandidate updates a candidate, multipart forms override the method with _method
func (s *Server) updateCandidate(c *gin.Context) {
	if c.PostForm("_method") != http.MethodPut {
		failure(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	candidate, fields := candidateFromForm(c)
	if len(fields) > 0 {
		failure(c, http.StatusUnprocessableEntity, "Data tidak valid", fields)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.candidates[id]
	if !ok {
		notFound(c, "Kandidat tidak ditemukan")
		return
	}
	if s.ballotNumberTaken(candidate.NomorUrut, id) {
		failure(c, http.StatusUnprocessableEntity, "Nomor urut sudah digunakan", map[string][]string{"nomor_urut": {"Nomor urut sudah digunakan"}})
		return
	}
	candidate.ID = id
	candidate.IsActive = current.IsActive
	if candidate.KetuaFoto == "" {
		candidate.KetuaFoto = current.KetuaFoto
	}
	if candidate.WakilFoto == "" {
		candidate.WakilFoto = current.WakilFoto
	}
	*current = candidate
	success(c, http.StatusOK, "Kandidat berhasil diperbarui", candidate)
}

// deleteCandidate removes a candidate without ballots
func (s *Server) deleteCandidate(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		notFound(c, "Kandidat tidak ditemukan")
		return
	}
	if s.tally()[id] > 0 {
		failure(c, http.StatusConflict, "Kandidat sudah memiliki suara", nil)
		return
	}
	delete(s.candidates, id)
	success(c, http.StatusOK, "Kandidat berhasil dihapus", nil)
}

// listStudents returns a page of the voter roll
func (s *Server) listStudents(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	hasVoted := c.Query("has_voted")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	s.mu.Lock()
	var students []Voter
	for _, voter := range s.sortedVoters() {
		if search != "" && !strings.Contains(strings.ToLower(voter.Name), search) && !strings.Contains(voter.NIM, search) {
			continue
		}
		if hasVoted != "" && strconv.FormatBool(voter.HasVoted) != hasVoted {
			continue
		}
		students = append(students, *voter)
	}
	s.mu.Unlock()

	switch c.Query("sort_by") {
	case "name":
		sort.SliceStable(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	case "nim":
		sort.SliceStable(students, func(i, j int) bool { return students[i].NIM < students[j].NIM })
	}
	if c.Query("sort_dir") == "desc" {
		for i, j := 0, len(students)-1; i < j; i, j = i+1, j-1 {
			students[i], students[j] = students[j], students[i]
		}
	}

	total := len(students)
	lastPage := max(1, (total+perPage-1)/perPage)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    append([]Voter{}, students[start:end]...),
		"meta":    studentPageMeta{CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total},
	})
}

// studentStatistics summarizes the voter roll
func (s *Server) studentStatistics(c *gin.Context) {
	s.mu.Lock()
	total, voted := len(s.voters), len(s.ballots)
	s.mu.Unlock()
	success(c, http.StatusOK, "", gin.H{"total": total, "voted": voted, "not_voted": total - voted})
}

// getStudent returns a voter roll entry with its voting token
func (s *Server) getStudent(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	voter, ok := s.voters[id]
	var record Voter
	if ok {
		record = *voter
	}
	s.mu.Unlock()
	if !ok {
		notFound(c, "Mahasiswa tidak ditemukan")
		return
	}
	success(c, http.StatusOK, "", record)
}

// createStudent adds a voter roll entry with a new voting token
func (s *Server) createStudent(c *gin.Context) {
	var data studentRequest
	if err := c.ShouldBindJSON(&data); err != nil {
		failure(c, http.StatusBadRequest, "Format permintaan tidak valid", nil)
		return
	}
	if data.NIM == "" || data.Name == "" {
		failure(c, http.StatusUnprocessableEntity, "NIM dan nama wajib diisi", nil)
		return
	}

	s.mu.Lock()
	exists := s.voterByNIM(data.NIM) != nil
	s.mu.Unlock()
	if exists {
		failure(c, http.StatusUnprocessableEntity, "NIM sudah terdaftar", map[string][]string{"nim": {"NIM sudah terdaftar"}})
		return
	}
	voter := s.AddVoter(data.NIM, data.Name)
	if data.ProgramStudi != "" {
		s.mu.Lock()
		s.voters[voter.ID].ProgramStudi = data.ProgramStudi
		voter = *s.voters[voter.ID]
		s.mu.Unlock()
	}
	success(c, http.StatusCreated, "Mahasiswa berhasil ditambahkan", voter)
}

// updateStudent updates a voter roll entry
func (s *Server) updateStudent(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	var data studentRequest
	if err := c.ShouldBindJSON(&data); err != nil {
		failure(c, http.StatusBadRequest, "Format permintaan tidak valid", nil)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		notFound(c, "Mahasiswa tidak ditemukan")
		return
	}
	if data.NIM != "" {
		voter.NIM = data.NIM
	}
	if data.Name != "" {
		voter.Name = data.Name
	}
	if data.ProgramStudi != "" {
		voter.ProgramStudi = data.ProgramStudi
	}
	success(c, http.StatusOK, "Mahasiswa berhasil diperbarui", *voter)
}

// deleteStudent removes a voter roll entry
func (s *Server) deleteStudent(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.voters[id]; !ok {
		notFound(c, "Mahasiswa tidak ditemukan")
		return
	}
	delete(s.voters, id)
	success(c, http.StatusOK, "Mahasiswa berhasil dihapus", nil)
}

// regenerateToken issues a new voting token
func (s *Server) regenerateToken(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[id]
	if !ok {
		notFound(c, "Mahasiswa tidak ditemukan")
		return
	}
	voter.VotingToken = newVotingToken()
	success(c, http.StatusOK, "Token berhasil dibuat ulang", gin.H{"voting_token": voter.VotingToken})
}

// importStudents adds the voter roll entries of a csv file (nim,name,program_studi)
func (s *Server) importStudents(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		failure(c, http.StatusUnprocessableEntity, "File wajib diunggah", map[string][]string{"file": {"File wajib diunggah"}})
		return
	}
	file, err := header.Open()
	if err != nil {
		failure(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	imported, failed := 0, 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failed++
			continue
		}
		if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "nim") {
			continue
		}
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" || strings.TrimSpace(record[1]) == "" {
			failed++
			continue
		}
		nim := strings.TrimSpace(record[0])
		s.mu.Lock()
		exists := s.voterByNIM(nim) != nil
		s.mu.Unlock()
		if exists {
			failed++
			continue
		}
		voter := s.AddVoter(nim, strings.TrimSpace(record[1]))
		if len(record) > 2 {
			s.mu.Lock()
			s.voters[voter.ID].ProgramStudi = strings.TrimSpace(record[2])
			s.mu.Unlock()
		}
		imported++
	}
	success(c, http.StatusOK, "Import selesai", gin.H{"imported": imported, "failed": failed})
}

// votingResults returns the tally by ballot number.
// Caller must hold s.mu
func (s *Server) votingResults() []votingResult {
	votes := s.tally()
	total := len(s.ballots)
	results := make([]votingResult, 0, len(s.candidates))
	for _, candidate := range s.sortedCandidates() {
		results = append(results, votingResult{
			Kandidat:   *candidate,
			TotalVotes: votes[candidate.ID],
			Percentage: percentage(votes[candidate.ID], total),
		})
	}
	return results
}

// results returns the tally
func (s *Server) results(c *gin.Context) {
	s.mu.Lock()
	results := s.votingResults()
	s.mu.Unlock()
	success(c, http.StatusOK, "", results)
}

// resultsTimeline returns the number of votes per hour
func (s *Server) resultsTimeline(c *gin.Context) {
	s.mu.Lock()
	points := s.timeline()
	s.mu.Unlock()
	success(c, http.StatusOK, "", points)
}

// exportResults writes the tally as a downloadable file
func (s *Server) exportResults(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		failure(c, http.StatusUnprocessableEntity, "Format tidak didukung", map[string][]string{"format": {"Format tidak didukung"}})
		return
	}

	s.mu.Lock()
	results := s.votingResults()
	s.mu.Unlock()

	buffer := new(bytes.Buffer)
	writer := csv.NewWriter(buffer)
	_ = writer.Write([]string{"nomor_urut", "ketua", "wakil", "total_suara", "persentase"})
	for _, result := range results {
		_ = writer.Write([]string{
			strconv.Itoa(result.Kandidat.NomorUrut),
			result.Kandidat.KetuaNama,
			result.Kandidat.WakilNama,
			strconv.Itoa(result.TotalVotes),
			strconv.FormatFloat(result.Percentage, 'f', 2, 64),
		})
	}
	writer.Flush()

	contentType := "text/csv"
	if format == "xlsx" {
		// spreadsheets are not rendered, the csv payload is only labelled as xlsx
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	filename := fmt.Sprintf("hasil-voting-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buffer.Bytes())
}

// dashboardStatistics summarizes the election
func (s *Server) dashboardStatistics(c *gin.Context) {
	s.mu.Lock()
	total, voted, candidates := len(s.voters), len(s.ballots), len(s.candidates)
	s.mu.Unlock()
	success(c, http.StatusOK, "", gin.H{
		"total_mahasiswa":   total,
		"total_voted":       voted,
		"total_not_voted":   total - voted,
		"total_kandidat":    candidates,
		"voting_percentage": percentage(voted, total),
	})
}
