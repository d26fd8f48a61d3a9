package evote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// ListCandidatesWithVotes fetches the candidates with their vote count
func (g *Gateway) ListCandidatesWithVotes(ctx context.Context) ([]Candidate, error) {
	var wire []wireCandidate
	if err := g.callJSON(ctx, "listCandidatesWithVotes", http.MethodGet, "/kandidat-with-votes", nil, nil, &wire); err != nil {
		return nil, err
	}
	return toCandidates(wire), nil
}

// candidateFields returns the multipart fields of the form
func candidateFields(form CandidateForm) ([]formField, []formFile) {
	fields := []formField{
		{name: "nomor_urut", value: strconv.Itoa(form.BallotNumber)},
		{name: "ketua_nama", value: form.LeaderName},
		{name: "wakil_nama", value: form.DeputyName},
		{name: "visi", value: form.Vision},
		{name: "misi", value: form.Mission},
	}
	if form.WorkProgram != "" {
		fields = append(fields, formField{name: "program_kerja", value: form.WorkProgram})
	}
	files := []formFile{
		{name: "ketua_foto", upload: form.LeaderPhoto},
		{name: "wakil_foto", upload: form.DeputyPhoto},
	}
	return fields, files
}

// validateCandidateForm rejects forms missing required fields
func validateCandidateForm(op string, form CandidateForm) error {
	fields := map[string][]string{}
	if form.BallotNumber <= 0 {
		fields["nomor_urut"] = []string{"ballot number must be positive"}
	}
	if form.LeaderName == "" {
		fields["ketua_nama"] = []string{"leader name is required"}
	}
	if form.DeputyName == "" {
		fields["wakil_nama"] = []string{"deputy name is required"}
	}
	if form.Vision == "" {
		fields["visi"] = []string{"vision is required"}
	}
	if form.Mission == "" {
		fields["misi"] = []string{"mission is required"}
	}
	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Op: op, Message: firstFieldError(fields), Fields: fields}
}

// CreateCandidate creates a candidate, photos are sent as multipart files
func (g *Gateway) CreateCandidate(ctx context.Context, form CandidateForm) (Candidate, error) {
	const op = "createCandidate"
	if err := validateCandidateForm(op, form); err != nil {
		return Candidate{}, err
	}
	fields, files := candidateFields(form)

	var wire wireCandidate
	if err := g.callMultipart(ctx, op, http.MethodPost, "/kandidat", fields, files, &wire); err != nil {
		return Candidate{}, err
	}
	return wire.toCandidate(), nil
}

// UpdateCandidate updates a candidate. Multipart bodies are only
// parsed on POST by the remote service so the method is overridden
func (g *Gateway) UpdateCandidate(ctx context.Context, id int64, form CandidateForm) (Candidate, error) {
	const op = "updateCandidate"
	if err := validateCandidateForm(op, form); err != nil {
		return Candidate{}, err
	}
	fields, files := candidateFields(form)
	fields = append(fields, formField{name: "_method", value: http.MethodPut})

	var wire wireCandidate
	if err := g.callMultipart(ctx, op, http.MethodPost, pathID("/kandidat", id), fields, files, &wire); err != nil {
		return Candidate{}, err
	}
	return wire.toCandidate(), nil
}

// DeleteCandidate deletes a candidate
func (g *Gateway) DeleteCandidate(ctx context.Context, id int64) error {
	return g.callJSON(ctx, "deleteCandidate", http.MethodDelete, pathID("/kandidat", id), nil, nil, nil)
}

// studentQueryValues encodes the query. The remote service expects
// has_voted as a boolean instead of the status filter
func studentQueryValues(query StudentQuery) url.Values {
	values := url.Values{}
	if query.Search != "" {
		values.Set("search", query.Search)
	}
	switch query.Status {
	case StudentsVoted:
		values.Set("has_voted", "true")
	case StudentsNotVoted:
		values.Set("has_voted", "false")
	}
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(query.PerPage))
	}
	if query.SortBy != "" {
		values.Set("sort_by", query.SortBy)
	}
	if query.SortDir != "" {
		values.Set("sort_dir", query.SortDir)
	}
	return values
}

// ListStudents fetches a page of the voter roll
func (g *Gateway) ListStudents(ctx context.Context, query StudentQuery) (StudentPage, error) {
	const op = "listStudents"
	req, err := g.newRequest(ctx, op, http.MethodGet, "/mahasiswa", studentQueryValues(query), nil)
	if err != nil {
		return StudentPage{}, err
	}
	resp, err := g.roundTrip(op, req)
	if err != nil {
		return StudentPage{}, err
	}

	// pagination lives next to data so the envelope is decoded as a whole
	var wire wireStudentPage
	if err := json.Unmarshal(resp.body, &wire); err != nil {
		return StudentPage{}, newError(KindServerError, op, "unexpected response shape from remote service", err)
	}
	page := StudentPage{
		Students:    make([]Student, 0, len(wire.Data)),
		CurrentPage: wire.Meta.CurrentPage,
		LastPage:    wire.Meta.LastPage,
		PerPage:     wire.Meta.PerPage,
		Total:       wire.Meta.Total,
	}
	for _, student := range wire.Data {
		page.Students = append(page.Students, student.toStudent())
	}
	return page, nil
}

// GetStudent fetches a voter roll entry
func (g *Gateway) GetStudent(ctx context.Context, id int64) (Student, error) {
	var wire wireVoter
	if err := g.callJSON(ctx, "getStudent", http.MethodGet, pathID("/mahasiswa", id), nil, nil, &wire); err != nil {
		return Student{}, err
	}
	return wire.toStudent(), nil
}

// CreateStudent adds a voter roll entry
func (g *Gateway) CreateStudent(ctx context.Context, form StudentForm) (Student, error) {
	var wire wireVoter
	if err := g.callJSON(ctx, "createStudent", http.MethodPost, "/mahasiswa", nil, form, &wire); err != nil {
		return Student{}, err
	}
	return wire.toStudent(), nil
}

// UpdateStudent updates a voter roll entry
func (g *Gateway) UpdateStudent(ctx context.Context, id int64, form StudentForm) (Student, error) {
	var wire wireVoter
	if err := g.callJSON(ctx, "updateStudent", http.MethodPut, pathID("/mahasiswa", id), nil, form, &wire); err != nil {
		return Student{}, err
	}
	return wire.toStudent(), nil
}

// DeleteStudent removes a voter roll entry
func (g *Gateway) DeleteStudent(ctx context.Context, id int64) error {
	return g.callJSON(ctx, "deleteStudent", http.MethodDelete, pathID("/mahasiswa", id), nil, nil, nil)
}

// RegenerateToken issues a new single use voting token for a student
func (g *Gateway) RegenerateToken(ctx context.Context, id int64) (string, error) {
	var wire struct {
		VotingToken string `json:"voting_token"`
	}
	if err := g.callJSON(ctx, "regenerateToken", http.MethodPost, pathID("/mahasiswa", id, "/regenerate-token"), nil, nil, &wire); err != nil {
		return "", err
	}
	return wire.VotingToken, nil
}

// ImportStudents uploads a voter roll file (csv or xlsx)
func (g *Gateway) ImportStudents(ctx context.Context, filename string, content io.Reader) (ImportResult, error) {
	const op = "importStudents"
	if content == nil {
		return ImportResult{}, newError(KindValidation, op, "import file is required", nil)
	}
	files := []formFile{{name: "file", upload: &Upload{Filename: filename, Content: content}}}

	var result ImportResult
	if err := g.callMultipart(ctx, op, http.MethodPost, "/mahasiswa/import", nil, files, &result); err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// StudentStatistics summarizes the voter roll
func (g *Gateway) StudentStatistics(ctx context.Context) (StudentStatistics, error) {
	var stats StudentStatistics
	if err := g.callJSON(ctx, "studentStatistics", http.MethodGet, "/mahasiswa/statistics", nil, nil, &stats); err != nil {
		return StudentStatistics{}, err
	}
	return stats, nil
}

// Results fetches the tally computed by the remote service
func (g *Gateway) Results(ctx context.Context) ([]VotingResult, error) {
	var wire []wireVotingResult
	if err := g.callJSON(ctx, "results", http.MethodGet, "/results", nil, nil, &wire); err != nil {
		return nil, err
	}
	results := make([]VotingResult, 0, len(wire))
	for _, result := range wire {
		results = append(results, VotingResult{
			Candidate:  result.Kandidat.toCandidate(),
			TotalVotes: result.TotalVotes,
			Percentage: result.Percentage,
		})
	}
	return results, nil
}

// ResultsTimeline fetches the number of votes per hour
func (g *Gateway) ResultsTimeline(ctx context.Context) ([]TimelinePoint, error) {
	var timeline []TimelinePoint
	if err := g.callJSON(ctx, "resultsTimeline", http.MethodGet, "/results/timeline", nil, nil, &timeline); err != nil {
		return nil, err
	}
	return timeline, nil
}

// ExportResults downloads the results file
func (g *Gateway) ExportResults(ctx context.Context, format ExportFormat) (Export, error) {
	const op = "exportResults"
	if !format.valid() {
		return Export{}, newError(KindValidation, op, fmt.Sprintf("unsupported export format %q", format), nil)
	}

	req, err := g.newRequest(ctx, op, http.MethodGet, "/results/export", url.Values{"format": []string{string(format)}}, nil)
	if err != nil {
		return Export{}, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := g.roundTrip(op, req)
	if err != nil {
		return Export{}, err
	}

	export := Export{
		Format:      format,
		ContentType: resp.contentType,
		Data:        resp.body,
		Filename:    "hasil-voting." + string(format),
	}
	if _, params, err := mime.ParseMediaType(resp.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		export.Filename = params["filename"]
	}
	return export, nil
}

// DashboardStatistics summarizes the election
func (g *Gateway) DashboardStatistics(ctx context.Context) (DashboardStatistics, error) {
	var stats DashboardStatistics
	if err := g.callJSON(ctx, "dashboardStatistics", http.MethodGet, "/dashboard/statistics", nil, nil, &stats); err != nil {
		return DashboardStatistics{}, err
	}
	return stats, nil
}
