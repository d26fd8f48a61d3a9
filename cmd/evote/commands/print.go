package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/Lord-Y/evote"
)

const dateLayout = "2006-01-02 15:04:05"

// table returns a tabwriter over the command output
func table(app *App) *tabwriter.Writer {
	return tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printVoter(app *App, voter evote.Voter) {
	app.printf("Voter %s (%s)\n", voter.DisplayName, voter.ExternalID)
	if voter.Faculty != "" {
		app.printf("Faculty: %s\n", voter.Faculty)
	}
	if voter.Major != "" {
		app.printf("Major: %s\n", voter.Major)
	}
	app.printf("Voted: %s\n", yesNo(voter.HasVoted))
}

func printCandidate(app *App, candidate evote.Candidate) {
	app.printf("#%d %s & %s (id %d)\n", candidate.BallotNumber, candidate.LeaderName, candidate.DeputyName, candidate.ID)
	if candidate.PlatformStatement != "" {
		app.printf("Vision: %s\n", candidate.PlatformStatement)
	}
	for _, point := range candidate.PlatformPoints {
		app.printf("  - %s\n", point)
	}
	if candidate.WorkProgram != "" {
		app.printf("Work program: %s\n", candidate.WorkProgram)
	}
}

func printCandidates(app *App, candidates []evote.Candidate) {
	if len(candidates) == 0 {
		app.printf("No candidates\n")
		return
	}
	w := table(app)
	_, _ = fmt.Fprintln(w, "ID\tNUMBER\tLEADER\tDEPUTY\tVOTES")
	for _, candidate := range candidates {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\n", candidate.ID, candidate.BallotNumber, candidate.LeaderName, candidate.DeputyName, candidate.VoteCount)
	}
	_ = w.Flush()
}

// printStatus prints the voter status view
func printStatus(app *App, status evote.VoteStatus) {
	if !status.HasVoted {
		app.printf("You have not voted yet\n")
		return
	}
	app.printf("Your ballot is recorded\n")
	if status.VotedAt != nil {
		app.printf("Voted at: %s\n", status.VotedAt.In(time.Local).Format(dateLayout))
	}
	if status.Candidate != nil {
		app.printf("Candidate: #%d %s & %s\n", status.Candidate.BallotNumber, status.Candidate.LeaderName, status.Candidate.DeputyName)
	}
}

// printVoting prints the status view of the vote controller
func printVoting(app *App, voting *evote.VoteController) {
	status, ok := voting.Status()
	switch {
	case ok:
		printStatus(app, status)
	case voting.State() == evote.Voted:
		app.printf("Your ballot is recorded, run status to see the details\n")
	default:
		app.printf("Vote status unknown\n")
	}
}

func printDashboard(app *App, stats evote.DashboardStatistics) {
	w := table(app)
	_, _ = fmt.Fprintf(w, "Students\t%d\n", stats.TotalStudents)
	_, _ = fmt.Fprintf(w, "Voted\t%d\n", stats.TotalVoted)
	_, _ = fmt.Fprintf(w, "Not voted\t%d\n", stats.TotalNotVoted)
	_, _ = fmt.Fprintf(w, "Candidates\t%d\n", stats.TotalCandidates)
	_, _ = fmt.Fprintf(w, "Turnout\t%.2f%%\n", stats.VotingPercentage)
	_ = w.Flush()
}

func printResults(app *App, results []evote.VotingResult) {
	w := table(app)
	_, _ = fmt.Fprintln(w, "NUMBER\tCANDIDATE\tVOTES\tPERCENT")
	for _, result := range results {
		_, _ = fmt.Fprintf(w, "%d\t%s & %s\t%d\t%.2f%%\n", result.Candidate.BallotNumber, result.Candidate.LeaderName, result.Candidate.DeputyName, result.TotalVotes, result.Percentage)
	}
	_ = w.Flush()
}

func printTimeline(app *App, points []evote.TimelinePoint) {
	w := table(app)
	_, _ = fmt.Fprintln(w, "HOUR\tVOTES")
	for _, point := range points {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", point.Hour, point.Votes)
	}
	_ = w.Flush()
}

func printStudents(app *App, page evote.StudentPage) {
	w := table(app)
	_, _ = fmt.Fprintln(w, "ID\tNIM\tNAME\tPROGRAM\tVOTED\tTOKEN")
	for _, student := range page.Students {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", student.ID, student.ExternalID, student.Name, student.StudyProgram, yesNo(student.HasVoted), student.VotingToken)
	}
	_ = w.Flush()
	app.printf("Page %d/%d, %d students\n", page.CurrentPage, page.LastPage, page.Total)
}
