package evote

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// NewRoster builds the candidate roster cache
func NewRoster(source CandidateSource, options RosterOptions) *Roster {
	size := options.CacheSize
	if size <= 0 {
		size = defaultRosterCacheSize
	}
	// lru.New only fails on a non positive size
	byID, _ := lru.New[int64, Candidate](size)

	return &Roster{
		byID:   byID,
		source: source,
		logger: nopLoggerIfNil(options.Logger),
	}
}

// Refresh fetches the candidates once. On failure the previous
// list is kept and returned with the error
func (r *Roster) Refresh(ctx context.Context) ([]Candidate, error) {
	candidates, err := r.source.ListCandidates(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.lastErr = err
		r.logger.Warn().Err(err).
			Int("cached", len(r.candidates)).
			Msg("Fail to refresh candidates, keeping previous list")
		return cloneCandidates(r.candidates), err
	}

	r.candidates = cloneCandidates(candidates)
	r.fetchedAt = time.Now()
	r.lastErr = nil
	r.byID.Purge()
	for _, candidate := range candidates {
		r.byID.Add(candidate.ID, candidate)
	}
	r.logger.Debug().Int("candidates", len(candidates)).Msg("Candidates refreshed")
	return cloneCandidates(r.candidates), nil
}

// List returns the last successfully fetched list without network call
func (r *Roster) List() []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneCandidates(r.candidates)
}

// Get returns the candidate from the cache or fetches it
func (r *Roster) Get(ctx context.Context, id int64) (Candidate, error) {
	if candidate, ok := r.byID.Get(id); ok {
		return candidate, nil
	}

	candidate, err := r.source.GetCandidate(ctx, id)
	if err != nil {
		return Candidate{}, err
	}
	r.byID.Add(id, candidate)
	return candidate, nil
}

// LastError returns the error of the last refresh, nil when it succeeded
func (r *Roster) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// FetchedAt returns the date of the last successful refresh
func (r *Roster) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}

// Reset drops every cached candidate
func (r *Roster) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = nil
	r.fetchedAt = time.Time{}
	r.lastErr = nil
	r.byID.Purge()
}

// cloneCandidates returns a copy of the list so that callers
// cannot alter the cache
func cloneCandidates(candidates []Candidate) []Candidate {
	if candidates == nil {
		return nil
	}
	out := make([]Candidate, len(candidates))
	copy(out, candidates)
	return out
}
