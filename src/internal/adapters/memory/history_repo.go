package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/soundlog/soundlog/src/internal/domain"
)

const minCountedMs = 3000

type storedEvent struct {
	seq   int64
	event domain.PlayEvent
}

// InMemoryHistoryRepo mirrors the Postgres history repo's merge policy and
// query semantics for dev and test use.
type InMemoryHistoryRepo struct {
	events map[string][]storedEvent // keyed by user id
	users  *InMemoryUserRepo
	nextID int64
	mu     sync.RWMutex
}

func NewHistoryRepo() *InMemoryHistoryRepo {
	return &InMemoryHistoryRepo{
		events: make(map[string][]storedEvent),
	}
}

// NewHistoryRepoWithUsers links the history repo to a user repo so appends
// create the user row, like the production store's ensure-user insert.
func NewHistoryRepoWithUsers(users *InMemoryUserRepo) *InMemoryHistoryRepo {
	repo := NewHistoryRepo()
	repo.users = users
	return repo
}

func (r *InMemoryHistoryRepo) AppendEvents(ctx context.Context, userID string, events []domain.PlayEvent, source domain.Source) (domain.AppendResult, error) {
	if r.users != nil {
		if err := r.users.EnsureExists(ctx, userID); err != nil {
			return domain.AppendResult{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var result domain.AppendResult
	for _, event := range events {
		if err := domain.ValidateEvent(event); err != nil {
			result.Invalid++
			continue
		}

		if source == domain.SourceRecent && r.observedLocked(userID, event.TrackURI, event.TS) {
			result.Skipped++
			continue
		}

		event.UserID = userID
		event.Source = source
		r.nextID++
		r.events[userID] = append(r.events[userID], storedEvent{seq: r.nextID, event: event})
		result.Added++
	}
	return result, nil
}

func (r *InMemoryHistoryRepo) observedLocked(userID, trackURI string, ts int64) bool {
	for _, stored := range r.events[userID] {
		if stored.event.TrackURI == trackURI && stored.event.TS == ts {
			return true
		}
	}
	return false
}

func (r *InMemoryHistoryRepo) windowed(userID string, start, end int64) []storedEvent {
	var matched []storedEvent
	for _, stored := range r.events[userID] {
		e := stored.event
		if e.TS >= start && e.TS < end && e.MsPlayed > minCountedMs {
			matched = append(matched, stored)
		}
	}
	return matched
}

func (r *InMemoryHistoryRepo) TopTracks(ctx context.Context, userID string, limit int, start, end int64) ([]domain.TrackStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type group struct {
		stat  domain.TrackStat
		first int64
	}
	groups := make(map[[3]string]*group)
	for _, stored := range r.windowed(userID, start, end) {
		e := stored.event
		key := [3]string{e.TrackName, e.ArtistName, e.TrackURI}
		g, ok := groups[key]
		if !ok {
			g = &group{
				stat:  domain.TrackStat{TrackName: e.TrackName, ArtistName: e.ArtistName, TrackURI: e.TrackURI},
				first: stored.seq,
			}
			groups[key] = g
		}
		g.stat.TotalMs += e.MsPlayed
		g.stat.PlayCount++
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].stat.TotalMs != ordered[j].stat.TotalMs {
			return ordered[i].stat.TotalMs > ordered[j].stat.TotalMs
		}
		return ordered[i].first < ordered[j].first
	})

	var stats []domain.TrackStat
	for _, g := range ordered {
		if len(stats) == limit {
			break
		}
		stats = append(stats, g.stat)
	}
	return stats, nil
}

func (r *InMemoryHistoryRepo) TopArtists(ctx context.Context, userID string, limit int, start, end int64) ([]domain.ArtistStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type group struct {
		stat   domain.ArtistStat
		tracks map[string]bool
		first  int64
	}
	groups := make(map[string]*group)
	for _, stored := range r.windowed(userID, start, end) {
		e := stored.event
		if e.ArtistName == "" {
			continue
		}
		g, ok := groups[e.ArtistName]
		if !ok {
			g = &group{
				stat:   domain.ArtistStat{ArtistName: e.ArtistName},
				tracks: make(map[string]bool),
				first:  stored.seq,
			}
			groups[e.ArtistName] = g
		}
		g.stat.TotalMs += e.MsPlayed
		g.stat.PlayCount++
		g.tracks[e.TrackName] = true
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		g.stat.UniqueTracks = len(g.tracks)
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].stat.TotalMs != ordered[j].stat.TotalMs {
			return ordered[i].stat.TotalMs > ordered[j].stat.TotalMs
		}
		return ordered[i].first < ordered[j].first
	})

	var stats []domain.ArtistStat
	for _, g := range ordered {
		if len(stats) == limit {
			break
		}
		stats = append(stats, g.stat)
	}
	return stats, nil
}

func (r *InMemoryHistoryRepo) WindowTotals(ctx context.Context, userID string, start, end int64) (domain.WindowTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var totals domain.WindowTotals
	for _, stored := range r.windowed(userID, start, end) {
		totals.TotalMs += stored.event.MsPlayed
		totals.PlayCount++
	}
	return totals, nil
}

func (r *InMemoryHistoryRepo) HasAny(ctx context.Context, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.events[userID]) > 0, nil
}

// PurgeUser drops all stored events for the user. The user row lives in the
// user repo; the account service removes it alongside.
func (r *InMemoryHistoryRepo) PurgeUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.events, userID)
	return nil
}
