package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soundlog/soundlog/src/internal/adapters/spotify"
	"github.com/soundlog/soundlog/src/internal/domain"
	"github.com/soundlog/soundlog/src/internal/ports"
)

// Period is a symbolic query window anchored at "now".
type Period string

const (
	PeriodLast7Days   Period = "last-7-days"
	PeriodLastMonth   Period = "last-month"
	PeriodLast3Months Period = "last-3-months"
	PeriodLast6Months Period = "last-6-months"
	PeriodLastYear    Period = "last-year"
	PeriodAllTime     Period = "all-time"
)

const (
	summaryTopTracks  = 20
	summaryTopArtists = 10
)

// Pool of ranked artists whose genres feed the genre aggregation.
const genreArtistPool = 50

// Matched artists the catalog carries no genres for land here.
const unknownGenreLabel = "unknown/other"

// Stats is the aggregation engine: window resolution plus ranked queries
// over the history store.
type Stats struct {
	history ports.HistoryRepository
	now     func() time.Time
}

func NewStats(history ports.HistoryRepository) *Stats {
	return &Stats{history: history, now: time.Now}
}

// ResolveWindow computes [now - period, now) in epoch seconds. Month and
// year subtraction shift calendar fields, clamping the day to the target
// month's length (March 31 minus one month is the last day of February).
// Unknown tokens fall back to all-time, like the original period parser.
func (s *Stats) ResolveWindow(period Period) (start, end int64) {
	now := s.now()
	end = now.Unix()

	switch period {
	case PeriodLast7Days:
		start = now.AddDate(0, 0, -7).Unix()
	case PeriodLastMonth:
		start = addMonthsClamped(now, -1).Unix()
	case PeriodLast3Months:
		start = addMonthsClamped(now, -3).Unix()
	case PeriodLast6Months:
		start = addMonthsClamped(now, -6).Unix()
	case PeriodLastYear:
		start = addMonthsClamped(now, -12).Unix()
	default:
		start = 0
	}
	return start, end
}

// PeriodName is the user-facing label for a period token.
func PeriodName(period Period) string {
	switch period {
	case PeriodLast7Days:
		return "Last 7 Days"
	case PeriodLastMonth:
		return "Last Month"
	case PeriodLast3Months:
		return "Last 3 Months"
	case PeriodLast6Months:
		return "Last 6 Months"
	case PeriodLastYear:
		return "Last Year"
	default:
		return "All Time"
	}
}

func (s *Stats) TopTracks(ctx context.Context, userID string, limit int, period Period) ([]domain.TrackStat, error) {
	start, end := s.ResolveWindow(period)
	return s.history.TopTracks(ctx, userID, limit, start, end)
}

func (s *Stats) TopArtists(ctx context.Context, userID string, limit int, period Period) ([]domain.ArtistStat, error) {
	start, end := s.ResolveWindow(period)
	return s.history.TopArtists(ctx, userID, limit, start, end)
}

func (s *Stats) WindowTotals(ctx context.Context, userID string, period Period) (domain.WindowTotals, error) {
	start, end := s.ResolveWindow(period)
	return s.history.WindowTotals(ctx, userID, start, end)
}

// Summary bundles top tracks, top artists and window totals in one call.
func (s *Stats) Summary(ctx context.Context, userID string, period Period) (*domain.Summary, error) {
	start, end := s.ResolveWindow(period)

	tracks, err := s.history.TopTracks(ctx, userID, summaryTopTracks, start, end)
	if err != nil {
		return nil, err
	}
	artists, err := s.history.TopArtists(ctx, userID, summaryTopArtists, start, end)
	if err != nil {
		return nil, err
	}
	totals, err := s.history.WindowTotals(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return &domain.Summary{TopTracks: tracks, TopArtists: artists, Totals: totals}, nil
}

// TopGenres attributes the window's listening time to genres. The store does
// not know genres, so the user's top artists are matched to catalog artists
// by name search and their genre tags looked up in batches; each genre an
// artist carries receives the artist's full play time. Best-effort per
// artist: a failed search or lookup drops that artist from the aggregation.
func (s *Stats) TopGenres(ctx context.Context, client ports.CatalogClient, userID string, limit int, period Period) ([]domain.GenreStat, error) {
	start, end := s.ResolveWindow(period)
	artists, err := s.history.TopArtists(ctx, userID, genreArtistPool, start, end)
	if err != nil {
		return nil, err
	}
	if len(artists) == 0 {
		return nil, nil
	}

	idByName := make(map[string]string, len(artists))
	var ids []string
	for _, artist := range artists {
		found, err := client.SearchArtist(ctx, artist.ArtistName)
		if err != nil || found == nil {
			continue
		}
		if _, seen := idByName[strings.ToLower(artist.ArtistName)]; !seen {
			idByName[strings.ToLower(artist.ArtistName)] = found.ID
			ids = append(ids, found.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	genresByID := make(map[string][]string, len(ids))
	for offset := 0; offset < len(ids); offset += spotify.MaxIDsPerLookup {
		stop := offset + spotify.MaxIDsPerLookup
		if stop > len(ids) {
			stop = len(ids)
		}
		matched, err := client.GetArtists(ctx, ids[offset:stop])
		if err != nil {
			continue
		}
		for _, artist := range matched {
			genresByID[artist.ID] = artist.Genres
		}
	}

	playtime := make(map[string]int64)
	for _, artist := range artists {
		id, ok := idByName[strings.ToLower(artist.ArtistName)]
		if !ok {
			continue
		}
		genres, ok := genresByID[id]
		if !ok {
			continue
		}
		if len(genres) == 0 {
			playtime[unknownGenreLabel] += artist.TotalMs
			continue
		}
		for _, genre := range genres {
			playtime[genre] += artist.TotalMs
		}
	}

	ranked := make([]domain.GenreStat, 0, len(playtime))
	for genre, totalMs := range playtime {
		ranked = append(ranked, domain.GenreStat{Genre: genre, TotalMs: totalMs})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalMs != ranked[j].TotalMs {
			return ranked[i].TotalMs > ranked[j].TotalMs
		}
		return ranked[i].Genre < ranked[j].Genre
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// HasAnyHistory distinguishes "no data ever" from "no data in this window"
// for user-facing messaging.
func (s *Stats) HasAnyHistory(ctx context.Context, userID string) (bool, error) {
	return s.history.HasAny(ctx, userID)
}

// addMonthsClamped shifts calendar fields, clamping the day-of-month to the
// target month's length instead of letting it normalize into the next month.
func addMonthsClamped(t time.Time, months int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 + months
	year := total / 12
	month := time.Month(total%12 + 1)
	if total < 0 {
		// Integer division truncates toward zero; shift back one year.
		year = (total - 11) / 12
		month = time.Month((total%12+12)%12 + 1)
	}

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDuration renders a millisecond total as "1d 2h 3m 4s".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0s"
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	if seconds > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", seconds)
	}
	return strings.TrimSpace(b.String())
}
