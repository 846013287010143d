package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/soundlog/soundlog/src/internal/adapters/spotify"
	"github.com/soundlog/soundlog/src/internal/config"
	"github.com/soundlog/soundlog/src/internal/domain"
	"github.com/soundlog/soundlog/src/internal/ports"
)

const (
	defaultPollInterval = 90 * time.Second
	defaultUserDelay    = 500 * time.Millisecond
	recentFetchLimit    = 50

	// The recent feed sometimes omits track length; assume three minutes,
	// as the original tracker did.
	assumedRecentPlayMs = 180000
)

// Poller periodically pulls every connected user's recent-activity feed
// through the gateway into the history store. Strictly sequential per user;
// the inter-user delay is the sole backpressure toward the provider's rate
// limit.
type Poller struct {
	users     ports.UserRepository
	history   ports.HistoryRepository
	gateway   ports.CatalogGateway
	interval  time.Duration
	userDelay time.Duration
}

// CycleStats is the per-cycle unit of observability. Individual events do
// not report beyond these counts.
type CycleStats struct {
	UsersProcessed int
	ItemsFetched   int
	Added          int
	Skipped        int
	UsersFailed    int
}

func NewPoller(users ports.UserRepository, history ports.HistoryRepository, gateway ports.CatalogGateway, cfg config.PollConfig) *Poller {
	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	delay := time.Duration(cfg.UserDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = defaultUserDelay
	}
	return &Poller{
		users:     users,
		history:   history,
		gateway:   gateway,
		interval:  interval,
		userDelay: delay,
	}
}

// Run polls until the context is cancelled. The first cycle starts
// immediately. A cycle never escapes an error out of its tick; in-flight
// per-user work finishes naturally on shutdown.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("[Poller] Starting recent-activity polling every %s", p.interval)
	p.runLoggedCycle(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Poller] Stopped")
			return
		case <-ticker.C:
			p.runLoggedCycle(ctx)
		}
	}
}

func (p *Poller) runLoggedCycle(ctx context.Context) {
	stats := p.RunCycle(ctx)
	log.Printf("[Poller] Cycle finished: users=%d fetched=%d added=%d skipped=%d failed=%d",
		stats.UsersProcessed, stats.ItemsFetched, stats.Added, stats.Skipped, stats.UsersFailed)
}

// RunCycle processes every connected user once. A single user's failure
// never aborts the cycle for the rest.
func (p *Poller) RunCycle(ctx context.Context) CycleStats {
	var stats CycleStats

	users, err := p.users.ListConnected(ctx)
	if err != nil {
		log.Printf("[Poller] Failed to list connected users: %v", err)
		return stats
	}
	if len(users) == 0 {
		return stats
	}

	for i, user := range users {
		if i > 0 && !p.pause(ctx) {
			return stats
		}
		stats.UsersProcessed++

		client, err := p.gateway.AuthorizedClient(ctx, user.ID)
		if err != nil {
			stats.UsersFailed++
			if errors.Is(err, domain.ErrNotConnected) {
				log.Printf("[Poller] User %s needs to reconnect, skipping", user.ID)
			} else {
				log.Printf("[Poller] No catalog client for user %s: %v", user.ID, err)
			}
			continue
		}

		plays, err := client.GetRecentlyPlayed(ctx, recentFetchLimit)
		if err != nil {
			stats.UsersFailed++
			if spotify.IsRateLimited(err) {
				log.Printf("[Poller] Rate limit hit for user %s; consider a longer interval", user.ID)
			} else {
				log.Printf("[Poller] Recent-activity fetch failed for user %s: %v", user.ID, err)
			}
			continue
		}
		stats.ItemsFetched += len(plays)

		events := make([]domain.PlayEvent, 0, len(plays))
		for _, play := range plays {
			msPlayed := play.DurationMS
			if msPlayed <= 0 {
				msPlayed = assumedRecentPlayMs
			}
			event, err := Normalize(RawRecord{
				Timestamp:  play.PlayedAt,
				MsPlayed:   &msPlayed,
				TrackName:  play.TrackName,
				ArtistName: play.ArtistName,
				AlbumName:  play.AlbumName,
				TrackURI:   play.TrackURI,
			}, domain.SourceRecent, NormalizeOptions{})
			if err != nil {
				log.Printf("[Poller] Dropping invalid recent item for user %s: %v", user.ID, err)
				continue
			}
			events = append(events, event)
		}
		if len(events) == 0 {
			continue
		}

		result, err := p.history.AppendEvents(ctx, user.ID, events, domain.SourceRecent)
		if err != nil {
			stats.UsersFailed++
			log.Printf("[Poller] Failed to store events for user %s: %v", user.ID, err)
			continue
		}
		stats.Added += result.Added
		stats.Skipped += result.Skipped
	}
	return stats
}

// pause waits the inter-user delay, bailing early on shutdown.
func (p *Poller) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.userDelay):
		return true
	}
}
