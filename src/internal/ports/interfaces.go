package ports

import (
	"context"

	"github.com/soundlog/soundlog/src/internal/domain"
)

type UserRepository interface {
	// GetByID returns nil, nil when the user does not exist.
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// EnsureExists creates the user row if absent, no-op if present.
	EnsureExists(ctx context.Context, id string) error
	// ListConnected returns users with a linked catalog account and a full
	// credential pair.
	ListConnected(ctx context.Context) ([]domain.User, error)
	// LinkCatalogAccount stores the linked account and credentials. An empty
	// refreshToken keeps the previously stored one.
	LinkCatalogAccount(ctx context.Context, id, catalogID, accessToken, refreshToken string, expiresAt int64) error
	// UpdateTokens persists a refreshed credential pair. An empty
	// refreshToken keeps the previously stored one.
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt int64) error
	// ClearTokens wipes access/refresh tokens and expiry, forcing the user
	// back through the connect flow.
	ClearTokens(ctx context.Context, id string) error
	SetColor(ctx context.Context, id, color string) error
	SetPrivacy(ctx context.Context, id string, isPublic bool) error
	IsPublic(ctx context.Context, id string) (bool, error)
	// Delete removes the user and, by cascade, all their play events.
	Delete(ctx context.Context, id string) error
}

type HistoryRepository interface {
	// AppendEvents applies the source-dependent merge policy to the batch in
	// a single transaction. On storage failure nothing is visible.
	AppendEvents(ctx context.Context, userID string, events []domain.PlayEvent, source domain.Source) (domain.AppendResult, error)
	TopTracks(ctx context.Context, userID string, limit int, start, end int64) ([]domain.TrackStat, error)
	TopArtists(ctx context.Context, userID string, limit int, start, end int64) ([]domain.ArtistStat, error)
	WindowTotals(ctx context.Context, userID string, start, end int64) (domain.WindowTotals, error)
	HasAny(ctx context.Context, userID string) (bool, error)
	// PurgeUser atomically removes the user's play events together with the
	// user row where the backing store couples them.
	PurgeUser(ctx context.Context, userID string) error
}

// CatalogClient is an authorized, per-user handle to the external catalog
// API. Obtained through the gateway, never constructed directly by callers.
type CatalogClient interface {
	GetProfile(ctx context.Context) (*domain.CatalogProfile, error)
	GetRecentlyPlayed(ctx context.Context, limit int) ([]domain.RecentPlay, error)
	GetTracks(ctx context.Context, ids []string) ([]domain.CatalogTrack, error)
	SearchArtist(ctx context.Context, name string) (*domain.CatalogArtist, error)
	GetArtists(ctx context.Context, ids []string) ([]domain.CatalogArtist, error)
}

// CatalogGateway hands out authorized clients, refreshing credentials as
// needed. Returns domain.ErrNotConnected when the user must (re)connect and
// domain.ErrCatalogUnavailable on transient failure.
type CatalogGateway interface {
	AuthorizedClient(ctx context.Context, userID string) (CatalogClient, error)
}
