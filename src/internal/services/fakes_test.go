package services

import (
	"context"
	"errors"

	"github.com/soundlog/soundlog/src/internal/domain"
	"github.com/soundlog/soundlog/src/internal/ports"
)

var errTransport = errors.New("connection reset")

// fakeCatalogClient is a scriptable stand-in for the real API client.
type fakeCatalogClient struct {
	profile      *domain.CatalogProfile
	profileErr   error
	profileCalls int

	recent    []domain.RecentPlay
	recentErr error

	tracks      []domain.CatalogTrack
	tracksErr   error
	tracksCalls [][]string

	searchResults map[string]*domain.CatalogArtist
	searchErr     error
	artistsByID   map[string]domain.CatalogArtist
	artistsErr    error
	artistsCalls  [][]string
}

func (f *fakeCatalogClient) GetProfile(ctx context.Context) (*domain.CatalogProfile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile != nil {
		return f.profile, nil
	}
	return &domain.CatalogProfile{ID: "catalog-user"}, nil
}

func (f *fakeCatalogClient) GetRecentlyPlayed(ctx context.Context, limit int) ([]domain.RecentPlay, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeCatalogClient) GetTracks(ctx context.Context, ids []string) ([]domain.CatalogTrack, error) {
	f.tracksCalls = append(f.tracksCalls, ids)
	if f.tracksErr != nil {
		return nil, f.tracksErr
	}
	return f.tracks, nil
}

func (f *fakeCatalogClient) SearchArtist(ctx context.Context, name string) (*domain.CatalogArtist, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults[name], nil
}

func (f *fakeCatalogClient) GetArtists(ctx context.Context, ids []string) ([]domain.CatalogArtist, error) {
	f.artistsCalls = append(f.artistsCalls, ids)
	if f.artistsErr != nil {
		return nil, f.artistsErr
	}
	var artists []domain.CatalogArtist
	for _, id := range ids {
		if artist, ok := f.artistsByID[id]; ok {
			artists = append(artists, artist)
		}
	}
	return artists, nil
}

// fakeGateway hands out a fixed client per user, or an error.
type fakeGateway struct {
	clients map[string]ports.CatalogClient
	errs    map[string]error
}

func (g *fakeGateway) AuthorizedClient(ctx context.Context, userID string) (ports.CatalogClient, error) {
	if err, ok := g.errs[userID]; ok {
		return nil, err
	}
	if client, ok := g.clients[userID]; ok {
		return client, nil
	}
	return nil, domain.ErrNotConnected
}
