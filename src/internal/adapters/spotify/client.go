package spotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soundlog/soundlog/src/internal/domain"
)

const defaultBaseURL = "https://api.spotify.com/v1"

// Batch-size cap the provider enforces on /tracks and /artists lookups.
const MaxIDsPerLookup = 50

// MaxRecentItems is the provider's cap on the recent-activity feed.
const MaxRecentItems = 50

type Client struct {
	accessToken string
	client      *http.Client

	// BaseURL is overridable for tests; leave untouched otherwise.
	BaseURL string
}

func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		BaseURL:     defaultBaseURL,
	}
}

// Responses
type profileResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackObject struct {
	ID         string `json:"id"`
	URI        string `json:"uri"`
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Album      struct {
		Name string `json:"name"`
	} `json:"album"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

type recentlyPlayedResponse struct {
	Items []struct {
		PlayedAt string      `json:"played_at"`
		Track    trackObject `json:"track"`
	} `json:"items"`
}

type tracksResponse struct {
	Tracks []*trackObject `json:"tracks"`
}

type artistObject struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
}

type artistsResponse struct {
	Artists []*artistObject `json:"artists"`
}

type searchResponse struct {
	Artists struct {
		Items []artistObject `json:"items"`
	} `json:"artists"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error.Message}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) GetProfile(ctx context.Context) (*domain.CatalogProfile, error) {
	var res profileResponse
	if err := c.get(ctx, "/me", nil, &res); err != nil {
		return nil, err
	}
	return &domain.CatalogProfile{ID: res.ID, DisplayName: res.DisplayName}, nil
}

func (c *Client) GetRecentlyPlayed(ctx context.Context, limit int) ([]domain.RecentPlay, error) {
	if limit <= 0 || limit > MaxRecentItems {
		limit = MaxRecentItems
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var res recentlyPlayedResponse
	if err := c.get(ctx, "/me/player/recently-played", q, &res); err != nil {
		return nil, err
	}

	plays := make([]domain.RecentPlay, 0, len(res.Items))
	for _, item := range res.Items {
		play := domain.RecentPlay{
			PlayedAt:   item.PlayedAt,
			TrackName:  item.Track.Name,
			AlbumName:  item.Track.Album.Name,
			TrackURI:   item.Track.URI,
			DurationMS: item.Track.DurationMS,
		}
		if len(item.Track.Artists) > 0 {
			play.ArtistName = item.Track.Artists[0].Name
		}
		plays = append(plays, play)
	}
	return plays, nil
}

// GetTracks accepts bare track ids or full track URIs; at most
// MaxIDsPerLookup per call.
func (c *Client) GetTracks(ctx context.Context, ids []string) ([]domain.CatalogTrack, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	bare := make([]string, 0, len(ids))
	for _, id := range ids {
		bare = append(bare, TrackIDFromURI(id))
	}
	q := url.Values{}
	q.Set("ids", strings.Join(bare, ","))

	var res tracksResponse
	if err := c.get(ctx, "/tracks", q, &res); err != nil {
		return nil, err
	}

	var tracks []domain.CatalogTrack
	for _, t := range res.Tracks {
		if t == nil {
			// Unknown ids come back as null entries.
			continue
		}
		track := domain.CatalogTrack{
			ID:         t.ID,
			URI:        t.URI,
			Name:       t.Name,
			DurationMS: t.DurationMS,
		}
		if len(t.Artists) > 0 {
			track.ArtistName = t.Artists[0].Name
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func (c *Client) SearchArtist(ctx context.Context, name string) (*domain.CatalogArtist, error) {
	q := url.Values{}
	q.Set("type", "artist")
	q.Set("q", name)
	q.Set("limit", "1")

	var res searchResponse
	if err := c.get(ctx, "/search", q, &res); err != nil {
		return nil, err
	}
	if len(res.Artists.Items) == 0 {
		return nil, nil
	}
	a := res.Artists.Items[0]
	return &domain.CatalogArtist{ID: a.ID, Name: a.Name, Genres: a.Genres}, nil
}

func (c *Client) GetArtists(ctx context.Context, ids []string) ([]domain.CatalogArtist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))

	var res artistsResponse
	if err := c.get(ctx, "/artists", q, &res); err != nil {
		return nil, err
	}

	var artists []domain.CatalogArtist
	for _, a := range res.Artists {
		if a == nil {
			continue
		}
		artists = append(artists, domain.CatalogArtist{ID: a.ID, Name: a.Name, Genres: a.Genres})
	}
	return artists, nil
}

// TrackIDFromURI strips the "spotify:track:" prefix; bare ids pass through.
func TrackIDFromURI(uri string) string {
	if idx := strings.LastIndex(uri, ":"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
