package domain

// CatalogProfile is the catalog account behind a connected user.
type CatalogProfile struct {
	ID          string
	DisplayName string
}

type CatalogTrack struct {
	ID         string
	URI        string
	Name       string
	ArtistName string
	DurationMS int64
}

type CatalogArtist struct {
	ID     string
	Name   string
	Genres []string
}

// RecentPlay is one item of the catalog's recent-activity feed, as
// delivered by the API before normalization.
type RecentPlay struct {
	PlayedAt   string // ISO-8601 wall clock from the provider
	TrackName  string
	ArtistName string
	AlbumName  string
	TrackURI   string
	DurationMS int64 // track length; 0 when the provider omitted it
}
