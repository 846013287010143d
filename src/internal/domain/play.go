package domain

type Source string

const (
	SourceUpload Source = "upload"
	SourceRecent Source = "recent"
)

// PlayEvent is one canonical observation of a track being played by a user
// at a point in time. Rows are immutable once written.
type PlayEvent struct {
	UserID     string
	TS         int64 // unix seconds, UTC
	MsPlayed   int64
	TrackName  string
	ArtistName string
	AlbumName  string // optional
	TrackURI   string // opaque catalog id, may be absent
	Source     Source

	// NeedsDuration marks an imported event whose duration was absent from
	// the export and should be filled from the catalog before persistence.
	// Never stored.
	NeedsDuration bool
}

type AppendResult struct {
	Added   int
	Skipped int
	Invalid int
}

type TrackStat struct {
	TrackName  string
	ArtistName string
	TrackURI   string
	TotalMs    int64
	PlayCount  int
}

type ArtistStat struct {
	ArtistName   string
	TotalMs      int64
	UniqueTracks int
	PlayCount    int
}

// GenreStat attributes listening time to a genre through the artists the
// catalog tags with it. An artist with several genres counts fully toward
// each, so genre totals overlap and do not sum to the window total.
type GenreStat struct {
	Genre   string
	TotalMs int64
}

type WindowTotals struct {
	TotalMs   int64
	PlayCount int
}

// Summary bundles the per-window aggregates consumed by profile-style
// callers in one shot.
type Summary struct {
	TopTracks  []TrackStat
	TopArtists []ArtistStat
	Totals     WindowTotals
}
