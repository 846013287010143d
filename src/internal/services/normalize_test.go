package services

import (
	"errors"
	"testing"

	"github.com/soundlog/soundlog/src/internal/domain"
)

func msPtr(v int64) *int64 {
	return &v
}

func TestNormalizeEpochSeconds(t *testing.T) {
	event, err := Normalize(RawRecord{
		Timestamp:  "1700000000",
		MsPlayed:   msPtr(215000),
		TrackName:  "Song A",
		ArtistName: "Artist A",
		AlbumName:  "Album A",
		TrackURI:   "spotify:track:abc123",
	}, domain.SourceUpload, NormalizeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.TS != 1700000000 {
		t.Fatalf("expected ts 1700000000, got %d", event.TS)
	}
	if event.MsPlayed != 215000 {
		t.Fatalf("expected ms 215000, got %d", event.MsPlayed)
	}
	if event.Source != domain.SourceUpload {
		t.Fatalf("expected source %q, got %q", domain.SourceUpload, event.Source)
	}
}

func TestNormalizeISOTimestamp(t *testing.T) {
	event, err := Normalize(RawRecord{
		Timestamp:  "2023-11-14T22:13:20Z",
		MsPlayed:   msPtr(1000),
		TrackName:  "Song A",
		ArtistName: "Artist A",
	}, domain.SourceRecent, NormalizeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.TS != 1700000000 {
		t.Fatalf("expected ts 1700000000, got %d", event.TS)
	}
}

func TestNormalizeEpochMillis(t *testing.T) {
	event, err := Normalize(RawRecord{
		Timestamp:  "1700000000123",
		MsPlayed:   msPtr(1000),
		TrackName:  "Song A",
		ArtistName: "Artist A",
	}, domain.SourceUpload, NormalizeOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.TS != 1700000000 {
		t.Fatalf("expected millis collapsed to seconds, got %d", event.TS)
	}
}

func TestNormalizeRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  RawRecord
		want error
	}{
		{
			name: "missing track name",
			raw:  RawRecord{Timestamp: "1700000000", MsPlayed: msPtr(1000), ArtistName: "Artist"},
			want: domain.ErrMissingTrackName,
		},
		{
			name: "missing artist name",
			raw:  RawRecord{Timestamp: "1700000000", MsPlayed: msPtr(1000), TrackName: "Song"},
			want: domain.ErrMissingArtistName,
		},
		{
			name: "whitespace-only track name",
			raw:  RawRecord{Timestamp: "1700000000", MsPlayed: msPtr(1000), TrackName: "   ", ArtistName: "Artist"},
			want: domain.ErrMissingTrackName,
		},
		{
			name: "garbage timestamp",
			raw:  RawRecord{Timestamp: "not-a-time", MsPlayed: msPtr(1000), TrackName: "Song", ArtistName: "Artist"},
			want: ErrBadTimestamp,
		},
		{
			name: "empty timestamp",
			raw:  RawRecord{MsPlayed: msPtr(1000), TrackName: "Song", ArtistName: "Artist"},
			want: ErrBadTimestamp,
		},
		{
			name: "timestamp before 2000",
			raw:  RawRecord{Timestamp: "946684799", MsPlayed: msPtr(1000), TrackName: "Song", ArtistName: "Artist"},
			want: domain.ErrImplausibleTime,
		},
		{
			name: "timestamp after 2100",
			raw:  RawRecord{Timestamp: "4133980800", MsPlayed: msPtr(1000), TrackName: "Song", ArtistName: "Artist"},
			want: domain.ErrImplausibleTime,
		},
		{
			name: "missing duration",
			raw:  RawRecord{Timestamp: "1700000000", TrackName: "Song", ArtistName: "Artist"},
			want: ErrMissingDuration,
		},
		{
			name: "negative duration",
			raw:  RawRecord{Timestamp: "1700000000", MsPlayed: msPtr(-5), TrackName: "Song", ArtistName: "Artist"},
			want: domain.ErrNegativeDuration,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw, domain.SourceUpload, NormalizeOptions{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalizeMissingDurationPlaceholder(t *testing.T) {
	event, err := Normalize(RawRecord{
		Timestamp:  "1700000000",
		TrackName:  "Song",
		ArtistName: "Artist",
		TrackURI:   "spotify:track:abc",
	}, domain.SourceUpload, NormalizeOptions{AllowMissingDuration: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !event.NeedsDuration {
		t.Fatalf("expected NeedsDuration to be set")
	}
	if event.MsPlayed != 0 {
		t.Fatalf("expected placeholder duration 0, got %d", event.MsPlayed)
	}
}

func TestNormalizeBoundaryYears(t *testing.T) {
	// 2000-01-01 and 2100-12-31 are both inside the plausible range.
	for _, ts := range []string{"946684800", "4133894400"} {
		_, err := Normalize(RawRecord{
			Timestamp:  ts,
			MsPlayed:   msPtr(1000),
			TrackName:  "Song",
			ArtistName: "Artist",
		}, domain.SourceUpload, NormalizeOptions{})
		if err != nil {
			t.Fatalf("expected %s to be accepted, got %v", ts, err)
		}
	}
}
