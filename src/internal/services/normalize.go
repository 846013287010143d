package services

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/soundlog/soundlog/src/internal/domain"
)

// RawRecord is one import record before normalization, whatever its
// provenance. Both ingestion paths convert into this shape first; the
// source stays a tag, never a separate parse path.
type RawRecord struct {
	Timestamp  string // epoch seconds, epoch millis, or ISO-8601
	MsPlayed   *int64 // nil when the export omitted the duration
	TrackName  string
	ArtistName string
	AlbumName  string
	TrackURI   string
}

type NormalizeOptions struct {
	// AllowMissingDuration admits records without a duration; the resulting
	// event is marked NeedsDuration for catalog enrichment before persistence.
	AllowMissingDuration bool
}

var (
	ErrBadTimestamp    = errors.New("unparseable timestamp")
	ErrMissingDuration = errors.New("missing ms_played")
)

// Epoch values at or above this are milliseconds, not seconds. Some exports
// mix the two.
const epochMillisThreshold = 1e12

// Normalize converts one raw record into a canonical play event or a
// rejection reason. Pure function; the caller persists.
func Normalize(raw RawRecord, source domain.Source, opts NormalizeOptions) (domain.PlayEvent, error) {
	event := domain.PlayEvent{
		TrackName:  strings.TrimSpace(raw.TrackName),
		ArtistName: strings.TrimSpace(raw.ArtistName),
		AlbumName:  strings.TrimSpace(raw.AlbumName),
		TrackURI:   strings.TrimSpace(raw.TrackURI),
		Source:     source,
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return domain.PlayEvent{}, err
	}
	event.TS = ts

	if raw.MsPlayed == nil {
		if !opts.AllowMissingDuration {
			return domain.PlayEvent{}, ErrMissingDuration
		}
		event.NeedsDuration = true
	} else {
		event.MsPlayed = *raw.MsPlayed
	}

	if err := domain.ValidateEvent(event); err != nil {
		return domain.PlayEvent{}, err
	}
	return event, nil
}

// parseTimestamp accepts epoch seconds, epoch milliseconds and ISO-8601
// wall-clock forms, normalizing to epoch seconds UTC.
func parseTimestamp(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, ErrBadTimestamp
	}

	if epoch, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if epoch >= epochMillisThreshold || epoch <= -epochMillisThreshold {
			epoch /= 1000
		}
		return epoch, nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC().Unix(), nil
		}
	}
	return 0, ErrBadTimestamp
}
