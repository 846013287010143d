package domain

import (
	"errors"
	"time"
)

// Plausible calendar bounds for event timestamps. Malformed exports carry
// placeholder or garbage timestamps well outside this range.
const (
	MinEventYear = 2000
	MaxEventYear = 2100
)

var (
	ErrMissingTrackName  = errors.New("missing track name")
	ErrMissingArtistName = errors.New("missing artist name")
	ErrNegativeDuration  = errors.New("negative ms_played")
	ErrImplausibleTime   = errors.New("timestamp outside plausible range")
)

// ValidateEvent checks the canonical invariants enforced at write time.
func ValidateEvent(e PlayEvent) error {
	if e.TrackName == "" {
		return ErrMissingTrackName
	}
	if e.ArtistName == "" {
		return ErrMissingArtistName
	}
	if e.MsPlayed < 0 {
		return ErrNegativeDuration
	}
	year := time.Unix(e.TS, 0).UTC().Year()
	if year < MinEventYear || year > MaxEventYear {
		return ErrImplausibleTime
	}
	return nil
}
