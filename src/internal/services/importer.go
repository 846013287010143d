package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/soundlog/soundlog/src/internal/adapters/spotify"
	"github.com/soundlog/soundlog/src/internal/domain"
	"github.com/soundlog/soundlog/src/internal/ports"
)

const historyFilePrefix = "Streaming_History_"

// uploadRow is one record of the provider's extended streaming history
// export.
type uploadRow struct {
	Timestamp  string `json:"ts"`
	MsPlayed   *int64 `json:"ms_played"`
	TrackName  string `json:"master_metadata_track_name"`
	ArtistName string `json:"master_metadata_album_artist_name"`
	AlbumName  string `json:"master_metadata_album_album_name"`
	TrackURI   string `json:"spotify_track_uri"`
}

type ImportReport struct {
	FilesMatched   int
	FilesFailed    []string
	EntriesChecked int
	EntriesInvalid int
	Added          int
	Skipped        int
	Enriched       int
	KeptOriginal   int
}

// Importer is the one-shot bulk path: unpack an uploaded archive, parse the
// per-file event arrays, normalize, enrich missing durations best-effort and
// append everything as one upload batch.
type Importer struct {
	history ports.HistoryRepository
	gateway ports.CatalogGateway
}

func NewImporter(history ports.HistoryRepository, gateway ports.CatalogGateway) *Importer {
	return &Importer{history: history, gateway: gateway}
}

func (im *Importer) ImportArchive(ctx context.Context, userID string, archive []byte) (*ImportReport, error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("unreadable archive: %w", err)
	}

	report := &ImportReport{}
	var events []domain.PlayEvent

	for _, entry := range reader.File {
		base := path.Base(entry.Name)
		if entry.FileInfo().IsDir() || !strings.HasPrefix(base, historyFilePrefix) || !strings.HasSuffix(strings.ToLower(base), ".json") {
			continue
		}
		report.FilesMatched++

		rows, err := readHistoryFile(entry)
		if err != nil {
			log.Printf("[Importer] Failed to parse %s for user %s: %v", base, userID, err)
			report.FilesFailed = append(report.FilesFailed, base)
			continue
		}

		for _, row := range rows {
			report.EntriesChecked++
			event, err := Normalize(RawRecord{
				Timestamp:  row.Timestamp,
				MsPlayed:   row.MsPlayed,
				TrackName:  row.TrackName,
				ArtistName: row.ArtistName,
				AlbumName:  row.AlbumName,
				TrackURI:   row.TrackURI,
			}, domain.SourceUpload, NormalizeOptions{AllowMissingDuration: true})
			if err != nil {
				report.EntriesInvalid++
				continue
			}
			events = append(events, event)
		}
	}

	im.enrichDurations(ctx, userID, events, report)

	if len(events) > 0 {
		result, err := im.history.AppendEvents(ctx, userID, events, domain.SourceUpload)
		if err != nil {
			return report, err
		}
		report.Added = result.Added
		report.Skipped = result.Skipped
		report.EntriesInvalid += result.Invalid
	}

	log.Printf("[Importer] User %s: files=%d failed=%d checked=%d invalid=%d added=%d skipped=%d enriched=%d kept=%d",
		userID, report.FilesMatched, len(report.FilesFailed), report.EntriesChecked,
		report.EntriesInvalid, report.Added, report.Skipped, report.Enriched, report.KeptOriginal)
	return report, nil
}

func readHistoryFile(entry *zip.File) ([]uploadRow, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	var rows []uploadRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// enrichDurations fills events that came in without a duration from the
// catalog, chunked to the provider's lookup limit. Best-effort: a missing
// client or a failed lookup keeps the original values and only the counts
// tell. Known trade-off: the catalog reports full track length, not the
// time actually listened.
func (im *Importer) enrichDurations(ctx context.Context, userID string, events []domain.PlayEvent, report *ImportReport) {
	var candidates []*domain.PlayEvent
	for i := range events {
		if events[i].NeedsDuration && events[i].TrackURI != "" {
			candidates = append(candidates, &events[i])
		}
	}
	if len(candidates) == 0 {
		return
	}

	client, err := im.gateway.AuthorizedClient(ctx, userID)
	if err != nil {
		log.Printf("[Importer] No catalog client for duration enrichment (user %s): %v", userID, err)
		report.KeptOriginal += len(candidates)
		return
	}

	for start := 0; start < len(candidates); start += spotify.MaxIDsPerLookup {
		stop := start + spotify.MaxIDsPerLookup
		if stop > len(candidates) {
			stop = len(candidates)
		}
		chunk := candidates[start:stop]

		ids := make([]string, 0, len(chunk))
		for _, event := range chunk {
			ids = append(ids, event.TrackURI)
		}

		tracks, err := client.GetTracks(ctx, ids)
		if err != nil {
			log.Printf("[Importer] Duration lookup failed for user %s: %v", userID, err)
			report.KeptOriginal += len(chunk)
			continue
		}

		durations := make(map[string]int64, len(tracks))
		for _, track := range tracks {
			if track.DurationMS > 0 {
				durations[track.URI] = track.DurationMS
				durations[track.ID] = track.DurationMS
			}
		}

		for _, event := range chunk {
			ms, ok := durations[event.TrackURI]
			if !ok {
				ms, ok = durations[spotify.TrackIDFromURI(event.TrackURI)]
			}
			if ok {
				event.MsPlayed = ms
				event.NeedsDuration = false
				report.Enriched++
			} else {
				report.KeptOriginal++
			}
		}
	}
}
