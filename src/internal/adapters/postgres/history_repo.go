package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/soundlog/soundlog/src/internal/domain"
)

// Plays at or under this many milliseconds are accidental skips/previews
// and never count toward rankings or totals.
const minCountedMs = 3000

type PostgresHistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *PostgresHistoryRepo {
	return &PostgresHistoryRepo{db: db}
}

func (r *PostgresHistoryRepo) InitSchema() error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}
	// No unique index on (user_id, track_uri, ts): re-uploaded archives must
	// be free to insert byte-identical rows. The recent-source dedup check
	// runs inside the append transaction instead.
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS play_events (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			ts BIGINT NOT NULL,
			ms_played BIGINT NOT NULL,
			track_name TEXT NOT NULL,
			artist_name TEXT NOT NULL,
			album_name TEXT,
			track_uri TEXT,
			source TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_play_events_user_ts ON play_events (user_id, ts DESC);
	`)
	return err
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStorageUnavailable)
}

func (r *PostgresHistoryRepo) AppendEvents(ctx context.Context, userID string, events []domain.PlayEvent, source domain.Source) (domain.AppendResult, error) {
	var result domain.AppendResult
	if r.db == nil {
		return result, domain.ErrStorageUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, storageErr("append events", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return domain.AppendResult{}, storageErr("ensure user", err)
	}

	insert := `
		INSERT INTO play_events (user_id, ts, ms_played, track_name, artist_name, album_name, track_uri, source)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	`
	// Insert-if-absent keyed on (user, uri, ts): the same track starting at
	// the same recorded second is the same observation re-fetched.
	insertRecent := `
		INSERT INTO play_events (user_id, ts, ms_played, track_name, artist_name, album_name, track_uri, source)
		SELECT $1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8
		WHERE NOT EXISTS (
			SELECT 1 FROM play_events
			WHERE user_id = $1 AND COALESCE(track_uri, '') = $7 AND ts = $2
		)
	`

	for _, event := range events {
		if err := domain.ValidateEvent(event); err != nil {
			result.Invalid++
			continue
		}

		query := insert
		if source == domain.SourceRecent {
			query = insertRecent
		}
		res, err := tx.ExecContext(ctx, query,
			userID, event.TS, event.MsPlayed, event.TrackName, event.ArtistName,
			event.AlbumName, event.TrackURI, string(source))
		if err != nil {
			return domain.AppendResult{}, storageErr("insert event", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return domain.AppendResult{}, storageErr("insert event", err)
		}
		if affected > 0 {
			result.Added++
		} else {
			result.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.AppendResult{}, storageErr("append events", err)
	}
	return result, nil
}

func (r *PostgresHistoryRepo) TopTracks(ctx context.Context, userID string, limit int, start, end int64) ([]domain.TrackStat, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	query := `
		SELECT track_name, artist_name, COALESCE(track_uri, ''),
		       SUM(ms_played) AS total_ms, COUNT(*) AS play_count
		FROM play_events
		WHERE user_id = $1 AND ts >= $2 AND ts < $3 AND ms_played > $4
		GROUP BY track_name, artist_name, track_uri
		ORDER BY total_ms DESC, MIN(id)
		LIMIT $5
	`
	rows, err := r.db.QueryContext(ctx, query, userID, start, end, minCountedMs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.TrackStat
	for rows.Next() {
		var s domain.TrackStat
		if err := rows.Scan(&s.TrackName, &s.ArtistName, &s.TrackURI, &s.TotalMs, &s.PlayCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *PostgresHistoryRepo) TopArtists(ctx context.Context, userID string, limit int, start, end int64) ([]domain.ArtistStat, error) {
	if r.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	query := `
		SELECT artist_name, SUM(ms_played) AS total_ms,
		       COUNT(DISTINCT track_name) AS unique_tracks, COUNT(*) AS play_count
		FROM play_events
		WHERE user_id = $1 AND ts >= $2 AND ts < $3 AND ms_played > $4
		  AND artist_name <> ''
		GROUP BY artist_name
		ORDER BY total_ms DESC, MIN(id)
		LIMIT $5
	`
	rows, err := r.db.QueryContext(ctx, query, userID, start, end, minCountedMs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.ArtistStat
	for rows.Next() {
		var s domain.ArtistStat
		if err := rows.Scan(&s.ArtistName, &s.TotalMs, &s.UniqueTracks, &s.PlayCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *PostgresHistoryRepo) WindowTotals(ctx context.Context, userID string, start, end int64) (domain.WindowTotals, error) {
	var totals domain.WindowTotals
	if r.db == nil {
		return totals, domain.ErrStorageUnavailable
	}
	query := `
		SELECT COALESCE(SUM(ms_played), 0), COUNT(*)
		FROM play_events
		WHERE user_id = $1 AND ts >= $2 AND ts < $3 AND ms_played > $4
	`
	err := r.db.QueryRowContext(ctx, query, userID, start, end, minCountedMs).
		Scan(&totals.TotalMs, &totals.PlayCount)
	if err != nil {
		return domain.WindowTotals{}, err
	}
	return totals, nil
}

// PurgeUser removes the user's events and the user row in one transaction.
// The FK cascade would cover the events anyway; the explicit delete keeps
// the contract readable.
func (r *PostgresHistoryRepo) PurgeUser(ctx context.Context, userID string) error {
	if r.db == nil {
		return domain.ErrStorageUnavailable
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("purge user", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM play_events WHERE user_id = $1`, userID); err != nil {
		return storageErr("purge events", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return storageErr("purge user row", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("purge user", err)
	}
	return nil
}

func (r *PostgresHistoryRepo) HasAny(ctx context.Context, userID string) (bool, error) {
	if r.db == nil {
		return false, domain.ErrStorageUnavailable
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM play_events WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
