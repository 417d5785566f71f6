package store

import (
	"context"
	"database/sql"
	"time"

	"stormlightlabs.org/gamedb/internal/model"
)

// Ping is the liveness check behind the status surface's /health route.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// IngestRuns lists ingest runs most-recent-first, bounded by limit.
func (db *DB) IngestRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, aborted_at, abort_reason,
			start_next_ingest_at_page, games_fetched, games_written, games_skipped
		FROM info.ingests
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		r, err := scanIngestRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IngestRun fetches one run by id. Returns a *model.NotFoundError when
// absent.
func (db *DB) IngestRun(ctx context.Context, id model.RunID) (*model.IngestRun, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, aborted_at, abort_reason,
			start_next_ingest_at_page, games_fetched, games_written, games_skipped
		FROM info.ingests
		WHERE id = $1`, string(id))

	run, err := scanIngestRun(row)
	if err == sql.ErrNoRows {
		return nil, model.NewNotFoundError("ingest_run", string(id))
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LastCheckpoint returns the start_next_ingest_at_page cursor from the
// most recently finished (non-aborted) run, for resuming ingestion.
func (db *DB) LastCheckpoint(ctx context.Context) (*string, error) {
	var cursor *string
	err := db.QueryRowContext(ctx, `
		SELECT start_next_ingest_at_page FROM info.ingests
		WHERE finished_at IS NOT NULL
		ORDER BY finished_at DESC
		LIMIT 1`).Scan(&cursor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cursor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngestRun(row rowScanner) (model.IngestRun, error) {
	var r model.IngestRun
	var id string
	err := row.Scan(
		&id, &r.StartedAt, &r.FinishedAt, &r.AbortedAt, &r.AbortReason,
		&r.StartNextIngestAtPage, &r.GamesFetched, &r.GamesWritten, &r.GamesSkipped,
	)
	r.ID = model.RunID(id)
	return r, err
}

// GameIssue summarizes one game that has at least one Warning-or-worse log
// entry, for the /v1/games/issues surface.
type GameIssue struct {
	MMOLBGameID model.GameID
	WorstLevel  model.LogLevel
	IssueCount  int
	LastLoggedAt time.Time
}

// GamesWithIssues lists games that have at least one Warning-or-worse log
// entry, worst level first, bounded by limit.
func (db *DB) GamesWithIssues(ctx context.Context, limit int) ([]GameIssue, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT mmolb_game_id, MIN(log_level) AS worst_level, COUNT(*), MAX(logged_at)
		FROM info.event_ingest_log
		WHERE log_level <= $1
		GROUP BY mmolb_game_id
		ORDER BY worst_level ASC, MAX(logged_at) DESC
		LIMIT $2`, int(model.WarningLevel), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []GameIssue
	for rows.Next() {
		var issue GameIssue
		var mmolbID string
		var worst int
		if err := rows.Scan(&mmolbID, &worst, &issue.IssueCount, &issue.LastLoggedAt); err != nil {
			return nil, err
		}
		issue.MMOLBGameID = model.GameID(mmolbID)
		issue.WorstLevel = model.LogLevel(worst)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// InsertIngestRun records the start of a new run.
func (db *DB) InsertIngestRun(ctx context.Context, run model.IngestRun) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO info.ingests (id, started_at, start_next_ingest_at_page)
		VALUES ($1,$2,$3)`,
		string(run.ID), run.StartedAt, run.StartNextIngestAtPage,
	)
	return err
}

// UpdateIngestCheckpoint persists the page cursor a future run should
// resume from. Called once per fully-committed page; never called for a
// page whose games are still in flight.
func (db *DB) UpdateIngestCheckpoint(ctx context.Context, id model.RunID, nextPage *string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE info.ingests SET start_next_ingest_at_page = $2 WHERE id = $1`,
		string(id), nextPage,
	)
	return err
}

// LogGameIssue records a game-wide log entry outside any game
// transaction, for games that failed before (or while) being written.
func (db *DB) LogGameIssue(ctx context.Context, mmolbID model.GameID, level model.LogLevel, text string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO info.event_ingest_log (mmolb_game_id, log_index, log_level, log_text)
		VALUES ($1, 0, $2, $3)`,
		string(mmolbID), int(level), text,
	)
	return err
}

// FinishIngestRun marks a run complete and records its final counters and
// next checkpoint.
func (db *DB) FinishIngestRun(ctx context.Context, id model.RunID, finishedAt time.Time, nextPage *string, fetched, written, skipped int) error {
	_, err := db.ExecContext(ctx, `
		UPDATE info.ingests
		SET finished_at = $2, start_next_ingest_at_page = $3,
			games_fetched = $4, games_written = $5, games_skipped = $6
		WHERE id = $1`,
		string(id), finishedAt, nextPage, fetched, written, skipped,
	)
	return err
}

// AbortIngestRun marks a run aborted with a reason.
func (db *DB) AbortIngestRun(ctx context.Context, id model.RunID, abortedAt time.Time, reason string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE info.ingests SET aborted_at = $2, abort_reason = $3 WHERE id = $1`,
		string(id), abortedAt, reason,
	)
	return err
}

// InsertIngestTiming records one component's duration for a run.
func (db *DB) InsertIngestTiming(ctx context.Context, t model.IngestTiming) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO info.ingest_timings (ingest_id, component, duration_ms) VALUES ($1,$2,$3)`,
		string(t.RunID), t.Component, t.Duration.Milliseconds(),
	)
	return err
}

// InsertIngestCount records one named counter for a run.
func (db *DB) InsertIngestCount(ctx context.Context, c model.IngestCount) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO info.ingest_counts (ingest_id, name, value) VALUES ($1,$2,$3)`,
		string(c.RunID), c.Name, c.Value,
	)
	return err
}
