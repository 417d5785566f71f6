// Package ingestctl owns one ingest run at a time: it drives the
// fetcher page by page, bounds the number of in-flight game
// transactions, checkpoints progress, and records per-run metadata.
package ingestctl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stormlightlabs.org/gamedb/internal/chronicler"
	"stormlightlabs.org/gamedb/internal/eventtext"
	"stormlightlabs.org/gamedb/internal/fold"
	"stormlightlabs.org/gamedb/internal/model"
	"stormlightlabs.org/gamedb/internal/store"
)

// Config controls one controller instance.
type Config struct {
	Parallelism   int  // max in-flight game transactions
	ReimportAll   bool // ignore the last checkpoint and refetch everything
	Period        time.Duration
	StartOnLaunch bool
}

// Controller supervises the fetch→parse→fold→write pipeline.
type Controller struct {
	db      *store.DB
	fetcher *chronicler.Client
	logger  *log.Logger
	cfg     Config

	mu    sync.Mutex
	state model.IngestRunState

	// per-run counters and component timings, reset by RunOnce
	fetched   atomic.Int64
	written   atomic.Int64
	skipped   atomic.Int64
	parseErrs atomic.Int64
	fetchNs   atomic.Int64
	parseNs   atomic.Int64
	foldNs    atomic.Int64
	writeNs   atomic.Int64
}

// New builds a controller. Parallelism below 1 is clamped to 1; the
// database pool must be sized strictly larger, which the caller does
// via store.ConfigurePool.
func New(db *store.DB, fetcher *chronicler.Client, logger *log.Logger, cfg Config) *Controller {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Controller{
		db:      db,
		fetcher: fetcher,
		logger:  logger,
		cfg:     cfg,
		state:   model.StateIdle,
	}
}

// State returns the controller's lifecycle state.
func (c *Controller) State() model.IngestRunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s model.IngestRunState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) resetCounters() {
	c.fetched.Store(0)
	c.written.Store(0)
	c.skipped.Store(0)
	c.parseErrs.Store(0)
	c.fetchNs.Store(0)
	c.parseNs.Store(0)
	c.foldNs.Store(0)
	c.writeNs.Store(0)
}

// RunOnce executes one complete ingest run: it opens an info.ingests row,
// resumes from the last successful run's cursor, and drives pages until
// the chronicler reports no next token. Cancellation is cooperative:
// in-flight game transactions drain, no new pages are requested, and the
// run is recorded as aborted.
func (c *Controller) RunOnce(ctx context.Context) error {
	c.setState(model.StateStarting)
	c.resetCounters()

	runID := model.RunID(uuid.NewString())
	startedAt := time.Now().UTC()

	cursor := ""
	if !c.cfg.ReimportAll {
		checkpoint, err := c.db.LastCheckpoint(ctx)
		if err != nil {
			c.setState(model.StateFailed)
			return fmt.Errorf("read last checkpoint: %w", err)
		}
		if checkpoint != nil {
			cursor = *checkpoint
		}
	}

	run := model.IngestRun{ID: runID, StartedAt: startedAt}
	if cursor != "" {
		run.StartNextIngestAtPage = &cursor
	}
	if err := c.db.InsertIngestRun(ctx, run); err != nil {
		c.setState(model.StateFailed)
		return fmt.Errorf("open ingest run: %w", err)
	}

	c.logger.Info("ingest run started", "run_id", runID, "cursor", cursor)
	c.setState(model.StateRunning)

	var finalCursor *string
	for {
		if err := ctx.Err(); err != nil {
			return c.abort(runID, "stop requested")
		}

		fetchStart := time.Now()
		page, err := c.fetcher.FetchGamesPage(ctx, cursor)
		c.fetchNs.Add(time.Since(fetchStart).Nanoseconds())
		if err != nil {
			if ctx.Err() != nil {
				return c.abort(runID, "stop requested")
			}
			c.logger.Error("page fetch failed; aborting run", "run_id", runID, "err", err)
			return c.abort(runID, fmt.Sprintf("fetch error: %v", err))
		}

		if err := c.processPage(ctx, page); err != nil {
			if ctx.Err() != nil {
				return c.abort(runID, "stop requested")
			}
			c.logger.Error("page processing failed; aborting run", "run_id", runID, "err", err)
			return c.abort(runID, err.Error())
		}

		// Page N's next token is only persisted once every game in page N
		// has committed.
		if err := c.db.UpdateIngestCheckpoint(ctx, runID, page.NextPageToken); err != nil {
			return c.abort(runID, fmt.Sprintf("checkpoint write failed: %v", err))
		}

		if page.NextPageToken == nil {
			finalCursor = nil
			if cursor != "" {
				finalCursor = &cursor
			}
			break
		}
		cursor = *page.NextPageToken
	}

	finishedAt := time.Now().UTC()
	if err := c.db.FinishIngestRun(ctx, runID, finishedAt, finalCursor,
		int(c.fetched.Load()), int(c.written.Load()), int(c.skipped.Load())); err != nil {
		c.setState(model.StateFailed)
		return fmt.Errorf("finish ingest run: %w", err)
	}
	c.recordRunMetadata(ctx, runID)
	c.setState(model.StateIdle)

	c.logger.Info("ingest run finished",
		"run_id", runID,
		"fetched", c.fetched.Load(),
		"written", c.written.Load(),
		"skipped", c.skipped.Load(),
		"duration", finishedAt.Sub(startedAt),
	)
	return nil
}

// processPage parses, folds, and writes every game in one page, at most
// Parallelism at a time. Per-game failures are logged against the game
// and don't fail the page; only a lost database makes the page fail.
func (c *Controller) processPage(ctx context.Context, page *chronicler.Page) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Parallelism)

	var dbLost atomic.Bool
	for _, raw := range page.Items {
		g.Go(func() error {
			c.fetched.Add(1)
			if err := c.ingestGame(gctx, raw); err != nil {
				if gctx.Err() != nil || dbLost.Load() {
					return err
				}
				// Distinguish a broken database from a broken game: if the
				// pool still answers, the run continues without this game.
				if pingErr := c.db.Ping(gctx); pingErr != nil {
					dbLost.Store(true)
					return fmt.Errorf("database lost: %w", pingErr)
				}
				c.logger.Error("game failed to ingest", "game_id", raw.EntityID, "err", err)
				if logErr := c.db.LogGameIssue(gctx, model.GameID(raw.EntityID), model.CriticalLevel,
					fmt.Sprintf("ingest failed: %v", err)); logErr != nil {
					c.logger.Error("could not record game issue", "game_id", raw.EntityID, "err", logErr)
				}
				c.skipped.Add(1)
			}
			return nil
		})
	}

	return g.Wait()
}

// ingestGame runs one game through parse, fold, and write. Parsing and
// folding are synchronous CPU work on this task; the write holds one
// pool connection for the duration of its transaction.
func (c *Controller) ingestGame(ctx context.Context, raw model.RawGame) error {
	parseStart := time.Now()
	parsed, err := eventtext.ParseGame(raw)
	c.parseNs.Add(time.Since(parseStart).Nanoseconds())
	if err != nil {
		if errors.Is(err, eventtext.ErrSkipGame) {
			c.skipped.Add(1)
			return nil
		}
		return err
	}

	foldStart := time.Now()
	result := fold.Fold(parsed)
	c.foldNs.Add(time.Since(foldStart).Nanoseconds())

	for _, l := range result.Logs {
		if l.Level == model.ErrorLevel {
			c.parseErrs.Add(1)
		}
	}

	writeStart := time.Now()
	err = c.db.ApplyGame(ctx, &result)
	c.writeNs.Add(time.Since(writeStart).Nanoseconds())
	if err != nil {
		return err
	}

	c.written.Add(1)
	return nil
}

// abort records a run as aborted after in-flight work has drained.
func (c *Controller) abort(runID model.RunID, reason string) error {
	c.setState(model.StateStopping)
	// The run context may already be canceled; the abort record must
	// still land.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.db.AbortIngestRun(ctx, runID, time.Now().UTC(), reason); err != nil {
		c.logger.Error("could not record aborted run", "run_id", runID, "err", err)
	}
	c.recordRunMetadata(ctx, runID)
	c.setState(model.StateFailed)
	return fmt.Errorf("ingest run aborted: %s", reason)
}

// recordRunMetadata appends the per-component timings and counters for a
// run. These rows are informational; failures only log.
func (c *Controller) recordRunMetadata(ctx context.Context, runID model.RunID) {
	timings := []model.IngestTiming{
		{RunID: runID, Component: "fetch", Duration: time.Duration(c.fetchNs.Load())},
		{RunID: runID, Component: "parse", Duration: time.Duration(c.parseNs.Load())},
		{RunID: runID, Component: "fold", Duration: time.Duration(c.foldNs.Load())},
		{RunID: runID, Component: "write", Duration: time.Duration(c.writeNs.Load())},
	}
	for _, t := range timings {
		if err := c.db.InsertIngestTiming(ctx, t); err != nil {
			c.logger.Error("could not record ingest timing", "component", t.Component, "err", err)
		}
	}

	counts := []model.IngestCount{
		{RunID: runID, Name: "games_fetched", Value: int(c.fetched.Load())},
		{RunID: runID, Name: "games_written", Value: int(c.written.Load())},
		{RunID: runID, Name: "games_skipped", Value: int(c.skipped.Load())},
		{RunID: runID, Name: "parse_errors", Value: int(c.parseErrs.Load())},
	}
	for _, count := range counts {
		if err := c.db.InsertIngestCount(ctx, count); err != nil {
			c.logger.Error("could not record ingest count", "name", count.Name, "err", err)
		}
	}
}
