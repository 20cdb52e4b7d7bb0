package sync

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"atdw-sync/feature/catalog/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keyStripes sizes the striped mutex pool serializing concurrent
// applies of the same upstream id.
const keyStripes = 64

// Checkpoint scopes. Full and incremental passes track progress in
// separate rows so neither run kind can resume from the other's cursor.
const (
	ScopeFull  = "full"
	ScopeDelta = "delta"
)

// Runner drives a full synchronization pass: pages from the feed,
// bounded-concurrency applies within a page, a checkpoint after every
// fully applied page.
type Runner struct {
	engine *Engine
	feed   Feed
	db     *gorm.DB
	logger *zap.Logger

	source  string
	scope   string
	workers int

	mu       sync.Mutex
	keyLocks [keyStripes]sync.Mutex
}

// NewRunner builds a runner for a full catalog pass over the given
// engine and feed.
func NewRunner(db *gorm.DB, engine *Engine, feed Feed, logger *zap.Logger, cfg Config) *Runner {
	return newRunner(db, engine, feed, logger, cfg, ScopeFull)
}

// NewDeltaRunner builds a runner for an incremental pass. It
// checkpoints under its own scope, so a pending interrupted full run
// never feeds its cursor to the delta feed.
func NewDeltaRunner(db *gorm.DB, engine *Engine, feed Feed, logger *zap.Logger, cfg Config) *Runner {
	return newRunner(db, engine, feed, logger, cfg, ScopeDelta)
}

func newRunner(db *gorm.DB, engine *Engine, feed Feed, logger *zap.Logger, cfg Config, scope string) *Runner {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		engine:  engine,
		feed:    feed,
		db:      db,
		logger:  logger,
		source:  cfg.Source,
		scope:   scope,
		workers: workers,
	}
}

// RunError is one per-product failure surfaced in the report.
type RunError struct {
	UpstreamID    string `json:"upstream_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Stage         string `json:"stage"`
	Message       string `json:"message"`
}

// Report summarizes one run.
type Report struct {
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Resumed is set when the run continued from an interrupted
	// checkpoint instead of starting at the first page.
	Resumed bool `json:"resumed"`

	Pages int `json:"pages"`
	Total int `json:"total"`

	New         int `json:"new"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	SoftDeleted int `json:"soft_deleted"`
	Expired     int `json:"expired"`
	Errored     int `json:"errored"`

	Errors []RunError `json:"errors,omitempty"`
}

// Run executes one synchronization pass. Pages are fetched serially;
// records within a page apply concurrently under the worker limit. On
// cancellation the in-flight products finish, the partial page is not
// checkpointed, and the context error is returned alongside the counts
// gathered so far.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	cp, err := r.loadCheckpoint(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Source: r.source, StartedAt: time.Now().UTC()}
	cursor := ""
	page := 0
	if cp.LastPage > 0 {
		cursor = cp.Cursor
		page = cp.LastPage
		report.Resumed = true
		r.logger.Info("Resuming interrupted run",
			zap.String("source", r.source),
			zap.String("scope", r.scope),
			zap.Int("last_page", cp.LastPage),
			zap.Time("run_started_at", cp.RunStartedAt),
		)
	} else {
		cp.RunStartedAt = report.StartedAt
	}

	for {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, err
		}

		p, err := r.feed.FetchPage(ctx, cursor)
		if err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, fmt.Errorf("fetch page %d: %w", page+1, err)
		}
		page++
		report.Pages++
		report.Total += len(p.Records)

		r.applyPage(ctx, p.Records, report)

		if ctx.Err() != nil {
			// The page may be partially applied; the previous checkpoint
			// stands so the resume refetches it. Reapplying committed
			// products classifies them unchanged.
			report.FinishedAt = time.Now().UTC()
			return report, ctx.Err()
		}

		if !p.HasMore {
			break
		}
		cursor = p.NextCursor
		cp.LastPage = page
		cp.Cursor = cursor
		if err := r.saveCheckpoint(ctx, cp); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, err
		}
	}

	cp.LastPage = 0
	cp.Cursor = ""
	if err := r.saveCheckpoint(ctx, cp); err != nil {
		report.FinishedAt = time.Now().UTC()
		return report, err
	}

	report.FinishedAt = time.Now().UTC()
	r.logger.Info("Synchronization run complete",
		zap.String("source", r.source),
		zap.String("scope", r.scope),
		zap.Int("pages", report.Pages),
		zap.Int("total", report.Total),
		zap.Int("new", report.New),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("soft_deleted", report.SoftDeleted),
		zap.Int("expired", report.Expired),
		zap.Int("errored", report.Errored),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

// applyPage fans one page out over the worker pool and waits for it to
// drain. Workers never fail the group: per-product errors land in the
// report, and cancellation is honored between products, not by
// interrupting one mid-transaction.
func (r *Runner) applyPage(ctx context.Context, records []ProductRecord, report *Report) {
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r.applyOne(ctx, rec, report)
			return nil
		})
	}
	g.Wait()
}

func (r *Runner) applyOne(ctx context.Context, rec *ProductRecord, report *Report) {
	lock := &r.keyLocks[stripe(rec.UpstreamID)]
	lock.Lock()
	defer lock.Unlock()

	res, err := r.engine.Apply(ctx, rec)
	r.record(report, rec.UpstreamID, res, err)
}

// record folds one apply outcome into the report.
func (r *Runner) record(report *Report, upstreamID string, res *Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		report.Errored++
		runErr := RunError{UpstreamID: upstreamID, Stage: "apply", Message: err.Error()}
		var malformed *MalformedRecordError
		var txErr *TransactionError
		switch {
		case errors.As(err, &malformed):
			runErr.Stage = "validate"
		case errors.As(err, &txErr):
			runErr.CorrelationID = txErr.CorrelationID
		}
		report.Errors = append(report.Errors, runErr)
		return
	}

	switch res.Classification {
	case ClassificationNew:
		report.New++
	case ClassificationUpdated:
		report.Updated++
	case ClassificationUnchanged:
		report.Unchanged++
	case ClassificationSoftDeleted:
		report.SoftDeleted++
	case ClassificationExpired:
		report.Expired++
	}
	for _, be := range res.BatchErrors {
		report.Errors = append(report.Errors, RunError{
			UpstreamID: upstreamID,
			Stage:      "batch:" + be.Concern,
			Message:    be.Err.Error(),
		})
	}
}

func (r *Runner) loadCheckpoint(ctx context.Context) (*models.SyncCheckpoint, error) {
	var cp models.SyncCheckpoint
	err := r.db.WithContext(ctx).Where("source = ? AND scope = ?", r.source, r.scope).First(&cp).Error
	switch {
	case err == nil:
		return &cp, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &models.SyncCheckpoint{Source: r.source, Scope: r.scope}, nil
	default:
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
}

func (r *Runner) saveCheckpoint(ctx context.Context, cp *models.SyncCheckpoint) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_page", "cursor", "run_started_at", "updated_at"}),
	}).Create(cp).Error
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func stripe(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % keyStripes
}
