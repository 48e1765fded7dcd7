package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/classifier"
)

const (
	defaultBackfillLimit   = 50
	defaultBackfillTimeout = 5 * time.Minute
)

// Backfiller classifies stored records that have no analysis yet.
type Backfiller interface {
	Backfill(ctx context.Context, limit int) (classifier.BatchResult, error)
}

// BackfillJob runs Backfill on a cron schedule. Overlapping runs are skipped.
type BackfillJob struct {
	backfiller Backfiller
	schedule   string
	limit      int
	timeout    time.Duration
	logger     *zap.Logger
	cron       *cron.Cron
}

type Option func(*BackfillJob)

func WithLimit(n int) Option {
	return func(j *BackfillJob) {
		if n > 0 {
			j.limit = n
		}
	}
}

func WithRunTimeout(d time.Duration) Option {
	return func(j *BackfillJob) {
		if d > 0 {
			j.timeout = d
		}
	}
}

// NewBackfillJob parses schedule, which accepts five-field cron expressions
// and descriptors such as "@every 15m". An empty schedule yields a job whose
// Start and Stop do nothing.
func NewBackfillJob(b Backfiller, schedule string, logger *zap.Logger, opts ...Option) (*BackfillJob, error) {
	if b == nil {
		panic("nil Backfiller provided to NewBackfillJob")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	j := &BackfillJob{
		backfiller: b,
		schedule:   strings.TrimSpace(schedule),
		limit:      defaultBackfillLimit,
		timeout:    defaultBackfillTimeout,
		logger:     logger.Named("backfill"),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.schedule == "" {
		return j, nil
	}

	cronLog := cronLogger{j.logger.Sugar()}
	j.cron = cron.New(
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid backfill schedule %q: %w", j.schedule, err)
	}
	return j, nil
}

func (j *BackfillJob) Enabled() bool {
	return j.cron != nil
}

func (j *BackfillJob) Start() {
	if !j.Enabled() {
		j.logger.Info("backfill disabled")
		return
	}
	j.cron.Start()
	j.logger.Info("backfill scheduled", zap.String("schedule", j.schedule), zap.Int("limit", j.limit))
}

// Stop prevents new runs and waits for a running one until ctx is done.
func (j *BackfillJob) Stop(ctx context.Context) error {
	if !j.Enabled() {
		return nil
	}
	select {
	case <-j.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single backfill pass.
func (j *BackfillJob) RunOnce(ctx context.Context) classifier.BatchResult {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	res, err := j.backfiller.Backfill(ctx, j.limit)
	if err != nil {
		j.logger.Error("backfill failed", zap.Error(err))
		return res
	}
	if res.Total > 0 {
		j.logger.Info("backfill finished",
			zap.Int("total", res.Total),
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
			zap.Duration("elapsed", time.Since(start)))
	}
	return res
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
