package classifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/metrics"
)

const defaultBatchDelay = time.Second

// BatchItem is the outcome for one record of a batch run.
type BatchItem struct {
	RecordID string                 `json:"recordId"`
	Success  bool                   `json:"success"`
	Result   *domain.AnalysisResult `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Err      error                  `json:"-"`
}

type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// Pipeline runs single and batch classification. Batches are processed one
// record at a time with a fixed pause between external calls.
type Pipeline struct {
	classifier Classifier
	writer     AnalysisWriter
	delay      time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

type PipelineOption func(*Pipeline)

func WithBatchDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d >= 0 {
			p.delay = d
		}
	}
}

// WithWriter makes ClassifyBatch persist each result as it is produced.
func WithWriter(w AnalysisWriter) PipelineOption {
	return func(p *Pipeline) { p.writer = w }
}

func WithPipelineLogger(logger *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPipeline(c Classifier, opts ...PipelineOption) *Pipeline {
	if c == nil {
		panic("nil Classifier provided to NewPipeline")
	}
	p := &Pipeline{
		classifier: c,
		delay:      defaultBatchDelay,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("pipeline")
	return p
}

func (p *Pipeline) ClassifyOne(ctx context.Context, rec domain.FeedbackRecord) domain.AnalysisResult {
	return p.classifier.Classify(ctx, rec.Comment, rec.Rating, rec.ServiceType)
}

// ClassifyBatch always returns one item per input record. A failing item
// never stops its siblings; cancellation marks the remaining items failed.
func (p *Pipeline) ClassifyBatch(ctx context.Context, recs []domain.FeedbackRecord) BatchResult {
	out := BatchResult{Items: make([]BatchItem, 0, len(recs)), Total: len(recs)}

	for i, rec := range recs {
		var item BatchItem
		if i > 0 {
			if err := p.wait(ctx); err != nil {
				item = BatchItem{RecordID: rec.ID, Err: err}
			}
		}
		if item.Err == nil {
			item = p.classifyItem(ctx, rec)
		}

		if item.Err != nil {
			item.Success = false
			item.Error = item.Err.Error()
			out.Failed++
			p.logger.Warn("batch item failed", zap.String("id", rec.ID), zap.Error(item.Err))
		} else {
			item.Success = true
			out.Succeeded++
		}
		metrics.ObserveBatchItem(item.Success)
		out.Items = append(out.Items, item)
	}

	p.logger.Info("batch classification finished",
		zap.Int("total", out.Total),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed))
	return out
}

func (p *Pipeline) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Pipeline) classifyItem(ctx context.Context, rec domain.FeedbackRecord) (item BatchItem) {
	item.RecordID = rec.ID
	defer func() {
		if r := recover(); r != nil {
			item.Result = nil
			item.Err = fmt.Errorf("classification of %s panicked: %v", rec.ID, r)
		}
	}()

	res := p.ClassifyOne(ctx, rec)
	if p.writer != nil {
		if err := p.writer.SaveAnalysis(ctx, rec.ID, res, p.now()); err != nil {
			item.Err = fmt.Errorf("save analysis for %s: %w", rec.ID, err)
			return item
		}
	}
	item.Result = &res
	return item
}
