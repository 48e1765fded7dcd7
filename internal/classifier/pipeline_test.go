package classifier_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/classifier/mocks"
	"github.com/godilite/feedback-insights/internal/domain"
)

func records(n int) []domain.FeedbackRecord {
	out := make([]domain.FeedbackRecord, n)
	for i := range out {
		out[i] = domain.FeedbackRecord{
			ID:      fmt.Sprintf("rec-%d", i),
			Rating:  (i % 5) + 1,
			Comment: fmt.Sprintf("feedback comment number %d", i),
		}
	}
	return out
}

func TestPipeline_ClassifyBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		p := classifier.NewPipeline(&mocks.MockClassifier{}, classifier.WithBatchDelay(0))

		out := p.ClassifyBatch(ctx, nil)

		assert.Equal(t, 0, out.Total)
		assert.Empty(t, out.Items)
	})

	t.Run("one failing item does not stop the batch", func(t *testing.T) {
		var saved []string
		writer := &mocks.MockAnalysisWriter{
			SaveAnalysisFunc: func(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error {
				if id == "rec-2" {
					return errors.New("disk full")
				}
				saved = append(saved, id)
				return nil
			},
		}
		p := classifier.NewPipeline(&mocks.MockClassifier{},
			classifier.WithBatchDelay(0),
			classifier.WithWriter(writer))

		out := p.ClassifyBatch(ctx, records(5))

		require.Len(t, out.Items, 5)
		assert.Equal(t, 5, out.Total)
		assert.Equal(t, 4, out.Succeeded)
		assert.Equal(t, 1, out.Failed)
		assert.Equal(t, out.Total, out.Succeeded+out.Failed)
		assert.False(t, out.Items[2].Success)
		assert.Contains(t, out.Items[2].Error, "disk full")
		assert.Nil(t, out.Items[2].Result)
		assert.Equal(t, []string{"rec-0", "rec-1", "rec-3", "rec-4"}, saved)
		for i, item := range out.Items {
			assert.Equal(t, fmt.Sprintf("rec-%d", i), item.RecordID)
		}
	})

	t.Run("panicking classifier is isolated", func(t *testing.T) {
		mc := &mocks.MockClassifier{
			ClassifyFunc: func(ctx context.Context, comment string, rating int, st domain.ServiceType) domain.AnalysisResult {
				if rating == 1 {
					panic("boom")
				}
				return domain.AnalysisResult{Sentiment: domain.SentimentPositive}
			},
		}
		p := classifier.NewPipeline(mc, classifier.WithBatchDelay(0))

		out := p.ClassifyBatch(ctx, records(3))

		assert.Equal(t, 2, out.Succeeded)
		assert.Equal(t, 1, out.Failed)
		assert.False(t, out.Items[0].Success)
		assert.Contains(t, out.Items[0].Error, "panicked")
	})

	t.Run("items are processed sequentially with a pause", func(t *testing.T) {
		var calls []time.Time
		mc := &mocks.MockClassifier{
			ClassifyFunc: func(ctx context.Context, comment string, rating int, st domain.ServiceType) domain.AnalysisResult {
				calls = append(calls, time.Now())
				return domain.AnalysisResult{}
			},
		}
		delay := 30 * time.Millisecond
		p := classifier.NewPipeline(mc, classifier.WithBatchDelay(delay))

		out := p.ClassifyBatch(ctx, records(3))

		assert.Equal(t, 3, out.Succeeded)
		require.Len(t, calls, 3)
		for i := 1; i < len(calls); i++ {
			assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), delay)
		}
	})

	t.Run("cancellation fails the remaining items", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		mc := &mocks.MockClassifier{
			ClassifyFunc: func(ctx context.Context, comment string, rating int, st domain.ServiceType) domain.AnalysisResult {
				cancel()
				return domain.AnalysisResult{}
			},
		}
		p := classifier.NewPipeline(mc, classifier.WithBatchDelay(time.Second))

		out := p.ClassifyBatch(cctx, records(4))

		require.Len(t, out.Items, 4)
		assert.Equal(t, 1, out.Succeeded)
		assert.Equal(t, 3, out.Failed)
		for _, item := range out.Items[1:] {
			assert.ErrorIs(t, item.Err, context.Canceled)
		}
	})

	t.Run("writer receives the clock time", func(t *testing.T) {
		fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		var got time.Time
		writer := &mocks.MockAnalysisWriter{
			SaveAnalysisFunc: func(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error {
				got = at
				return nil
			},
		}
		p := classifier.NewPipeline(&mocks.MockClassifier{},
			classifier.WithWriter(writer),
			classifier.WithClock(func() time.Time { return fixed }))

		out := p.ClassifyBatch(ctx, records(1))

		assert.Equal(t, 1, out.Succeeded)
		assert.Equal(t, fixed, got)
	})
}

func TestNewPipelinePanicsOnNilClassifier(t *testing.T) {
	assert.Panics(t, func() { classifier.NewPipeline(nil) })
}
