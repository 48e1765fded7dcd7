package service

import (
	"context"
	"time"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
)

// FeedbackStore defines the record store operations the services need.
type FeedbackStore interface {
	Insert(ctx context.Context, rec *domain.FeedbackRecord) error
	GetByID(ctx context.Context, id string) (domain.FeedbackRecord, error)
	Query(ctx context.Context, q domain.RecordQuery) ([]domain.FeedbackRecord, error)
	SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error
	SaveResponse(ctx context.Context, id, response, respondedBy string, notes []string, at time.Time) error
	ListUnclassified(ctx context.Context, limit int) ([]domain.FeedbackRecord, error)
}

// Pipeline is the classification entry point used by FeedbackService.
type Pipeline interface {
	ClassifyOne(ctx context.Context, rec domain.FeedbackRecord) domain.AnalysisResult
	ClassifyBatch(ctx context.Context, recs []domain.FeedbackRecord) classifier.BatchResult
}
