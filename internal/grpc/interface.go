package grpc

import (
	"context"
	"time"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type FeedbackService interface {
	Submit(ctx context.Context, sub domain.Submission) (service.RecordView, error)
	Get(ctx context.Context, id string) (service.RecordView, error)
	UpdateStatus(ctx context.Context, id string, to domain.Status) (service.RecordView, error)
	Respond(ctx context.Context, id string, in service.ResponseInput) (service.RecordView, error)
	Classify(ctx context.Context, id string) (domain.AnalysisResult, error)
	Reanalyze(ctx context.Context, ids []string) (classifier.BatchResult, error)
}

type InsightsService interface {
	SentimentOverview(ctx context.Context, f domain.ReportFilter) (analytics.SentimentOverview, error)
	ServiceTypeMetrics(ctx context.Context, f domain.ReportFilter) ([]analytics.ServiceTypeMetric, error)
	SentimentTrends(ctx context.Context, f domain.ReportFilter) (analytics.SentimentTrends, error)
	CategoryInsights(ctx context.Context, f domain.ReportFilter) ([]analytics.CategoryInsight, error)
	EmotionAnalysis(ctx context.Context, f domain.ReportFilter) (analytics.EmotionAnalysis, error)
	UrgencyDashboard(ctx context.Context, f domain.ReportFilter) (analytics.UrgencyDashboard, error)
	PulseMetrics(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error)
	ActionableInsights(ctx context.Context, f domain.ReportFilter) (analytics.ActionableInsights, error)
	BranchComparison(ctx context.Context, f domain.ReportFilter) (analytics.BranchComparison, error)
}
