package mocks

import (
	"context"
	"errors"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/service"
)

// MockFeedbackService is a function-based fake of the record operations.
type MockFeedbackService struct {
	SubmitFunc       func(ctx context.Context, sub domain.Submission) (service.RecordView, error)
	GetFunc          func(ctx context.Context, id string) (service.RecordView, error)
	UpdateStatusFunc func(ctx context.Context, id string, to domain.Status) (service.RecordView, error)
	RespondFunc      func(ctx context.Context, id string, in service.ResponseInput) (service.RecordView, error)
	ClassifyFunc     func(ctx context.Context, id string) (domain.AnalysisResult, error)
	ReanalyzeFunc    func(ctx context.Context, ids []string) (classifier.BatchResult, error)
}

func (m *MockFeedbackService) Submit(ctx context.Context, sub domain.Submission) (service.RecordView, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, sub)
	}
	return service.RecordView{}, errors.New("SubmitFunc not implemented")
}

func (m *MockFeedbackService) Get(ctx context.Context, id string) (service.RecordView, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return service.RecordView{}, errors.New("GetFunc not implemented")
}

func (m *MockFeedbackService) UpdateStatus(ctx context.Context, id string, to domain.Status) (service.RecordView, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, to)
	}
	return service.RecordView{}, errors.New("UpdateStatusFunc not implemented")
}

func (m *MockFeedbackService) Respond(ctx context.Context, id string, in service.ResponseInput) (service.RecordView, error) {
	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, id, in)
	}
	return service.RecordView{}, errors.New("RespondFunc not implemented")
}

func (m *MockFeedbackService) Classify(ctx context.Context, id string) (domain.AnalysisResult, error) {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, id)
	}
	return domain.AnalysisResult{}, errors.New("ClassifyFunc not implemented")
}

func (m *MockFeedbackService) Reanalyze(ctx context.Context, ids []string) (classifier.BatchResult, error) {
	if m.ReanalyzeFunc != nil {
		return m.ReanalyzeFunc(ctx, ids)
	}
	return classifier.BatchResult{}, errors.New("ReanalyzeFunc not implemented")
}

// MockInsightsService is a function-based fake of the report operations.
type MockInsightsService struct {
	SentimentOverviewFunc  func(ctx context.Context, f domain.ReportFilter) (analytics.SentimentOverview, error)
	ServiceTypeMetricsFunc func(ctx context.Context, f domain.ReportFilter) ([]analytics.ServiceTypeMetric, error)
	SentimentTrendsFunc    func(ctx context.Context, f domain.ReportFilter) (analytics.SentimentTrends, error)
	CategoryInsightsFunc   func(ctx context.Context, f domain.ReportFilter) ([]analytics.CategoryInsight, error)
	EmotionAnalysisFunc    func(ctx context.Context, f domain.ReportFilter) (analytics.EmotionAnalysis, error)
	UrgencyDashboardFunc   func(ctx context.Context, f domain.ReportFilter) (analytics.UrgencyDashboard, error)
	PulseMetricsFunc       func(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error)
	ActionableInsightsFunc func(ctx context.Context, f domain.ReportFilter) (analytics.ActionableInsights, error)
	BranchComparisonFunc   func(ctx context.Context, f domain.ReportFilter) (analytics.BranchComparison, error)
}

func (m *MockInsightsService) SentimentOverview(ctx context.Context, f domain.ReportFilter) (analytics.SentimentOverview, error) {
	if m.SentimentOverviewFunc != nil {
		return m.SentimentOverviewFunc(ctx, f)
	}
	return analytics.SentimentOverview{}, errors.New("SentimentOverviewFunc not implemented")
}

func (m *MockInsightsService) ServiceTypeMetrics(ctx context.Context, f domain.ReportFilter) ([]analytics.ServiceTypeMetric, error) {
	if m.ServiceTypeMetricsFunc != nil {
		return m.ServiceTypeMetricsFunc(ctx, f)
	}
	return nil, errors.New("ServiceTypeMetricsFunc not implemented")
}

func (m *MockInsightsService) SentimentTrends(ctx context.Context, f domain.ReportFilter) (analytics.SentimentTrends, error) {
	if m.SentimentTrendsFunc != nil {
		return m.SentimentTrendsFunc(ctx, f)
	}
	return analytics.SentimentTrends{}, errors.New("SentimentTrendsFunc not implemented")
}

func (m *MockInsightsService) CategoryInsights(ctx context.Context, f domain.ReportFilter) ([]analytics.CategoryInsight, error) {
	if m.CategoryInsightsFunc != nil {
		return m.CategoryInsightsFunc(ctx, f)
	}
	return nil, errors.New("CategoryInsightsFunc not implemented")
}

func (m *MockInsightsService) EmotionAnalysis(ctx context.Context, f domain.ReportFilter) (analytics.EmotionAnalysis, error) {
	if m.EmotionAnalysisFunc != nil {
		return m.EmotionAnalysisFunc(ctx, f)
	}
	return analytics.EmotionAnalysis{}, errors.New("EmotionAnalysisFunc not implemented")
}

func (m *MockInsightsService) UrgencyDashboard(ctx context.Context, f domain.ReportFilter) (analytics.UrgencyDashboard, error) {
	if m.UrgencyDashboardFunc != nil {
		return m.UrgencyDashboardFunc(ctx, f)
	}
	return analytics.UrgencyDashboard{}, errors.New("UrgencyDashboardFunc not implemented")
}

func (m *MockInsightsService) PulseMetrics(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error) {
	if m.PulseMetricsFunc != nil {
		return m.PulseMetricsFunc(ctx, f)
	}
	return analytics.PulseMetrics{}, errors.New("PulseMetricsFunc not implemented")
}

func (m *MockInsightsService) ActionableInsights(ctx context.Context, f domain.ReportFilter) (analytics.ActionableInsights, error) {
	if m.ActionableInsightsFunc != nil {
		return m.ActionableInsightsFunc(ctx, f)
	}
	return analytics.ActionableInsights{}, errors.New("ActionableInsightsFunc not implemented")
}

func (m *MockInsightsService) BranchComparison(ctx context.Context, f domain.ReportFilter) (analytics.BranchComparison, error) {
	if m.BranchComparisonFunc != nil {
		return m.BranchComparisonFunc(ctx, f)
	}
	return analytics.BranchComparison{}, errors.New("BranchComparisonFunc not implemented")
}
