package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
)

// MockProvider is a function-based fake of the external AI collaborator.
type MockProvider struct {
	ClassifyFunc func(ctx context.Context, req classifier.Request) ([]byte, error)
	Calls        []classifier.Request
}

func (m *MockProvider) Classify(ctx context.Context, req classifier.Request) ([]byte, error) {
	m.Calls = append(m.Calls, req)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, req)
	}
	return nil, errors.New("ClassifyFunc not implemented")
}

// MockClassifier is a function-based fake of classifier.Classifier.
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, comment string, rating int, serviceType domain.ServiceType) domain.AnalysisResult
}

func (m *MockClassifier) Classify(ctx context.Context, comment string, rating int, serviceType domain.ServiceType) domain.AnalysisResult {
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, comment, rating, serviceType)
	}
	return domain.AnalysisResult{Sentiment: domain.SentimentNeutral, Method: domain.MethodHeuristic}
}

// MockAnalysisWriter is a function-based fake of classifier.AnalysisWriter.
type MockAnalysisWriter struct {
	SaveAnalysisFunc func(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error
}

func (m *MockAnalysisWriter) SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error {
	if m.SaveAnalysisFunc != nil {
		return m.SaveAnalysisFunc(ctx, id, res, at)
	}
	return nil
}
