package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
)

// MockFeedbackStore is a mock implementation of the FeedbackStore interface
// for testing the service layer.
type MockFeedbackStore struct {
	InsertFunc           func(ctx context.Context, rec *domain.FeedbackRecord) error
	GetByIDFunc          func(ctx context.Context, id string) (domain.FeedbackRecord, error)
	QueryFunc            func(ctx context.Context, q domain.RecordQuery) ([]domain.FeedbackRecord, error)
	SaveAnalysisFunc     func(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error
	UpdateStatusFunc     func(ctx context.Context, id string, from, to domain.Status, at time.Time) error
	SaveResponseFunc     func(ctx context.Context, id, response, respondedBy string, notes []string, at time.Time) error
	ListUnclassifiedFunc func(ctx context.Context, limit int) ([]domain.FeedbackRecord, error)
}

func (m *MockFeedbackStore) Insert(ctx context.Context, rec *domain.FeedbackRecord) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, rec)
	}
	return errors.New("InsertFunc not implemented")
}

func (m *MockFeedbackStore) GetByID(ctx context.Context, id string) (domain.FeedbackRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return domain.FeedbackRecord{}, errors.New("GetByIDFunc not implemented")
}

func (m *MockFeedbackStore) Query(ctx context.Context, q domain.RecordQuery) ([]domain.FeedbackRecord, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, q)
	}
	return nil, errors.New("QueryFunc not implemented")
}

func (m *MockFeedbackStore) SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error {
	if m.SaveAnalysisFunc != nil {
		return m.SaveAnalysisFunc(ctx, id, res, at)
	}
	return errors.New("SaveAnalysisFunc not implemented")
}

func (m *MockFeedbackStore) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to, at)
	}
	return errors.New("UpdateStatusFunc not implemented")
}

func (m *MockFeedbackStore) SaveResponse(ctx context.Context, id, response, respondedBy string, notes []string, at time.Time) error {
	if m.SaveResponseFunc != nil {
		return m.SaveResponseFunc(ctx, id, response, respondedBy, notes, at)
	}
	return errors.New("SaveResponseFunc not implemented")
}

func (m *MockFeedbackStore) ListUnclassified(ctx context.Context, limit int) ([]domain.FeedbackRecord, error) {
	if m.ListUnclassifiedFunc != nil {
		return m.ListUnclassifiedFunc(ctx, limit)
	}
	return nil, errors.New("ListUnclassifiedFunc not implemented")
}

// MockPipeline is a mock implementation of the Pipeline interface.
type MockPipeline struct {
	ClassifyOneFunc   func(ctx context.Context, rec domain.FeedbackRecord) domain.AnalysisResult
	ClassifyBatchFunc func(ctx context.Context, recs []domain.FeedbackRecord) classifier.BatchResult
}

func (m *MockPipeline) ClassifyOne(ctx context.Context, rec domain.FeedbackRecord) domain.AnalysisResult {
	if m.ClassifyOneFunc != nil {
		return m.ClassifyOneFunc(ctx, rec)
	}
	return domain.AnalysisResult{}
}

func (m *MockPipeline) ClassifyBatch(ctx context.Context, recs []domain.FeedbackRecord) classifier.BatchResult {
	if m.ClassifyBatchFunc != nil {
		return m.ClassifyBatchFunc(ctx, recs)
	}
	out := classifier.BatchResult{Total: len(recs)}
	for _, r := range recs {
		out.Items = append(out.Items, classifier.BatchItem{RecordID: r.ID, Success: true})
		out.Succeeded++
	}
	return out
}
