package classifier

import (
	"context"
	"time"

	"github.com/godilite/feedback-insights/internal/domain"
)

// Request is what the external AI collaborator receives for one comment.
type Request struct {
	Comment     string             `json:"comment"`
	Rating      int                `json:"rating"`
	ServiceType domain.ServiceType `json:"serviceType"`
}

// Provider performs one external classification call and returns the raw
// JSON body the model produced.
type Provider interface {
	Classify(ctx context.Context, req Request) ([]byte, error)
}

// Classifier produces an analysis for a single comment without failing.
type Classifier interface {
	Classify(ctx context.Context, comment string, rating int, serviceType domain.ServiceType) domain.AnalysisResult
}

// AnalysisWriter persists a classification result onto its record.
type AnalysisWriter interface {
	SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error
}
