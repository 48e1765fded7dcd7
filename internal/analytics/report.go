// Package analytics builds the read-only feedback reports. Every function
// is a pure projection of the records it is given; fetching them is the
// caller's job.
package analytics

import (
	"math"

	"github.com/godilite/feedback-insights/internal/domain"
)

// Report names, used as cache keys and metric labels.
const (
	ReportSentimentOverview  = "sentiment_overview"
	ReportServiceTypeMetrics = "service_type_metrics"
	ReportSentimentTrends    = "sentiment_trends"
	ReportCategoryInsights   = "category_insights"
	ReportEmotionAnalysis    = "emotion_analysis"
	ReportUrgencyDashboard   = "urgency_dashboard"
	ReportPulseMetrics       = "pulse_metrics"
	ReportActionableInsights = "actionable_insights"
	ReportBranchComparison   = "branch_comparison"
)

const (
	RatingExcellent        = "Excellent"
	RatingGood             = "Good"
	RatingAverage          = "Average"
	RatingNeedsAttention   = "Needs Attention"
	RatingCritical         = "Critical"
	RatingNeedsImprovement = "Needs Improvement"
)

// Visible is the standing visibility rule: closed records never appear in
// any report.
func Visible(r domain.FeedbackRecord) bool {
	return r.Status != domain.StatusClosed
}

func visible(recs []domain.FeedbackRecord) []domain.FeedbackRecord {
	out := make([]domain.FeedbackRecord, 0, len(recs))
	for _, r := range recs {
		if Visible(r) {
			out = append(out, r)
		}
	}
	return out
}

// SentimentCounts is a per-sentiment tally.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

func (c *SentimentCounts) add(s domain.Sentiment) {
	switch s {
	case domain.SentimentPositive:
		c.Positive++
	case domain.SentimentNeutral:
		c.Neutral++
	case domain.SentimentNegative:
		c.Negative++
	}
}

// stats accumulates the per-group figures shared by most reports. Averages
// are kept unrounded until the report is emitted.
type stats struct {
	count      int
	ratingSum  float64
	scoreSum   float64
	sentiments SentimentCounts
	urgent     int
}

func (s *stats) add(r domain.FeedbackRecord) {
	s.count++
	s.ratingSum += float64(r.Rating)
	s.scoreSum += float64(r.Analysis.SentimentScore)
	s.sentiments.add(r.Analysis.Sentiment)
	if domain.IsUrgent(r) {
		s.urgent++
	}
}

func (s stats) avgRating() float64 { return ratio(s.ratingSum, s.count) }

func (s stats) avgScore() float64 { return ratio(s.scoreSum, s.count) }

func (s stats) pct(n int) float64 { return round2(100 * ratio(float64(n), s.count)) }

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// scoreRating maps an average sentiment score to its qualitative band.
func scoreRating(avgScore float64) string {
	switch {
	case avgScore >= 80:
		return RatingExcellent
	case avgScore >= 70:
		return RatingGood
	case avgScore >= 60:
		return RatingAverage
	case avgScore >= 50:
		return RatingNeedsAttention
	default:
		return RatingCritical
	}
}
