package analytics

import (
	"sort"

	"github.com/godilite/feedback-insights/internal/domain"
)

// GroupMetrics are the per-group figures shared by the service type and
// branch reports. Percentages are relative to the group total.
type GroupMetrics struct {
	Total              int     `json:"total"`
	AvgRating          float64 `json:"avgRating"`
	AvgSentimentScore  float64 `json:"avgSentimentScore"`
	PositivePercentage float64 `json:"positivePercentage"`
	NeutralPercentage  float64 `json:"neutralPercentage"`
	NegativePercentage float64 `json:"negativePercentage"`
	UrgentCount        int     `json:"urgentCount"`
	SatisfactionScore  float64 `json:"satisfactionScore"`
	PerformanceRating  string  `json:"performanceRating"`
}

func groupMetrics(s stats) GroupMetrics {
	positive := s.pct(s.sentiments.Positive)
	return GroupMetrics{
		Total:              s.count,
		AvgRating:          round2(s.avgRating()),
		AvgSentimentScore:  round2(s.avgScore()),
		PositivePercentage: positive,
		NeutralPercentage:  s.pct(s.sentiments.Neutral),
		NegativePercentage: s.pct(s.sentiments.Negative),
		UrgentCount:        s.urgent,
		SatisfactionScore:  positive,
		PerformanceRating:  scoreRating(s.avgScore()),
	}
}

type ServiceTypeMetric struct {
	ServiceType domain.ServiceType `json:"serviceType"`
	GroupMetrics
}

// ComputeServiceTypeMetrics groups classified records by service type and
// ranks the groups by satisfaction.
func ComputeServiceTypeMetrics(recs []domain.FeedbackRecord) []ServiceTypeMetric {
	groups := groupBy(recs, func(r domain.FeedbackRecord) string { return string(r.ServiceType) })

	out := make([]ServiceTypeMetric, 0, len(groups))
	for name, g := range groups {
		out = append(out, ServiceTypeMetric{
			ServiceType:  domain.ServiceType(name),
			GroupMetrics: groupMetrics(*g),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SatisfactionScore != out[j].SatisfactionScore {
			return out[i].SatisfactionScore > out[j].SatisfactionScore
		}
		return out[i].ServiceType < out[j].ServiceType
	})
	return out
}

type BranchMetric struct {
	Branch string `json:"branch"`
	GroupMetrics
	PerformanceScore float64 `json:"performanceScore"`
}

type BranchComparison struct {
	Branches        []BranchMetric `json:"branches"`
	TopPerformer    *BranchMetric  `json:"topPerformer,omitempty"`
	BottomPerformer *BranchMetric  `json:"bottomPerformer,omitempty"`
}

// PerformanceScore weights sentiment 70% and rating 30% on a common
// 100-point scale.
func PerformanceScore(avgSentimentScore, avgRating float64) float64 {
	return round1(0.7*avgSentimentScore + 6*avgRating)
}

// ComputeBranchComparison groups classified records by branch and ranks
// the branches by composite performance score.
func ComputeBranchComparison(recs []domain.FeedbackRecord) BranchComparison {
	groups := groupBy(recs, func(r domain.FeedbackRecord) string { return r.Branch })

	branches := make([]BranchMetric, 0, len(groups))
	for name, g := range groups {
		branches = append(branches, BranchMetric{
			Branch:           name,
			GroupMetrics:     groupMetrics(*g),
			PerformanceScore: PerformanceScore(g.avgScore(), g.avgRating()),
		})
	}
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].PerformanceScore != branches[j].PerformanceScore {
			return branches[i].PerformanceScore > branches[j].PerformanceScore
		}
		return branches[i].Branch < branches[j].Branch
	})

	out := BranchComparison{Branches: branches}
	if len(branches) > 0 {
		top, bottom := branches[0], branches[len(branches)-1]
		out.TopPerformer = &top
		out.BottomPerformer = &bottom
	}
	return out
}

// groupBy accumulates visible classified records under a non-empty key.
func groupBy(recs []domain.FeedbackRecord, keyOf func(domain.FeedbackRecord) string) map[string]*stats {
	groups := make(map[string]*stats)
	for _, r := range visible(recs) {
		k := keyOf(r)
		if k == "" || !r.Analysis.Classified() {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &stats{}
			groups[k] = g
		}
		g.add(r)
	}
	return groups
}
