package analytics

import (
	"github.com/godilite/feedback-insights/internal/domain"
)

type PulseBreakdown struct {
	Promoters   int `json:"promoters"`
	Passives    int `json:"passives"`
	Detractors  int `json:"detractors"`
	Satisfied   int `json:"satisfied"`
	Unsatisfied int `json:"unsatisfied"`
}

type PulseMetrics struct {
	Days                  int             `json:"days"`
	Total                 int             `json:"total"`
	CSAT                  float64         `json:"csat"`
	NPS                   float64         `json:"nps"`
	CES                   float64         `json:"ces"`
	AvgRating             float64         `json:"avgRating"`
	Breakdown             PulseBreakdown  `json:"breakdown"`
	SentimentDistribution SentimentCounts `json:"sentimentDistribution"`
	PerformanceRating     string          `json:"performanceRating"`
}

// ComputePulseMetrics derives CSAT, NPS and CES from star ratings. Ratings of
// 5 promote, 4 is passive, 3 and below detract. Records without a sentiment
// score contribute 0 to CES. An empty set yields a zeroed report.
func ComputePulseMetrics(recs []domain.FeedbackRecord, days int) PulseMetrics {
	out := PulseMetrics{Days: days}

	var ratingSum, scoreSum float64
	for _, r := range visible(recs) {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		out.Total++
		ratingSum += float64(r.Rating)
		scoreSum += float64(r.Analysis.SentimentScore)
		out.SentimentDistribution.add(r.Analysis.Sentiment)

		switch {
		case r.Rating == 5:
			out.Breakdown.Promoters++
		case r.Rating == 4:
			out.Breakdown.Passives++
		default:
			out.Breakdown.Detractors++
		}
		if r.Rating >= 4 {
			out.Breakdown.Satisfied++
		} else {
			out.Breakdown.Unsatisfied++
		}
	}

	if out.Total == 0 {
		out.PerformanceRating = pulseRating(0, 0)
		return out
	}

	b := out.Breakdown
	out.CSAT = round1(100 * ratio(float64(b.Satisfied), out.Total))
	out.NPS = round1(100 * ratio(float64(b.Promoters-b.Detractors), out.Total))
	out.CES = round1(ratio(scoreSum, out.Total))
	out.AvgRating = round2(ratio(ratingSum, out.Total))
	out.PerformanceRating = pulseRating(out.CSAT, out.NPS)
	return out
}

func pulseRating(csat, nps float64) string {
	switch {
	case csat >= 90 && nps >= 50:
		return RatingExcellent
	case csat >= 80 && nps >= 30:
		return RatingGood
	case csat >= 70 && nps >= 10:
		return RatingAverage
	default:
		return RatingNeedsImprovement
	}
}
