package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/godilite/feedback-insights/internal/domain"
)

type SentimentGroup struct {
	Sentiment         domain.Sentiment `json:"sentiment"`
	Count             int              `json:"count"`
	Percentage        float64          `json:"percentage"`
	AvgRating         float64          `json:"avgRating"`
	AvgSentimentScore float64          `json:"avgSentimentScore"`
}

type SentimentOverview struct {
	Total             int              `json:"total"`
	AvgRating         float64          `json:"avgRating"`
	AvgSentimentScore float64          `json:"avgSentimentScore"`
	Sentiments        []SentimentGroup `json:"sentiments"`
}

// ComputeSentimentOverview groups classified records by sentiment. Empty
// groups are omitted; overall averages are weighted by group size.
func ComputeSentimentOverview(recs []domain.FeedbackRecord) SentimentOverview {
	groups := make(map[domain.Sentiment]*stats)
	var overall stats
	for _, r := range visible(recs) {
		if !r.Analysis.Classified() {
			continue
		}
		g, ok := groups[r.Analysis.Sentiment]
		if !ok {
			g = &stats{}
			groups[r.Analysis.Sentiment] = g
		}
		g.add(r)
		overall.add(r)
	}

	out := SentimentOverview{
		Total:             overall.count,
		AvgRating:         round2(overall.avgRating()),
		AvgSentimentScore: round2(overall.avgScore()),
		Sentiments:        make([]SentimentGroup, 0, len(groups)),
	}
	for _, s := range domain.Sentiments {
		g, ok := groups[s]
		if !ok {
			continue
		}
		out.Sentiments = append(out.Sentiments, SentimentGroup{
			Sentiment:         s,
			Count:             g.count,
			Percentage:        overall.pct(g.count),
			AvgRating:         round2(g.avgRating()),
			AvgSentimentScore: round2(g.avgScore()),
		})
	}
	return out
}

type TrendPoint struct {
	Period            string           `json:"period"`
	Sentiment         domain.Sentiment `json:"sentiment"`
	Count             int              `json:"count"`
	AvgRating         float64          `json:"avgRating"`
	AvgSentimentScore float64          `json:"avgSentimentScore"`
}

type SentimentTrends struct {
	Period domain.Period `json:"period"`
	Days   int           `json:"days"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Trends []TrendPoint  `json:"trends"`
}

// ComputeSentimentTrends buckets classified records created inside
// [start, end] by period and sentiment.
func ComputeSentimentTrends(recs []domain.FeedbackRecord, period domain.Period, start, end time.Time) []TrendPoint {
	if !period.Valid() {
		period = domain.PeriodDaily
	}

	type key struct {
		bucket    string
		sentiment domain.Sentiment
	}
	groups := make(map[key]*stats)
	for _, r := range visible(recs) {
		if !r.Analysis.Classified() || r.CreatedAt.Before(start) || r.CreatedAt.After(end) {
			continue
		}
		k := key{bucket: BucketKey(r.CreatedAt, period), sentiment: r.Analysis.Sentiment}
		g, ok := groups[k]
		if !ok {
			g = &stats{}
			groups[k] = g
		}
		g.add(r)
	}

	out := make([]TrendPoint, 0, len(groups))
	for k, g := range groups {
		out = append(out, TrendPoint{
			Period:            k.bucket,
			Sentiment:         k.sentiment,
			Count:             g.count,
			AvgRating:         round2(g.avgRating()),
			AvgSentimentScore: round2(g.avgScore()),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].Sentiment < out[j].Sentiment
	})
	return out
}

// BucketKey formats t (in UTC) as a sortable period label.
func BucketKey(t time.Time, period domain.Period) string {
	t = t.UTC()
	switch period {
	case domain.PeriodHourly:
		return t.Format("2006-01-02T15:00")
	case domain.PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case domain.PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}
