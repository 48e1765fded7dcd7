package analytics

import (
	"sort"

	"github.com/godilite/feedback-insights/internal/domain"
)

type CategoryInsight struct {
	Category           domain.Category  `json:"category"`
	Count              int              `json:"count"`
	AvgRating          float64          `json:"avgRating"`
	AvgSentimentScore  float64          `json:"avgSentimentScore"`
	Sentiments         SentimentCounts  `json:"sentiments"`
	PositivePercentage float64          `json:"positivePercentage"`
	NeutralPercentage  float64          `json:"neutralPercentage"`
	NegativePercentage float64          `json:"negativePercentage"`
	UrgentCount        int              `json:"urgentCount"`
	DominantSentiment  domain.Sentiment `json:"dominantSentiment"`
}

// ComputeCategoryInsights counts each record once under every category it
// carries. Categories seen fewer than minCount times are dropped.
func ComputeCategoryInsights(recs []domain.FeedbackRecord, minCount int) []CategoryInsight {
	if minCount <= 0 {
		minCount = domain.DefaultMinCount
	}

	groups := make(map[domain.Category]*stats)
	for _, r := range visible(recs) {
		if !r.Analysis.Classified() {
			continue
		}
		for _, c := range r.Analysis.Categories {
			g, ok := groups[c]
			if !ok {
				g = &stats{}
				groups[c] = g
			}
			g.add(r)
		}
	}

	out := make([]CategoryInsight, 0, len(groups))
	for c, g := range groups {
		if g.count < minCount {
			continue
		}
		out = append(out, CategoryInsight{
			Category:           c,
			Count:              g.count,
			AvgRating:          round2(g.avgRating()),
			AvgSentimentScore:  round2(g.avgScore()),
			Sentiments:         g.sentiments,
			PositivePercentage: g.pct(g.sentiments.Positive),
			NeutralPercentage:  g.pct(g.sentiments.Neutral),
			NegativePercentage: g.pct(g.sentiments.Negative),
			UrgentCount:        g.urgent,
			DominantSentiment:  dominantSentiment(g.sentiments),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// dominantSentiment compares positive against negative only; ties go to
// positive.
func dominantSentiment(c SentimentCounts) domain.Sentiment {
	if c.Positive >= c.Negative {
		return domain.SentimentPositive
	}
	return domain.SentimentNegative
}

type EmotionInsight struct {
	Emotion           domain.Emotion  `json:"emotion"`
	Count             int             `json:"count"`
	Percentage        float64         `json:"percentage"`
	AvgRating         float64         `json:"avgRating"`
	AvgSentimentScore float64         `json:"avgSentimentScore"`
	Sentiments        SentimentCounts `json:"sentiments"`
	UrgentCount       int             `json:"urgentCount"`
}

type EmotionAnalysis struct {
	TotalMentions int              `json:"totalMentions"`
	Emotions      []EmotionInsight `json:"emotions"`
}

// ComputeEmotionAnalysis mirrors ComputeCategoryInsights over emotions.
// Percentages are shares of all emotion mentions, not of records.
func ComputeEmotionAnalysis(recs []domain.FeedbackRecord, minCount int) EmotionAnalysis {
	if minCount <= 0 {
		minCount = domain.DefaultMinCount
	}

	groups := make(map[domain.Emotion]*stats)
	mentions := 0
	for _, r := range visible(recs) {
		if !r.Analysis.Classified() {
			continue
		}
		for _, e := range r.Analysis.Emotions {
			g, ok := groups[e]
			if !ok {
				g = &stats{}
				groups[e] = g
			}
			g.add(r)
			mentions++
		}
	}

	out := EmotionAnalysis{TotalMentions: mentions, Emotions: make([]EmotionInsight, 0, len(groups))}
	for e, g := range groups {
		if g.count < minCount {
			continue
		}
		out.Emotions = append(out.Emotions, EmotionInsight{
			Emotion:           e,
			Count:             g.count,
			Percentage:        round2(100 * ratio(float64(g.count), mentions)),
			AvgRating:         round2(g.avgRating()),
			AvgSentimentScore: round2(g.avgScore()),
			Sentiments:        g.sentiments,
			UrgentCount:       g.urgent,
		})
	}
	sort.Slice(out.Emotions, func(i, j int) bool {
		if out.Emotions[i].Count != out.Emotions[j].Count {
			return out.Emotions[i].Count > out.Emotions[j].Count
		}
		return out.Emotions[i].Emotion < out.Emotions[j].Emotion
	})
	return out
}
