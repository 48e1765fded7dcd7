package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/feedback-insights/internal/domain"
)

func ptr(f float64) *float64 { return &f }

func TestFromUntrusted(t *testing.T) {
	t.Run("well formed response", func(t *testing.T) {
		raw := []byte(`{
			"sentiment": "negative",
			"sentimentScore": 22,
			"categories": ["wait_time", "staff_behavior"],
			"emotions": ["frustrated"],
			"urgency": "high",
			"actionableInsights": "Add a second teller at peak hours.",
			"confidenceScore": 91
		}`)

		c, err := FromUntrusted(raw)

		require.NoError(t, err)
		assert.Equal(t, "negative", c.Sentiment)
		assert.Equal(t, 22.0, *c.SentimentScore)
		assert.Equal(t, []string{"wait_time", "staff_behavior"}, c.Categories)
		assert.Equal(t, "high", c.Urgency)
		assert.Equal(t, 91.0, *c.ConfidenceScore)
	})

	t.Run("code fences are tolerated", func(t *testing.T) {
		raw := []byte("```json\n{\"sentiment\":\"positive\",\"categories\":[],\"emotions\":[],\"urgency\":\"low\"}\n```")

		c, err := FromUntrusted(raw)

		require.NoError(t, err)
		assert.Equal(t, "positive", c.Sentiment)
		assert.Nil(t, c.SentimentScore)
	})

	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "the customer seems upset"},
		{"array instead of object", `[{"sentiment":"positive"}]`},
		{"missing sentiment", `{"categories":[],"emotions":[],"urgency":"low"}`},
		{"score is a string", `{"sentiment":"positive","sentimentScore":"high","categories":[],"emotions":[],"urgency":"low"}`},
		{"categories not an array", `{"sentiment":"positive","categories":"wait_time","emotions":[],"urgency":"low"}`},
		{"missing urgency", `{"sentiment":"positive","categories":[],"emotions":[]}`},
		{"truncated", `{"sentiment":"positive","categories":[`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromUntrusted([]byte(tc.raw))

			var shapeErr *ShapeError
			assert.ErrorAs(t, err, &shapeErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("invalid enums fall back", func(t *testing.T) {
		res := Normalize(Candidate{Sentiment: "ecstatic", Urgency: "asap"})

		assert.Equal(t, domain.SentimentNeutral, res.Sentiment)
		assert.Equal(t, domain.UrgencyLow, res.Urgency)
	})

	t.Run("missing scores use defaults", func(t *testing.T) {
		res := Normalize(Candidate{Sentiment: "positive", Urgency: "low"})

		assert.Equal(t, 50, res.SentimentScore)
		assert.Equal(t, 75, res.ConfidenceScore)
	})

	t.Run("scores are clamped", func(t *testing.T) {
		res := Normalize(Candidate{SentimentScore: ptr(140), ConfidenceScore: ptr(-3)})
		assert.Equal(t, 100, res.SentimentScore)
		assert.Equal(t, 0, res.ConfidenceScore)

		res = Normalize(Candidate{SentimentScore: ptr(72.6)})
		assert.Equal(t, 73, res.SentimentScore)
	})

	t.Run("a single unknown label drops the whole set", func(t *testing.T) {
		res := Normalize(Candidate{
			Categories: []string{"wait_time", "weather"},
			Emotions:   []string{"angry", "hangry"},
		})

		assert.Equal(t, []domain.Category{domain.CategoryServiceQuality}, res.Categories)
		assert.Equal(t, []domain.Emotion{domain.EmotionNeutral}, res.Emotions)
	})

	t.Run("labels are deduplicated and capped", func(t *testing.T) {
		res := Normalize(Candidate{
			Categories: []string{"Wait_Time", "wait_time", "fees", "communication"},
		})
		assert.Equal(t, []domain.Category{domain.CategoryServiceQuality}, res.Categories, "fees is not in the taxonomy")

		res = Normalize(Candidate{
			Categories: []string{"wait_time", "wait_time", "pricing_fees", "communication", "accessibility"},
		})
		assert.Equal(t, []domain.Category{
			domain.CategoryWaitTime,
			domain.CategoryPricingFees,
			domain.CategoryCommunication,
		}, res.Categories)
	})

	t.Run("blank insights get a manual review placeholder", func(t *testing.T) {
		res := Normalize(Candidate{ActionableInsights: "   "})
		assert.Equal(t, manualReviewInsight, res.ActionableInsights)
	})

	t.Run("long insights are truncated", func(t *testing.T) {
		res := Normalize(Candidate{ActionableInsights: strings.Repeat("x", 700)})
		assert.Len(t, res.ActionableInsights, domain.MaxInsightsLength)
	})
}

func TestNormalizeInvariants(t *testing.T) {
	candidates := []Candidate{
		{},
		{Sentiment: "POSITIVE", SentimentScore: ptr(1e9), ConfidenceScore: ptr(-1e9)},
		{Categories: []string{}, Emotions: []string{}},
		{Categories: []string{"security_concerns"}, Emotions: []string{"anxious", "worried"}},
		{Urgency: "critical", Categories: []string{"a", "b", "c", "d"}},
	}

	for _, c := range candidates {
		res := Normalize(c)

		assert.GreaterOrEqual(t, res.SentimentScore, 0)
		assert.LessOrEqual(t, res.SentimentScore, 100)
		assert.GreaterOrEqual(t, res.ConfidenceScore, 0)
		assert.LessOrEqual(t, res.ConfidenceScore, 100)
		assert.True(t, res.Sentiment.Valid())
		assert.True(t, res.Urgency.Valid())
		assert.NotEmpty(t, res.Categories)
		assert.NotEmpty(t, res.Emotions)
		assert.LessOrEqual(t, len(res.Categories), domain.MaxLabels)
		assert.LessOrEqual(t, len(res.Emotions), domain.MaxLabels)
		for _, cat := range res.Categories {
			assert.True(t, cat.Valid())
		}
		for _, e := range res.Emotions {
			assert.True(t, e.Valid())
		}
		assert.NotEmpty(t, res.ActionableInsights)
	}
}
