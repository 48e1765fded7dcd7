package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/classifier/mocks"
	"github.com/godilite/feedback-insights/internal/domain"
)

const validResponse = `{
	"sentiment": "negative",
	"sentimentScore": 15,
	"categories": ["security_concerns"],
	"emotions": ["anxious", "angry"],
	"urgency": "critical",
	"actionableInsights": "Freeze the card and call the customer today.",
	"confidenceScore": 94
}`

func TestAIClassifier_Classify(t *testing.T) {
	ctx := context.Background()
	comment := "Someone withdrew money from my account without my consent"

	t.Run("uses provider output when well formed", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ClassifyFunc: func(ctx context.Context, req classifier.Request) ([]byte, error) {
				return []byte(validResponse), nil
			},
		}
		c := classifier.NewAIClassifier(provider, nil)

		res := c.Classify(ctx, comment, 1, domain.ServiceCards)

		assert.Equal(t, domain.MethodAI, res.Method)
		assert.Equal(t, domain.SentimentNegative, res.Sentiment)
		assert.Equal(t, domain.UrgencyCritical, res.Urgency)
		assert.Equal(t, []domain.Category{domain.CategorySecurityConcerns}, res.Categories)
		assert.Equal(t, 94, res.ConfidenceScore)
		require.Len(t, provider.Calls, 1)
		assert.Equal(t, classifier.Request{
			Comment:     comment,
			Rating:      1,
			ServiceType: domain.ServiceCards,
		}, provider.Calls[0])
	})

	t.Run("nil provider uses heuristic", func(t *testing.T) {
		c := classifier.NewAIClassifier(nil, nil)

		res := c.Classify(ctx, comment, 1, "")

		assert.Equal(t, domain.MethodHeuristic, res.Method)
		assert.Equal(t, domain.SentimentNegative, res.Sentiment)
		assert.Equal(t, 20, res.SentimentScore)
	})

	t.Run("transport error falls back", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ClassifyFunc: func(ctx context.Context, req classifier.Request) ([]byte, error) {
				return nil, errors.New("connection refused")
			},
		}
		c := classifier.NewAIClassifier(provider, nil)

		res := c.Classify(ctx, comment, 4, "")

		assert.Equal(t, domain.MethodHeuristic, res.Method)
		assert.Equal(t, domain.SentimentPositive, res.Sentiment)
	})

	t.Run("malformed output falls back", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ClassifyFunc: func(ctx context.Context, req classifier.Request) ([]byte, error) {
				return []byte(`{"sentiment": 5}`), nil
			},
		}
		c := classifier.NewAIClassifier(provider, nil)

		res := c.Classify(ctx, comment, 2, "")

		assert.Equal(t, domain.MethodHeuristic, res.Method)
		assert.Equal(t, domain.HeuristicConfidence, res.ConfidenceScore)
	})

	t.Run("slow provider is cut off by the timeout", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ClassifyFunc: func(ctx context.Context, req classifier.Request) ([]byte, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(5 * time.Second):
					return []byte(validResponse), nil
				}
			},
		}
		c := classifier.NewAIClassifier(provider, nil, classifier.WithTimeout(20*time.Millisecond))

		start := time.Now()
		res := c.Classify(ctx, comment, 3, "")

		assert.Equal(t, domain.MethodHeuristic, res.Method)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("invalid labels from provider are normalised", func(t *testing.T) {
		provider := &mocks.MockProvider{
			ClassifyFunc: func(ctx context.Context, req classifier.Request) ([]byte, error) {
				return []byte("```json\n{\"sentiment\":\"furious\",\"categories\":[\"bad_vibes\"],\"emotions\":[],\"urgency\":\"now\",\"sentimentScore\":250}\n```"), nil
			},
		}
		c := classifier.NewAIClassifier(provider, nil)

		res := c.Classify(ctx, comment, 1, "")

		assert.Equal(t, domain.MethodAI, res.Method)
		assert.Equal(t, domain.SentimentNeutral, res.Sentiment)
		assert.Equal(t, domain.UrgencyLow, res.Urgency)
		assert.Equal(t, 100, res.SentimentScore)
		assert.Equal(t, []domain.Category{domain.CategoryServiceQuality}, res.Categories)
		assert.Equal(t, []domain.Emotion{domain.EmotionNeutral}, res.Emotions)
	})
}
