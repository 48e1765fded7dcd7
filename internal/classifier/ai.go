package classifier

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/metrics"
)

const defaultAITimeout = 10 * time.Second

const (
	fallbackDisabled  = "disabled"
	fallbackTimeout   = "timeout"
	fallbackCanceled  = "canceled"
	fallbackTransport = "transport"
	fallbackMalformed = "malformed"
)

// AIClassifier asks an external provider first and degrades to the heuristic
// classifier on any failure. It never returns an error.
type AIClassifier struct {
	provider  Provider
	heuristic *Heuristic
	timeout   time.Duration
	logger    *zap.Logger
}

type AIOption func(*AIClassifier)

func WithTimeout(d time.Duration) AIOption {
	return func(c *AIClassifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *zap.Logger) AIOption {
	return func(c *AIClassifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAIClassifier wires the classifier. A nil provider disables the AI path.
func NewAIClassifier(provider Provider, heuristic *Heuristic, opts ...AIOption) *AIClassifier {
	if heuristic == nil {
		heuristic = NewHeuristic(nil, nil)
	}
	c := &AIClassifier{
		provider:  provider,
		heuristic: heuristic,
		timeout:   defaultAITimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("classifier")
	return c
}

func (c *AIClassifier) Classify(ctx context.Context, comment string, rating int, serviceType domain.ServiceType) domain.AnalysisResult {
	if c.provider == nil {
		return c.fallback(fallbackDisabled, nil, comment, rating)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.provider.Classify(callCtx, Request{
		Comment:     comment,
		Rating:      rating,
		ServiceType: serviceType,
	})
	metrics.ObserveAIRequest(start, err)
	if err != nil {
		return c.fallback(failureReason(callCtx, err), err, comment, rating)
	}

	candidate, err := FromUntrusted(raw)
	if err != nil {
		return c.fallback(fallbackMalformed, err, comment, rating)
	}

	res := Normalize(candidate)
	res.Method = domain.MethodAI
	metrics.ObserveClassification(string(domain.MethodAI))
	c.logger.Debug("classified by AI provider",
		zap.String("sentiment", string(res.Sentiment)),
		zap.String("urgency", string(res.Urgency)),
		zap.Duration("elapsed", time.Since(start)))
	return res
}

func (c *AIClassifier) fallback(reason string, cause error, comment string, rating int) domain.AnalysisResult {
	metrics.ObserveFallback(reason)
	metrics.ObserveClassification(string(domain.MethodHeuristic))

	if reason == fallbackDisabled {
		c.logger.Debug("AI provider not configured, using heuristic classifier")
	} else {
		c.logger.Warn("AI classification failed, using heuristic classifier",
			zap.String("reason", reason),
			zap.Error(cause))
	}
	return c.heuristic.Classify(comment, rating)
}

func failureReason(callCtx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return fallbackTimeout
	case errors.Is(err, context.Canceled) || errors.Is(callCtx.Err(), context.Canceled):
		return fallbackCanceled
	default:
		var shapeErr *ShapeError
		if errors.As(err, &shapeErr) {
			return fallbackMalformed
		}
		return fallbackTransport
	}
}
