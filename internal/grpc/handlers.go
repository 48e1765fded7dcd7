package grpc

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/service"
)

const (
	defaultCacheDuration  = time.Minute
	defaultRequestTimeout = 30 * time.Second
)

type CacheKeyType string

const (
	cacheKeySentimentOverview  CacheKeyType = "grpc:" + analytics.ReportSentimentOverview
	cacheKeyServiceTypeMetrics CacheKeyType = "grpc:" + analytics.ReportServiceTypeMetrics
	cacheKeySentimentTrends    CacheKeyType = "grpc:" + analytics.ReportSentimentTrends
	cacheKeyCategoryInsights   CacheKeyType = "grpc:" + analytics.ReportCategoryInsights
	cacheKeyEmotionAnalysis    CacheKeyType = "grpc:" + analytics.ReportEmotionAnalysis
	cacheKeyUrgencyDashboard   CacheKeyType = "grpc:" + analytics.ReportUrgencyDashboard
	cacheKeyPulseMetrics       CacheKeyType = "grpc:" + analytics.ReportPulseMetrics
	cacheKeyActionableInsights CacheKeyType = "grpc:" + analytics.ReportActionableInsights
	cacheKeyBranchComparison   CacheKeyType = "grpc:" + analytics.ReportBranchComparison
)

type idRequest struct {
	ID string `json:"id"`
}

type statusRequest struct {
	ID     string        `json:"id"`
	Status domain.Status `json:"status"`
}

type respondRequest struct {
	ID string `json:"id"`
	service.ResponseInput
}

type reanalyzeRequest struct {
	IDs []string `json:"ids"`
}

// FeedbackHandlers implements FeedbackInsightsServer on top of the feedback
// and insights services. Report responses go through the read-through cache
// when one is configured.
type FeedbackHandlers struct {
	feedback FeedbackService
	insights InsightsService
	cache    Cacher
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
	timeout  time.Duration
}

type HandlerOption func(*FeedbackHandlers)

// WithRequestTimeout bounds every call except ReanalyzeFeedback. It must
// exceed the classifier timeout plus the store write.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *FeedbackHandlers) {
		if d > 0 {
			h.timeout = d
		}
	}
}

var _ FeedbackInsightsServer = (*FeedbackHandlers)(nil)

// NewFeedbackHandlers initializes the gRPC handlers. cache may be nil.
func NewFeedbackHandlers(feedback FeedbackService, insights InsightsService, cache Cacher, logger *zap.Logger, ttl time.Duration, opts ...HandlerOption) *FeedbackHandlers {
	if feedback == nil {
		panic("nil FeedbackService provided to NewFeedbackHandlers")
	}
	if insights == nil {
		panic("nil InsightsService provided to NewFeedbackHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	h := &FeedbackHandlers{
		feedback: feedback,
		insights: insights,
		cache:    cache,
		logger:   logger.Named("grpc-handler"),
		cacheTTL: ttl,
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func stamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// normalizeKey builds a cache key that differs for every distinct filter.
func normalizeKey(prefix CacheKeyType, f domain.ReportFilter) string {
	return strings.Join([]string{
		string(prefix),
		stamp(f.StartDate),
		stamp(f.EndDate),
		strconv.Quote(string(f.ServiceType)),
		strconv.Quote(f.Branch),
		string(f.Urgency),
		string(f.Category),
		string(f.Period),
		strconv.Itoa(f.Days),
		strconv.Itoa(f.MinCount),
		strconv.Itoa(f.Limit),
	}, ":")
}

func (s *FeedbackHandlers) parseRequest(req *structpb.Struct, dst any) error {
	if err := decode(req, dst, true); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return status.Error(codes.InvalidArgument, "id is required")
	}
	return nil
}

func (s *FeedbackHandlers) reply(op string, v any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		s.logger.Error("response encoding failed", zap.String("op", op), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "%s failed: encode response", op)
	}
	return out, nil
}

func (s *FeedbackHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		s.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		s.logger.Info("feedback not found", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		s.logger.Info("rejected status change", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *FeedbackHandlers) SubmitFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var sub domain.Submission
	if err := s.parseRequest(req, &sub); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	view, err := s.feedback.Submit(ctx, sub)
	if err != nil {
		return nil, s.handleError(ctx, MethodSubmitFeedback, err)
	}
	return s.reply(MethodSubmitFeedback, view)
}

func (s *FeedbackHandlers) GetFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := s.parseRequest(req, &in); err != nil {
		return nil, err
	}
	if err := requireID(in.ID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	view, err := s.feedback.Get(ctx, in.ID)
	if err != nil {
		return nil, s.handleError(ctx, MethodGetFeedback, err)
	}
	return s.reply(MethodGetFeedback, view)
}

func (s *FeedbackHandlers) UpdateStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in statusRequest
	if err := s.parseRequest(req, &in); err != nil {
		return nil, err
	}
	if err := requireID(in.ID); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", in.Status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	view, err := s.feedback.UpdateStatus(ctx, in.ID, in.Status)
	if err != nil {
		return nil, s.handleError(ctx, MethodUpdateStatus, err)
	}
	return s.reply(MethodUpdateStatus, view)
}

func (s *FeedbackHandlers) RespondToFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in respondRequest
	if err := s.parseRequest(req, &in); err != nil {
		return nil, err
	}
	if err := requireID(in.ID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	view, err := s.feedback.Respond(ctx, in.ID, in.ResponseInput)
	if err != nil {
		return nil, s.handleError(ctx, MethodRespondToFeedback, err)
	}
	return s.reply(MethodRespondToFeedback, view)
}

func (s *FeedbackHandlers) ClassifyFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in idRequest
	if err := s.parseRequest(req, &in); err != nil {
		return nil, err
	}
	if err := requireID(in.ID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.feedback.Classify(ctx, in.ID)
	if err != nil {
		return nil, s.handleError(ctx, MethodClassifyFeedback, err)
	}
	return s.reply(MethodClassifyFeedback, res)
}

// ReanalyzeFeedback runs under the caller's deadline only, since batches are
// paced between items.
func (s *FeedbackHandlers) ReanalyzeFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in reanalyzeRequest
	if err := s.parseRequest(req, &in); err != nil {
		return nil, err
	}
	if len(in.IDs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "ids are required")
	}

	res, err := s.feedback.Reanalyze(ctx, in.IDs)
	if err != nil {
		return nil, s.handleError(ctx, MethodReanalyzeFeedback, err)
	}
	return s.reply(MethodReanalyzeFeedback, res)
}

func serveReport[T any](
	ctx context.Context,
	s *FeedbackHandlers,
	op string,
	prefix CacheKeyType,
	req *structpb.Struct,
	fetch func(context.Context, domain.ReportFilter) (T, error),
	shape func(T) any,
) (*structpb.Struct, error) {
	var f domain.ReportFilter
	if err := s.parseRequest(req, &f); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := FindAndCache(ctx, s.cache, &s.sfGroup, normalizeKey(prefix, f), s.cacheTTL, s.logger, func(fetchCtx context.Context) (T, error) {
		return fetch(fetchCtx, f)
	})
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}

	if shape == nil {
		return s.reply(op, out)
	}
	return s.reply(op, shape(out))
}

func (s *FeedbackHandlers) GetSentimentOverview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetSentimentOverview, cacheKeySentimentOverview, req, s.insights.SentimentOverview, nil)
}

func (s *FeedbackHandlers) GetServiceTypeMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetServiceTypeMetrics, cacheKeyServiceTypeMetrics, req, s.insights.ServiceTypeMetrics,
		func(m []analytics.ServiceTypeMetric) any {
			return map[string]any{"serviceTypes": nonNil(m)}
		})
}

func (s *FeedbackHandlers) GetSentimentTrends(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetSentimentTrends, cacheKeySentimentTrends, req, s.insights.SentimentTrends, nil)
}

func (s *FeedbackHandlers) GetCategoryInsights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetCategoryInsights, cacheKeyCategoryInsights, req, s.insights.CategoryInsights,
		func(c []analytics.CategoryInsight) any {
			return map[string]any{"categories": nonNil(c)}
		})
}

func (s *FeedbackHandlers) GetEmotionAnalysis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetEmotionAnalysis, cacheKeyEmotionAnalysis, req, s.insights.EmotionAnalysis, nil)
}

func (s *FeedbackHandlers) GetUrgencyDashboard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetUrgencyDashboard, cacheKeyUrgencyDashboard, req, s.insights.UrgencyDashboard, nil)
}

func (s *FeedbackHandlers) GetPulseMetrics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetPulseMetrics, cacheKeyPulseMetrics, req, s.insights.PulseMetrics, nil)
}

func (s *FeedbackHandlers) GetActionableInsights(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetActionableInsights, cacheKeyActionableInsights, req, s.insights.ActionableInsights, nil)
}

func (s *FeedbackHandlers) GetBranchComparison(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serveReport(ctx, s, MethodGetBranchComparison, cacheKeyBranchComparison, req, s.insights.BranchComparison, nil)
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
