package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/classifier"
	classifiermocks "github.com/godilite/feedback-insights/internal/classifier/mocks"
	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/grpc/mocks"
	"github.com/godilite/feedback-insights/internal/service"
	storemocks "github.com/godilite/feedback-insights/internal/service/mocks"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func newHandlers(fb *mocks.MockFeedbackService, in *mocks.MockInsightsService, cache Cacher) *FeedbackHandlers {
	if fb == nil {
		fb = &mocks.MockFeedbackService{}
	}
	if in == nil {
		in = &mocks.MockInsightsService{}
	}
	return NewFeedbackHandlers(fb, in, cache, zap.NewNop(), time.Minute)
}

func sampleView() service.RecordView {
	created := time.Date(2025, 5, 19, 8, 0, 0, 0, time.UTC)
	rec := domain.FeedbackRecord{
		ID:          "fb-1",
		Rating:      2,
		Comment:     "The queue at the branch took forever today",
		ServiceType: domain.ServiceBranchVisit,
		Branch:      "Ikeja",
		Status:      domain.StatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	rec.Analysis.AnalysisResult = domain.AnalysisResult{
		Sentiment:      domain.SentimentNegative,
		SentimentScore: 25,
		Categories:     []domain.Category{domain.CategoryWaitTime},
		Emotions:       []domain.Emotion{domain.EmotionFrustrated},
		Urgency:        domain.UrgencyHigh,
		Method:         domain.MethodHeuristic,
	}
	return service.RecordView{FeedbackRecord: rec}
}

func TestNewFeedbackHandlers(t *testing.T) {
	t.Run("panics on nil services", func(t *testing.T) {
		assert.Panics(t, func() {
			NewFeedbackHandlers(nil, &mocks.MockInsightsService{}, nil, zap.NewNop(), time.Minute)
		})
		assert.Panics(t, func() {
			NewFeedbackHandlers(&mocks.MockFeedbackService{}, nil, nil, zap.NewNop(), time.Minute)
		})
	})

	t.Run("defaults TTL and logger", func(t *testing.T) {
		h := NewFeedbackHandlers(&mocks.MockFeedbackService{}, &mocks.MockInsightsService{}, nil, nil, 0)
		assert.Equal(t, defaultCacheDuration, h.cacheTTL)
		assert.NotNil(t, h.logger)
		assert.Nil(t, h.cache)
	})
}

func TestNormalizeKey(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	lagos := time.FixedZone("WAT", 3600)

	t.Run("same instant in different zones", func(t *testing.T) {
		local := start.In(lagos)
		a := normalizeKey(cacheKeyPulseMetrics, domain.ReportFilter{StartDate: &start})
		b := normalizeKey(cacheKeyPulseMetrics, domain.ReportFilter{StartDate: &local})
		assert.Equal(t, a, b)
	})

	t.Run("distinct filters give distinct keys", func(t *testing.T) {
		filters := []domain.ReportFilter{
			{},
			{StartDate: &start},
			{EndDate: &start},
			{ServiceType: domain.ServiceATM},
			{Branch: "Ikeja"},
			{Branch: "Ikeja:low"},
			{Branch: "Ikeja", Urgency: domain.UrgencyLow},
			{Category: domain.CategoryWaitTime},
			{Period: domain.PeriodWeekly},
			{Days: 7},
			{MinCount: 2},
			{Limit: 5},
		}
		seen := map[string]int{}
		for i, f := range filters {
			key := normalizeKey(cacheKeyPulseMetrics, f)
			prev, dup := seen[key]
			assert.False(t, dup, "filter %d collides with filter %d", i, prev)
			seen[key] = i
		}
	})

	t.Run("report name is part of the key", func(t *testing.T) {
		assert.NotEqual(t,
			normalizeKey(cacheKeyPulseMetrics, domain.ReportFilter{}),
			normalizeKey(cacheKeyBranchComparison, domain.ReportFilter{}))
	})
}

func TestHandleError(t *testing.T) {
	h := newHandlers(nil, nil, nil)

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := h.handleError(ctx, "op", errors.New("boom"))
		assert.Equal(t, codes.Canceled, status.Code(err))
	})

	t.Run("context deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		err := h.handleError(ctx, "op", errors.New("boom"))
		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})

	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", domain.NewValidationError("rating", "must be between 1 and 5"), codes.InvalidArgument},
		{"not found", fmt.Errorf("%w: fb-9", domain.ErrNotFound), codes.NotFound},
		{"invalid transition", fmt.Errorf("%w: closed -> pending", domain.ErrInvalidTransition), codes.FailedPrecondition},
		{"storage failure", fmt.Errorf("%w: query: disk I/O error", service.ErrStorageFailure), codes.Internal},
		{"unknown", errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.handleError(context.Background(), "op", tc.err)
			assert.Equal(t, tc.code, status.Code(err))
		})
	}

	t.Run("storage details are not leaked", func(t *testing.T) {
		err := h.handleError(context.Background(), "op", fmt.Errorf("%w: query: disk I/O error", service.ErrStorageFailure))
		assert.NotContains(t, err.Error(), "disk")
	})
}

func TestSubmitFeedback(t *testing.T) {
	t.Run("decodes the submission and returns the record view", func(t *testing.T) {
		var got domain.Submission
		fb := &mocks.MockFeedbackService{
			SubmitFunc: func(ctx context.Context, sub domain.Submission) (service.RecordView, error) {
				got = sub
				return sampleView(), nil
			},
		}
		h := newHandlers(fb, nil, nil)

		resp, err := h.SubmitFeedback(context.Background(), mustStruct(t, map[string]any{
			"rating":      2,
			"comment":     "The queue at the branch took forever today",
			"serviceType": "Branch Visit",
			"branch":      "Ikeja",
		}))

		require.NoError(t, err)
		assert.Equal(t, 2, got.Rating)
		assert.Equal(t, domain.ServiceBranchVisit, got.ServiceType)
		assert.Equal(t, "Ikeja", got.Branch)

		m := resp.AsMap()
		assert.Equal(t, "fb-1", m["id"])
		assert.Equal(t, "pending", m["status"])
		assert.Contains(t, m, "flags")
		analysis := m["analysis"].(map[string]any)
		assert.Equal(t, "negative", analysis["sentiment"])
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		h := newHandlers(nil, nil, nil)

		resp, err := h.SubmitFeedback(context.Background(), mustStruct(t, map[string]any{
			"rating": 4,
			"stars":  4,
		}))

		assert.Nil(t, resp)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("wrong field types are rejected", func(t *testing.T) {
		h := newHandlers(nil, nil, nil)

		_, err := h.SubmitFeedback(context.Background(), mustStruct(t, map[string]any{
			"rating": "five",
		}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("validation errors map to InvalidArgument", func(t *testing.T) {
		fb := &mocks.MockFeedbackService{
			SubmitFunc: func(ctx context.Context, sub domain.Submission) (service.RecordView, error) {
				return service.RecordView{}, domain.NewValidationError("comment", "too short")
			},
		}
		h := newHandlers(fb, nil, nil)

		_, err := h.SubmitFeedback(context.Background(), mustStruct(t, map[string]any{"rating": 5, "comment": "ok"}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "comment")
	})
}

func TestRecordHandlers(t *testing.T) {
	t.Run("GetFeedback requires an id", func(t *testing.T) {
		h := newHandlers(nil, nil, nil)

		_, err := h.GetFeedback(context.Background(), mustStruct(t, map[string]any{"id": "  "}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = h.GetFeedback(context.Background(), nil)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("GetFeedback not found", func(t *testing.T) {
		fb := &mocks.MockFeedbackService{
			GetFunc: func(ctx context.Context, id string) (service.RecordView, error) {
				return service.RecordView{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
			},
		}
		h := newHandlers(fb, nil, nil)

		_, err := h.GetFeedback(context.Background(), mustStruct(t, map[string]any{"id": "missing"}))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("UpdateStatus rejects unknown statuses before calling the service", func(t *testing.T) {
		called := false
		fb := &mocks.MockFeedbackService{
			UpdateStatusFunc: func(ctx context.Context, id string, to domain.Status) (service.RecordView, error) {
				called = true
				return sampleView(), nil
			},
		}
		h := newHandlers(fb, nil, nil)

		_, err := h.UpdateStatus(context.Background(), mustStruct(t, map[string]any{"id": "fb-1", "status": "archived"}))

		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.False(t, called)
	})

	t.Run("UpdateStatus maps rejected transitions", func(t *testing.T) {
		fb := &mocks.MockFeedbackService{
			UpdateStatusFunc: func(ctx context.Context, id string, to domain.Status) (service.RecordView, error) {
				return service.RecordView{}, domain.ErrInvalidTransition
			},
		}
		h := newHandlers(fb, nil, nil)

		_, err := h.UpdateStatus(context.Background(), mustStruct(t, map[string]any{"id": "fb-1", "status": "pending"}))
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("RespondToFeedback passes the response through", func(t *testing.T) {
		var gotID string
		var got service.ResponseInput
		fb := &mocks.MockFeedbackService{
			RespondFunc: func(ctx context.Context, id string, in service.ResponseInput) (service.RecordView, error) {
				gotID, got = id, in
				return sampleView(), nil
			},
		}
		h := newHandlers(fb, nil, nil)

		_, err := h.RespondToFeedback(context.Background(), mustStruct(t, map[string]any{
			"id":          "fb-1",
			"response":    "We have added a second teller.",
			"respondedBy": "ops@bank.test",
			"note":        "called customer",
		}))

		require.NoError(t, err)
		assert.Equal(t, "fb-1", gotID)
		assert.Equal(t, service.ResponseInput{
			Response:    "We have added a second teller.",
			RespondedBy: "ops@bank.test",
			Note:        "called customer",
		}, got)
	})

	t.Run("ClassifyFeedback returns the analysis", func(t *testing.T) {
		fb := &mocks.MockFeedbackService{
			ClassifyFunc: func(ctx context.Context, id string) (domain.AnalysisResult, error) {
				return sampleView().Analysis.AnalysisResult, nil
			},
		}
		h := newHandlers(fb, nil, nil)

		resp, err := h.ClassifyFeedback(context.Background(), mustStruct(t, map[string]any{"id": "fb-1"}))

		require.NoError(t, err)
		assert.Equal(t, "high", resp.AsMap()["urgency"])
		assert.Equal(t, "heuristic", resp.AsMap()["method"])
	})

	t.Run("ReanalyzeFeedback requires ids", func(t *testing.T) {
		h := newHandlers(nil, nil, nil)

		_, err := h.ReanalyzeFeedback(context.Background(), mustStruct(t, map[string]any{"ids": []any{}}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("ReanalyzeFeedback returns per item outcomes", func(t *testing.T) {
		fb := &mocks.MockFeedbackService{
			ReanalyzeFunc: func(ctx context.Context, ids []string) (classifier.BatchResult, error) {
				assert.Equal(t, []string{"a", "b"}, ids)
				return classifier.BatchResult{
					Items: []classifier.BatchItem{
						{RecordID: "a", Success: true},
						{RecordID: "b", Error: "feedback not found: b"},
					},
					Total: 2, Succeeded: 1, Failed: 1,
				}, nil
			},
		}
		h := newHandlers(fb, nil, nil)

		resp, err := h.ReanalyzeFeedback(context.Background(), mustStruct(t, map[string]any{"ids": []any{"a", "b"}}))

		require.NoError(t, err)
		m := resp.AsMap()
		assert.Equal(t, float64(1), m["failed"])
		assert.Len(t, m["items"], 2)
	})
}

func TestReportHandlers(t *testing.T) {
	t.Run("filter fields are decoded", func(t *testing.T) {
		var got domain.ReportFilter
		in := &mocks.MockInsightsService{
			SentimentTrendsFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.SentimentTrends, error) {
				got = f
				return analytics.SentimentTrends{Period: f.Period}, nil
			},
		}
		h := newHandlers(nil, in, nil)

		_, err := h.GetSentimentTrends(context.Background(), mustStruct(t, map[string]any{
			"period":      "weekly",
			"serviceType": "ATM Services",
			"startDate":   "2025-05-01T00:00:00Z",
			"days":        14,
		}))

		require.NoError(t, err)
		assert.Equal(t, domain.PeriodWeekly, got.Period)
		assert.Equal(t, domain.ServiceATM, got.ServiceType)
		assert.Equal(t, 14, got.Days)
		require.NotNil(t, got.StartDate)
		assert.True(t, got.StartDate.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
		assert.Nil(t, got.EndDate)
	})

	t.Run("malformed dates are rejected", func(t *testing.T) {
		h := newHandlers(nil, nil, nil)

		_, err := h.GetPulseMetrics(context.Background(), mustStruct(t, map[string]any{"startDate": "last tuesday"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("list reports are wrapped and never null", func(t *testing.T) {
		in := &mocks.MockInsightsService{
			ServiceTypeMetricsFunc: func(ctx context.Context, f domain.ReportFilter) ([]analytics.ServiceTypeMetric, error) {
				return nil, nil
			},
			CategoryInsightsFunc: func(ctx context.Context, f domain.ReportFilter) ([]analytics.CategoryInsight, error) {
				return []analytics.CategoryInsight{{Category: domain.CategoryWaitTime, Count: 3}}, nil
			},
		}
		h := newHandlers(nil, in, nil)

		st, err := h.GetServiceTypeMetrics(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, []any{}, st.AsMap()["serviceTypes"])

		cat, err := h.GetCategoryInsights(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, cat.AsMap()["categories"], 1)
	})

	t.Run("service errors are mapped", func(t *testing.T) {
		in := &mocks.MockInsightsService{
			BranchComparisonFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.BranchComparison, error) {
				return analytics.BranchComparison{}, fmt.Errorf("%w: query: locked", service.ErrStorageFailure)
			},
			UrgencyDashboardFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.UrgencyDashboard, error) {
				return analytics.UrgencyDashboard{}, domain.NewValidationError("endDate", "must not be before startDate")
			},
		}
		h := newHandlers(nil, in, nil)

		_, err := h.GetBranchComparison(context.Background(), nil)
		assert.Equal(t, codes.Internal, status.Code(err))

		_, err = h.GetUrgencyDashboard(context.Background(), nil)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("every report method reaches its service", func(t *testing.T) {
		var calls atomic.Int32
		count := func() { calls.Add(1) }
		in := &mocks.MockInsightsService{
			SentimentOverviewFunc: func(context.Context, domain.ReportFilter) (analytics.SentimentOverview, error) {
				count()
				return analytics.SentimentOverview{}, nil
			},
			ServiceTypeMetricsFunc: func(context.Context, domain.ReportFilter) ([]analytics.ServiceTypeMetric, error) {
				count()
				return nil, nil
			},
			SentimentTrendsFunc: func(context.Context, domain.ReportFilter) (analytics.SentimentTrends, error) {
				count()
				return analytics.SentimentTrends{}, nil
			},
			CategoryInsightsFunc: func(context.Context, domain.ReportFilter) ([]analytics.CategoryInsight, error) {
				count()
				return nil, nil
			},
			EmotionAnalysisFunc: func(context.Context, domain.ReportFilter) (analytics.EmotionAnalysis, error) {
				count()
				return analytics.EmotionAnalysis{}, nil
			},
			UrgencyDashboardFunc: func(context.Context, domain.ReportFilter) (analytics.UrgencyDashboard, error) {
				count()
				return analytics.UrgencyDashboard{}, nil
			},
			PulseMetricsFunc: func(context.Context, domain.ReportFilter) (analytics.PulseMetrics, error) {
				count()
				return analytics.PulseMetrics{}, nil
			},
			ActionableInsightsFunc: func(context.Context, domain.ReportFilter) (analytics.ActionableInsights, error) {
				count()
				return analytics.ActionableInsights{}, nil
			},
			BranchComparisonFunc: func(context.Context, domain.ReportFilter) (analytics.BranchComparison, error) {
				count()
				return analytics.BranchComparison{}, nil
			},
		}
		h := newHandlers(nil, in, nil)
		ctx := context.Background()

		for _, call := range []func(context.Context, *structpb.Struct) (*structpb.Struct, error){
			h.GetSentimentOverview,
			h.GetServiceTypeMetrics,
			h.GetSentimentTrends,
			h.GetCategoryInsights,
			h.GetEmotionAnalysis,
			h.GetUrgencyDashboard,
			h.GetPulseMetrics,
			h.GetActionableInsights,
			h.GetBranchComparison,
		} {
			resp, err := call(ctx, nil)
			require.NoError(t, err)
			assert.NotNil(t, resp)
		}
		assert.Equal(t, int32(9), calls.Load())
	})
}

func TestReportCaching(t *testing.T) {
	t.Run("without a cache every call reaches the service", func(t *testing.T) {
		var calls atomic.Int32
		in := &mocks.MockInsightsService{
			PulseMetricsFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error) {
				calls.Add(1)
				return analytics.PulseMetrics{Total: 3}, nil
			},
		}
		h := newHandlers(nil, in, nil)

		for i := 0; i < 3; i++ {
			_, err := h.GetPulseMetrics(context.Background(), nil)
			require.NoError(t, err)
		}
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("cached value is served on the next call", func(t *testing.T) {
		var calls atomic.Int32
		in := &mocks.MockInsightsService{
			SentimentOverviewFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.SentimentOverview, error) {
				n := calls.Add(1)
				return analytics.SentimentOverview{Total: int(n)}, nil
			},
		}
		cache := &mocks.MockCacher{}
		h := newHandlers(nil, in, cache)
		req := mustStruct(t, map[string]any{"serviceType": "Mobile App"})

		first, err := h.GetSentimentOverview(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, float64(1), first.AsMap()["total"])

		require.Eventually(t, func() bool { return len(cache.SetKeys()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, normalizeKey(cacheKeySentimentOverview, domain.ReportFilter{ServiceType: domain.ServiceMobileApp}), cache.SetKeys()[0])

		second, err := h.GetSentimentOverview(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, float64(1), second.AsMap()["total"])
	})

	t.Run("cache read errors fall back to the service", func(t *testing.T) {
		cache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				return errors.New("connection refused")
			},
		}
		in := &mocks.MockInsightsService{
			EmotionAnalysisFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.EmotionAnalysis, error) {
				return analytics.EmotionAnalysis{TotalMentions: 4}, nil
			},
		}
		h := newHandlers(nil, in, cache)

		resp, err := h.GetEmotionAnalysis(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, float64(4), resp.AsMap()["totalMentions"])
	})

	t.Run("errors are not cached", func(t *testing.T) {
		cache := &mocks.MockCacher{}
		in := &mocks.MockInsightsService{
			PulseMetricsFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error) {
				return analytics.PulseMetrics{}, fmt.Errorf("%w: query", service.ErrStorageFailure)
			},
		}
		h := newHandlers(nil, in, cache)

		_, err := h.GetPulseMetrics(context.Background(), nil)

		assert.Equal(t, codes.Internal, status.Code(err))
		time.Sleep(20 * time.Millisecond)
		assert.Empty(t, cache.SetKeys())
	})
}

func TestAddTTLJitter(t *testing.T) {
	for i := 0; i < 50; i++ {
		ttl := addTTLJitter(time.Minute)
		assert.GreaterOrEqual(t, ttl, 54*time.Second)
		assert.LessOrEqual(t, ttl, 66*time.Second)
	}
	assert.Equal(t, time.Duration(0), addTTLJitter(0))
}

func TestServiceDescOverTheWire(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	fb := &mocks.MockFeedbackService{
		GetFunc: func(ctx context.Context, id string) (service.RecordView, error) {
			if id != "fb-1" {
				return service.RecordView{}, domain.ErrNotFound
			}
			return sampleView(), nil
		},
	}
	in := &mocks.MockInsightsService{
		PulseMetricsFunc: func(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error) {
			return analytics.PulseMetrics{Days: f.Days, Total: 5, CSAT: 60}, nil
		},
	}
	RegisterFeedbackInsightsServer(srv, newHandlers(fb, in, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := NewClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("record lookup", func(t *testing.T) {
		var view service.RecordView
		err := client.Call(ctx, MethodGetFeedback, map[string]any{"id": "fb-1"}, &view)

		require.NoError(t, err)
		assert.Equal(t, "fb-1", view.ID)
		assert.Equal(t, domain.SentimentNegative, view.Analysis.Sentiment)
	})

	t.Run("status codes survive the wire", func(t *testing.T) {
		err := client.Call(ctx, MethodGetFeedback, map[string]any{"id": "nope"}, nil)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("report", func(t *testing.T) {
		var pulse analytics.PulseMetrics
		err := client.Call(ctx, MethodGetPulseMetrics, domain.ReportFilter{Days: 7}, &pulse)

		require.NoError(t, err)
		assert.Equal(t, 7, pulse.Days)
		assert.Equal(t, 60.0, pulse.CSAT)
	})
}

func TestSlowProviderFallsBackWithinRequestBudget(t *testing.T) {
	hanging := &classifiermocks.MockProvider{
		ClassifyFunc: func(ctx context.Context, req classifier.Request) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	pipeline := classifier.NewPipeline(
		classifier.NewAIClassifier(hanging, nil, classifier.WithTimeout(100*time.Millisecond)),
		classifier.WithBatchDelay(0),
	)

	stored := domain.FeedbackRecord{
		ID:          "fb-slow",
		Rating:      1,
		Comment:     "The transfer failed twice this morning",
		ServiceType: domain.ServiceMobileApp,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	store := &storemocks.MockFeedbackStore{
		InsertFunc: func(ctx context.Context, rec *domain.FeedbackRecord) error {
			rec.ID = "fb-new"
			return ctx.Err()
		},
		GetByIDFunc: func(ctx context.Context, id string) (domain.FeedbackRecord, error) {
			return stored, ctx.Err()
		},
		SaveAnalysisFunc: func(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error {
			return ctx.Err()
		},
	}

	fb := service.NewFeedbackService(store, pipeline, zap.NewNop())
	h := NewFeedbackHandlers(fb, &mocks.MockInsightsService{}, nil, zap.NewNop(), time.Minute,
		WithRequestTimeout(time.Second))

	t.Run("submit stores the heuristic result", func(t *testing.T) {
		start := time.Now()
		resp, err := h.SubmitFeedback(context.Background(), mustStruct(t, map[string]any{
			"rating":      1,
			"comment":     "The transfer failed twice this morning",
			"serviceType": "Mobile App",
		}))

		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
		analysis := resp.AsMap()["analysis"].(map[string]any)
		assert.Equal(t, string(domain.MethodHeuristic), analysis["method"])
		assert.Equal(t, 20.0, analysis["sentimentScore"])
	})

	t.Run("classify saves the heuristic result", func(t *testing.T) {
		resp, err := h.ClassifyFeedback(context.Background(), mustStruct(t, map[string]any{"id": "fb-slow"}))

		require.NoError(t, err)
		assert.Equal(t, string(domain.MethodHeuristic), resp.AsMap()["method"])
	})

	t.Run("a budget shorter than the classifier timeout fails the call", func(t *testing.T) {
		tight := NewFeedbackHandlers(fb, &mocks.MockInsightsService{}, nil, zap.NewNop(), time.Minute,
			WithRequestTimeout(50*time.Millisecond))

		_, err := tight.SubmitFeedback(context.Background(), mustStruct(t, map[string]any{
			"rating":  1,
			"comment": "The transfer failed twice this morning",
		}))

		assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
	})
}
