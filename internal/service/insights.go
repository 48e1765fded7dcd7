package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/metrics"
)

const reportTimeout = 5 * time.Second

// InsightsService fetches the records for a report filter and hands them to
// the analytics package. Closed records are excluded from every query.
type InsightsService struct {
	store  FeedbackStore
	logger *zap.Logger
	now    func() time.Time
}

type InsightsOption func(*InsightsService)

func WithInsightsClock(now func() time.Time) InsightsOption {
	return func(s *InsightsService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInsightsService creates a new InsightsService instance.
func NewInsightsService(store FeedbackStore, logger *zap.Logger, opts ...InsightsOption) *InsightsService {
	if store == nil {
		panic("store must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &InsightsService{
		store:  store,
		logger: logger.Named("insights"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// visibleQuery composes the filter predicates with the standing closed-record
// exclusion.
func visibleQuery(f domain.ReportFilter, start, end *time.Time) domain.RecordQuery {
	return domain.RecordQuery{
		Start:           start,
		End:             end,
		ServiceType:     f.ServiceType,
		Branch:          f.Branch,
		Urgency:         f.Urgency,
		Category:        f.Category,
		ExcludeStatuses: []domain.Status{domain.StatusClosed},
	}
}

func (s *InsightsService) windowQuery(f domain.ReportFilter) domain.RecordQuery {
	start, end := f.Window(s.now())
	return visibleQuery(f, &start, &end)
}

func (s *InsightsService) fetch(ctx context.Context, report string, q domain.RecordQuery) ([]domain.FeedbackRecord, error) {
	dbCtx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	recs, err := s.store.Query(dbCtx, q)
	if err != nil {
		s.logger.Error("report query failed", zap.String("report", report), zap.Error(err))
		return nil, storeErr(report, err)
	}
	s.logger.Debug("report records fetched", zap.String("report", report), zap.Int("records", len(recs)))
	return recs, nil
}

// run validates the filter, fetches the records and times the whole report.
func run[T any](ctx context.Context, s *InsightsService, report string, f domain.ReportFilter, q func() domain.RecordQuery, build func([]domain.FeedbackRecord) T) (out T, err error) {
	start := time.Now()
	defer func() { metrics.ObserveReport(report, start, err) }()

	if err = f.Validate(); err != nil {
		return out, err
	}
	recs, err := s.fetch(ctx, report, q())
	if err != nil {
		return out, err
	}
	return build(recs), nil
}

func (s *InsightsService) SentimentOverview(ctx context.Context, f domain.ReportFilter) (analytics.SentimentOverview, error) {
	return run(ctx, s, analytics.ReportSentimentOverview, f,
		func() domain.RecordQuery {
			q := s.windowQuery(f)
			q.OnlyClassified = true
			return q
		},
		analytics.ComputeSentimentOverview)
}

func (s *InsightsService) ServiceTypeMetrics(ctx context.Context, f domain.ReportFilter) ([]analytics.ServiceTypeMetric, error) {
	return run(ctx, s, analytics.ReportServiceTypeMetrics, f,
		func() domain.RecordQuery {
			q := s.windowQuery(f)
			q.OnlyClassified = true
			return q
		},
		analytics.ComputeServiceTypeMetrics)
}

// SentimentTrends uses a trailing window of f.Days days instead of the date
// range.
func (s *InsightsService) SentimentTrends(ctx context.Context, f domain.ReportFilter) (analytics.SentimentTrends, error) {
	start, end, days := f.TrailingWindow(s.now())
	period := f.Period
	if period == "" {
		period = domain.PeriodDaily
	}
	return run(ctx, s, analytics.ReportSentimentTrends, f,
		func() domain.RecordQuery {
			q := visibleQuery(f, &start, &end)
			q.OnlyClassified = true
			return q
		},
		func(recs []domain.FeedbackRecord) analytics.SentimentTrends {
			return analytics.SentimentTrends{
				Period: period,
				Days:   days,
				Start:  start,
				End:    end,
				Trends: analytics.ComputeSentimentTrends(recs, period, start, end),
			}
		})
}

func (s *InsightsService) CategoryInsights(ctx context.Context, f domain.ReportFilter) ([]analytics.CategoryInsight, error) {
	return run(ctx, s, analytics.ReportCategoryInsights, f,
		func() domain.RecordQuery {
			q := s.windowQuery(f)
			q.OnlyClassified = true
			return q
		},
		func(recs []domain.FeedbackRecord) []analytics.CategoryInsight {
			return analytics.ComputeCategoryInsights(recs, f.MinCount)
		})
}

func (s *InsightsService) EmotionAnalysis(ctx context.Context, f domain.ReportFilter) (analytics.EmotionAnalysis, error) {
	return run(ctx, s, analytics.ReportEmotionAnalysis, f,
		func() domain.RecordQuery {
			q := s.windowQuery(f)
			q.OnlyClassified = true
			return q
		},
		func(recs []domain.FeedbackRecord) analytics.EmotionAnalysis {
			return analytics.ComputeEmotionAnalysis(recs, f.MinCount)
		})
}

// UrgencyDashboard covers the whole open backlog unless dates are given.
func (s *InsightsService) UrgencyDashboard(ctx context.Context, f domain.ReportFilter) (analytics.UrgencyDashboard, error) {
	now := s.now()
	return run(ctx, s, analytics.ReportUrgencyDashboard, f,
		func() domain.RecordQuery { return visibleQuery(f, f.StartDate, f.EndDate) },
		func(recs []domain.FeedbackRecord) analytics.UrgencyDashboard {
			return analytics.ComputeUrgencyDashboard(recs, now)
		})
}

func (s *InsightsService) PulseMetrics(ctx context.Context, f domain.ReportFilter) (analytics.PulseMetrics, error) {
	start, end, days := f.TrailingWindow(s.now())
	return run(ctx, s, analytics.ReportPulseMetrics, f,
		func() domain.RecordQuery { return visibleQuery(f, &start, &end) },
		func(recs []domain.FeedbackRecord) analytics.PulseMetrics {
			return analytics.ComputePulseMetrics(recs, days)
		})
}

func (s *InsightsService) ActionableInsights(ctx context.Context, f domain.ReportFilter) (analytics.ActionableInsights, error) {
	now := s.now()
	return run(ctx, s, analytics.ReportActionableInsights, f,
		func() domain.RecordQuery {
			q := s.windowQuery(f)
			q.WithInsights = true
			return q
		},
		func(recs []domain.FeedbackRecord) analytics.ActionableInsights {
			return analytics.ComputeActionableInsights(recs, f.Urgency, f.ServiceType, f.Limit, now)
		})
}

func (s *InsightsService) BranchComparison(ctx context.Context, f domain.ReportFilter) (analytics.BranchComparison, error) {
	return run(ctx, s, analytics.ReportBranchComparison, f,
		func() domain.RecordQuery {
			q := s.windowQuery(f)
			q.OnlyClassified = true
			return q
		},
		analytics.ComputeBranchComparison)
}
