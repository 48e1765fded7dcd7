package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	ClassificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_classifications_total",
		Help: "Classifications produced, by method (ai or heuristic).",
	}, []string{"method"})

	ClassificationFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_classification_fallbacks_total",
		Help: "AI classifications that fell back to the heuristic path, by reason.",
	}, []string{"reason"})

	AIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedback_ai_request_duration_seconds",
		Help:    "Latency of external AI classification requests.",
		Buckets: []float64{.1, .25, .5, 1, 2, 4, 8, 15, 30},
	}, []string{"status"})

	BatchItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_batch_items_total",
		Help: "Batch classification items, by outcome.",
	}, []string{"outcome"})

	ReportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedback_report_duration_seconds",
		Help:    "Time spent building a report, including the store query.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report", "status"})

	ReportCacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_report_cache_lookups_total",
		Help: "Report cache lookups, by result (hit, miss or error).",
	}, []string{"result"})

	RPCDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedback_rpc_duration_seconds",
		Help:    "Unary RPC latency, by full method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})
)

// MustRegister registers every collector of this package.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		ClassificationsTotal,
		ClassificationFallbacksTotal,
		AIRequestDuration,
		BatchItemsTotal,
		ReportDuration,
		ReportCacheLookupsTotal,
		RPCDuration,
	)
}

func ObserveClassification(method string) {
	ClassificationsTotal.WithLabelValues(method).Inc()
}

func ObserveFallback(reason string) {
	ClassificationFallbacksTotal.WithLabelValues(reason).Inc()
}

func ObserveAIRequest(start time.Time, err error) {
	AIRequestDuration.WithLabelValues(statusLabel(err)).Observe(time.Since(start).Seconds())
}

func ObserveBatchItem(ok bool) {
	outcome := "succeeded"
	if !ok {
		outcome = "failed"
	}
	BatchItemsTotal.WithLabelValues(outcome).Inc()
}

func ObserveReport(report string, start time.Time, err error) {
	ReportDuration.WithLabelValues(report, statusLabel(err)).Observe(time.Since(start).Seconds())
}

func ObserveCacheLookup(result string) {
	ReportCacheLookupsTotal.WithLabelValues(result).Inc()
}

// UnaryServerInterceptor records every unary call in RPCDuration.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		RPCDuration.WithLabelValues(info.FullMethod, status.Code(err).String()).
			Observe(time.Since(start).Seconds())
		return resp, err
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// StartServer serves /metrics on addr until ctx is done.
func StartServer(ctx context.Context, logger *zap.Logger, addr string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
