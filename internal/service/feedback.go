package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/classifier"
	"github.com/godilite/feedback-insights/internal/domain"
)

const (
	dbTimeout         = 2 * time.Second
	maxReanalyzeBatch = 100
	maxResponseLength = 2000
	maxNoteLength     = 1000
)

// FeedbackService handles submission, classification and the staff
// workflow of individual records.
type FeedbackService struct {
	store    FeedbackStore
	pipeline Pipeline
	logger   *zap.Logger
	now      func() time.Time
}

type FeedbackOption func(*FeedbackService)

func WithFeedbackClock(now func() time.Time) FeedbackOption {
	return func(s *FeedbackService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(store FeedbackStore, pipeline Pipeline, logger *zap.Logger, opts ...FeedbackOption) *FeedbackService {
	if store == nil {
		panic("store must not be nil")
	}
	if pipeline == nil {
		panic("pipeline must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &FeedbackService{
		store:    store,
		pipeline: pipeline,
		logger:   logger.Named("feedback"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FeedbackService) view(rec domain.FeedbackRecord) RecordView {
	return RecordView{FeedbackRecord: rec, Flags: domain.Flags(rec, s.now())}
}

// Submit validates a submission, classifies it and stores the result.
// Invalid input is rejected before any classification is attempted.
func (s *FeedbackService) Submit(ctx context.Context, sub domain.Submission) (RecordView, error) {
	sub = sub.Clean()
	if err := sub.Validate(); err != nil {
		return RecordView{}, err
	}

	now := s.now().UTC()
	rec := domain.FeedbackRecord{
		Rating:        sub.Rating,
		Comment:       sub.Comment,
		ServiceType:   sub.ServiceType,
		Branch:        sub.Branch,
		CustomerName:  sub.CustomerName,
		CustomerEmail: sub.CustomerEmail,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rec.Apply(s.pipeline.ClassifyOne(ctx, rec), s.now())

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := s.store.Insert(dbCtx, &rec); err != nil {
		s.logger.Error("failed to store feedback", zap.Error(err))
		return RecordView{}, storeErr("insert", err)
	}

	s.logger.Info("feedback submitted",
		zap.String("id", rec.ID),
		zap.Int("rating", rec.Rating),
		zap.String("sentiment", string(rec.Analysis.Sentiment)),
		zap.String("urgency", string(rec.Analysis.Urgency)),
		zap.String("method", string(rec.Analysis.Method)))
	return s.view(rec), nil
}

func (s *FeedbackService) get(ctx context.Context, id string) (domain.FeedbackRecord, error) {
	if strings.TrimSpace(id) == "" {
		return domain.FeedbackRecord{}, domain.NewValidationError("id", "is required")
	}
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rec, err := s.store.GetByID(dbCtx, id)
	if err != nil {
		return domain.FeedbackRecord{}, storeErr("get", err)
	}
	return rec, nil
}

// Get returns a record with its priority flags.
func (s *FeedbackService) Get(ctx context.Context, id string) (RecordView, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return RecordView{}, err
	}
	return s.view(rec), nil
}

// UpdateStatus moves a record along the status workflow.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id string, to domain.Status) (RecordView, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return RecordView{}, err
	}
	if err := domain.CheckTransition(rec.Status, to); err != nil {
		return RecordView{}, err
	}

	now := s.now().UTC()
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := s.store.UpdateStatus(dbCtx, id, rec.Status, to, now); err != nil {
		return RecordView{}, storeErr("update status", err)
	}

	s.logger.Info("feedback status changed",
		zap.String("id", id),
		zap.String("from", string(rec.Status)),
		zap.String("to", string(to)))

	rec.Status = to
	rec.UpdatedAt = now
	if to == domain.StatusResolved {
		rec.ResolvedAt = &now
	}
	return s.view(rec), nil
}

// Respond records a staff response and optionally appends an internal note.
func (s *FeedbackService) Respond(ctx context.Context, id string, in ResponseInput) (RecordView, error) {
	in.Response = strings.TrimSpace(in.Response)
	in.RespondedBy = strings.TrimSpace(in.RespondedBy)
	in.Note = strings.TrimSpace(in.Note)
	if err := validateResponse(in); err != nil {
		return RecordView{}, err
	}

	rec, err := s.get(ctx, id)
	if err != nil {
		return RecordView{}, err
	}

	notes := rec.InternalNotes
	if in.Note != "" {
		notes = append(append([]string(nil), notes...), in.Note)
	}

	now := s.now().UTC()
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := s.store.SaveResponse(dbCtx, id, in.Response, in.RespondedBy, notes, now); err != nil {
		return RecordView{}, storeErr("save response", err)
	}

	rec.Response = in.Response
	rec.RespondedBy = in.RespondedBy
	rec.RespondedAt = &now
	rec.InternalNotes = notes
	rec.UpdatedAt = now
	return s.view(rec), nil
}

func validateResponse(in ResponseInput) error {
	verr := &domain.ValidationError{Fields: map[string]string{}}
	switch {
	case in.Response == "":
		verr.Fields["response"] = "is required"
	case len([]rune(in.Response)) > maxResponseLength:
		verr.Fields["response"] = fmt.Sprintf("must be at most %d characters", maxResponseLength)
	}
	if in.RespondedBy == "" {
		verr.Fields["respondedBy"] = "is required"
	}
	if len([]rune(in.Note)) > maxNoteLength {
		verr.Fields["note"] = fmt.Sprintf("must be at most %d characters", maxNoteLength)
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Classify runs the pipeline for one stored record and persists the result.
func (s *FeedbackService) Classify(ctx context.Context, id string) (domain.AnalysisResult, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	res := s.pipeline.ClassifyOne(ctx, rec)

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := s.store.SaveAnalysis(dbCtx, id, res, s.now()); err != nil {
		return domain.AnalysisResult{}, storeErr("save analysis", err)
	}
	return res, nil
}

// Reanalyze classifies the given records in one throttled batch. Unknown
// ids become failed items; they do not fail the call.
func (s *FeedbackService) Reanalyze(ctx context.Context, ids []string) (classifier.BatchResult, error) {
	if len(ids) == 0 {
		return classifier.BatchResult{}, domain.NewValidationError("ids", "at least one id is required")
	}
	if len(ids) > maxReanalyzeBatch {
		return classifier.BatchResult{}, domain.NewValidationError("ids", fmt.Sprintf("at most %d ids per batch", maxReanalyzeBatch))
	}

	found := make([]domain.FeedbackRecord, 0, len(ids))
	lookup := make([]*classifier.BatchItem, len(ids))
	for i, id := range ids {
		rec, err := s.get(ctx, id)
		if err != nil {
			if !isMissing(err) {
				return classifier.BatchResult{}, err
			}
			lookup[i] = &classifier.BatchItem{RecordID: id, Err: err, Error: err.Error()}
			continue
		}
		found = append(found, rec)
	}

	batch := s.pipeline.ClassifyBatch(ctx, found)

	out := classifier.BatchResult{Items: make([]classifier.BatchItem, 0, len(ids)), Total: len(ids)}
	next := 0
	for _, failed := range lookup {
		var item classifier.BatchItem
		if failed != nil {
			item = *failed
		} else {
			item = batch.Items[next]
			next++
		}
		if item.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
		out.Items = append(out.Items, item)
	}

	s.logger.Info("reanalysis finished",
		zap.Int("total", out.Total),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed))
	return out, nil
}

// Backfill classifies up to limit open records that have no analysis yet.
func (s *FeedbackService) Backfill(ctx context.Context, limit int) (classifier.BatchResult, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	recs, err := s.store.ListUnclassified(dbCtx, limit)
	cancel()
	if err != nil {
		return classifier.BatchResult{}, storeErr("list unclassified", err)
	}
	if len(recs) == 0 {
		return classifier.BatchResult{}, nil
	}
	return s.pipeline.ClassifyBatch(ctx, recs), nil
}
