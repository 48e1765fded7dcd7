package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/godilite/feedback-insights/internal/domain"
	"github.com/godilite/feedback-insights/internal/repository/models"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert stores a new record, assigning an ID when it has none.
func (s *FeedbackRepository) Insert(ctx context.Context, rec *domain.FeedbackRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row, err := models.FromRecord(*rec)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.ID, err)
	}

	query, args, err := squirrel.Insert(table).
		Columns(models.Columns...).
		Values(row.Values()...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec insert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *FeedbackRepository) GetByID(ctx context.Context, id string) (domain.FeedbackRecord, error) {
	query, args, err := squirrel.Select(models.Columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.FeedbackRecord{}, fmt.Errorf("build GetByID: %w", err)
	}

	var row models.FeedbackRow
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(row.ScanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeedbackRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return domain.FeedbackRecord{}, fmt.Errorf("query GetByID: %w", err)
	}
	return row.ToRecord()
}

// Query returns the records matching q, newest first unless q.OldestFirst.
func (s *FeedbackRepository) Query(ctx context.Context, q domain.RecordQuery) ([]domain.FeedbackRecord, error) {
	query, args, err := buildQuery(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query Query: %w", err)
	}
	defer rows.Close()

	var results []domain.FeedbackRecord
	for rows.Next() {
		var row models.FeedbackRow
		if err := rows.Scan(row.ScanTargets()...); err != nil {
			return nil, fmt.Errorf("scan Query row: %w", err)
		}
		rec, err := row.ToRecord()
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate Query: %w", err)
	}
	return results, nil
}

func buildQuery(q domain.RecordQuery) squirrel.SelectBuilder {
	sb := squirrel.Select(models.Columns...).From(table)

	if q.Start != nil {
		sb = sb.Where(squirrel.GtOrEq{"created_at": models.FormatTime(*q.Start)})
	}
	if q.End != nil {
		sb = sb.Where(squirrel.LtOrEq{"created_at": models.FormatTime(*q.End)})
	}
	if q.ServiceType != "" {
		sb = sb.Where(squirrel.Eq{"service_type": string(q.ServiceType)})
	}
	if q.Branch != "" {
		sb = sb.Where(squirrel.Eq{"branch": q.Branch})
	}
	if q.Urgency != "" {
		sb = sb.Where(squirrel.Expr("COALESCE(NULLIF(urgency, ''), 'low') = ?", string(q.Urgency)))
	}
	if q.Category != "" {
		sb = sb.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM json_each(feedback.categories) WHERE json_each.value = ?)", string(q.Category)))
	}
	if len(q.ExcludeStatuses) > 0 {
		statuses := make([]string, len(q.ExcludeStatuses))
		for i, st := range q.ExcludeStatuses {
			statuses[i] = string(st)
		}
		sb = sb.Where(squirrel.NotEq{"status": statuses})
	}
	if q.OnlyClassified {
		sb = sb.Where(squirrel.NotEq{"sentiment": ""})
	}
	if q.OnlyUnclassified {
		sb = sb.Where(squirrel.Eq{"sentiment": ""})
	}
	if q.WithInsights {
		sb = sb.Where(squirrel.NotEq{"actionable_insights": ""})
	}

	if q.OldestFirst {
		sb = sb.OrderBy("created_at ASC", "id ASC")
	} else {
		sb = sb.OrderBy("created_at DESC", "id ASC")
	}
	if q.Limit > 0 {
		sb = sb.Limit(uint64(q.Limit))
		if q.Offset > 0 {
			sb = sb.Offset(uint64(q.Offset))
		}
	}
	return sb
}

// SaveAnalysis attaches a classification result to a record.
func (s *FeedbackRepository) SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, at time.Time) error {
	categories, err := models.EncodeList(res.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	emotions, err := models.EncodeList(res.Emotions)
	if err != nil {
		return fmt.Errorf("encode emotions: %w", err)
	}

	ts := models.FormatTime(at)
	return s.update(ctx, "SaveAnalysis", squirrel.Update(table).
		Set("sentiment", string(res.Sentiment)).
		Set("sentiment_score", res.SentimentScore).
		Set("categories", categories).
		Set("emotions", emotions).
		Set("urgency", string(res.Urgency)).
		Set("actionable_insights", res.ActionableInsights).
		Set("confidence_score", res.ConfidenceScore).
		Set("analysis_method", string(res.Method)).
		Set("analyzed_at", ts).
		Set("updated_at", ts).
		Where(squirrel.Eq{"id": id}), id)
}

// UpdateStatus moves a record from one status to another. The change only
// applies if the record still has status from.
func (s *FeedbackRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) error {
	ub := squirrel.Update(table).
		Set("status", string(to)).
		Set("updated_at", models.FormatTime(at)).
		Where(squirrel.Eq{"id": id, "status": string(from)})
	if to == domain.StatusResolved {
		ub = ub.Set("resolved_at", models.FormatTime(at))
	}

	err := s.update(ctx, "UpdateStatus", ub, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s is no longer %s", domain.ErrInvalidTransition, id, from)
	}
	return err
}

// SaveResponse stores a staff response and replaces the internal notes.
func (s *FeedbackRepository) SaveResponse(ctx context.Context, id, response, respondedBy string, notes []string, at time.Time) error {
	encoded, err := models.EncodeList(notes)
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}

	ts := models.FormatTime(at)
	return s.update(ctx, "SaveResponse", squirrel.Update(table).
		Set("response", response).
		Set("responded_by", respondedBy).
		Set("responded_at", ts).
		Set("internal_notes", encoded).
		Set("updated_at", ts).
		Where(squirrel.Eq{"id": id}), id)
}

// ListUnclassified returns up to limit open records still missing an
// analysis, oldest first.
func (s *FeedbackRepository) ListUnclassified(ctx context.Context, limit int) ([]domain.FeedbackRecord, error) {
	return s.Query(ctx, domain.RecordQuery{
		ExcludeStatuses:  []domain.Status{domain.StatusClosed},
		OnlyUnclassified: true,
		OldestFirst:      true,
		Limit:            limit,
	})
}

func (s *FeedbackRepository) update(ctx context.Context, op string, ub squirrel.UpdateBuilder, id string) error {
	query, args, err := ub.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}
