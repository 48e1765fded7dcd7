package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/godilite/feedback-insights/internal/domain"
)

// TimeLayout is fixed width so stored timestamps sort lexicographically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := ParseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FeedbackRow mirrors one row of the feedback table.
type FeedbackRow struct {
	ID                 string
	Rating             int
	Comment            string
	ServiceType        string
	Branch             string
	CustomerName       string
	CustomerEmail      string
	Status             string
	Sentiment          string
	SentimentScore     int
	Categories         string
	Emotions           string
	Urgency            string
	ActionableInsights string
	ConfidenceScore    int
	AnalysisMethod     string
	AnalyzedAt         sql.NullString
	Response           string
	RespondedBy        string
	RespondedAt        sql.NullString
	InternalNotes      string
	ResolvedAt         sql.NullString
	CreatedAt          string
	UpdatedAt          string
}

// Columns lists the table columns in ScanTargets/Values order.
var Columns = []string{
	"id", "rating", "comment", "service_type", "branch", "customer_name", "customer_email", "status",
	"sentiment", "sentiment_score", "categories", "emotions", "urgency", "actionable_insights",
	"confidence_score", "analysis_method", "analyzed_at",
	"response", "responded_by", "responded_at", "internal_notes", "resolved_at",
	"created_at", "updated_at",
}

func (r *FeedbackRow) ScanTargets() []any {
	return []any{
		&r.ID, &r.Rating, &r.Comment, &r.ServiceType, &r.Branch, &r.CustomerName, &r.CustomerEmail, &r.Status,
		&r.Sentiment, &r.SentimentScore, &r.Categories, &r.Emotions, &r.Urgency, &r.ActionableInsights,
		&r.ConfidenceScore, &r.AnalysisMethod, &r.AnalyzedAt,
		&r.Response, &r.RespondedBy, &r.RespondedAt, &r.InternalNotes, &r.ResolvedAt,
		&r.CreatedAt, &r.UpdatedAt,
	}
}

func (r FeedbackRow) Values() []any {
	return []any{
		r.ID, r.Rating, r.Comment, r.ServiceType, r.Branch, r.CustomerName, r.CustomerEmail, r.Status,
		r.Sentiment, r.SentimentScore, r.Categories, r.Emotions, r.Urgency, r.ActionableInsights,
		r.ConfidenceScore, r.AnalysisMethod, r.AnalyzedAt,
		r.Response, r.RespondedBy, r.RespondedAt, r.InternalNotes, r.ResolvedAt,
		r.CreatedAt, r.UpdatedAt,
	}
}

// EncodeList stores a label set as a JSON array; nil becomes [].
func EncodeList[T ~string](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList[T ~string](s string) ([]T, error) {
	if s == "" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func FromRecord(rec domain.FeedbackRecord) (FeedbackRow, error) {
	a := rec.Analysis
	categories, err := EncodeList(a.Categories)
	if err != nil {
		return FeedbackRow{}, fmt.Errorf("encode categories: %w", err)
	}
	emotions, err := EncodeList(a.Emotions)
	if err != nil {
		return FeedbackRow{}, fmt.Errorf("encode emotions: %w", err)
	}
	notes, err := EncodeList(rec.InternalNotes)
	if err != nil {
		return FeedbackRow{}, fmt.Errorf("encode notes: %w", err)
	}

	return FeedbackRow{
		ID:                 rec.ID,
		Rating:             rec.Rating,
		Comment:            rec.Comment,
		ServiceType:        string(rec.ServiceType),
		Branch:             rec.Branch,
		CustomerName:       rec.CustomerName,
		CustomerEmail:      rec.CustomerEmail,
		Status:             string(rec.Status),
		Sentiment:          string(a.Sentiment),
		SentimentScore:     a.SentimentScore,
		Categories:         categories,
		Emotions:           emotions,
		Urgency:            string(a.Urgency),
		ActionableInsights: a.ActionableInsights,
		ConfidenceScore:    a.ConfidenceScore,
		AnalysisMethod:     string(a.Method),
		AnalyzedAt:         nullTime(a.AnalyzedAt),
		Response:           rec.Response,
		RespondedBy:        rec.RespondedBy,
		RespondedAt:        nullTime(rec.RespondedAt),
		InternalNotes:      notes,
		ResolvedAt:         nullTime(rec.ResolvedAt),
		CreatedAt:          FormatTime(rec.CreatedAt),
		UpdatedAt:          FormatTime(rec.UpdatedAt),
	}, nil
}

func (r FeedbackRow) ToRecord() (domain.FeedbackRecord, error) {
	rec := domain.FeedbackRecord{
		ID:            r.ID,
		Rating:        r.Rating,
		Comment:       r.Comment,
		ServiceType:   domain.ServiceType(r.ServiceType),
		Branch:        r.Branch,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Status:        domain.Status(r.Status),
		Response:      r.Response,
		RespondedBy:   r.RespondedBy,
	}
	rec.Analysis.Sentiment = domain.Sentiment(r.Sentiment)
	rec.Analysis.SentimentScore = r.SentimentScore
	rec.Analysis.Urgency = domain.Urgency(r.Urgency)
	rec.Analysis.ActionableInsights = r.ActionableInsights
	rec.Analysis.ConfidenceScore = r.ConfidenceScore
	rec.Analysis.Method = domain.Method(r.AnalysisMethod)

	var err error
	if rec.Analysis.Categories, err = decodeList[domain.Category](r.Categories); err != nil {
		return rec, fmt.Errorf("decode categories of %s: %w", r.ID, err)
	}
	if rec.Analysis.Emotions, err = decodeList[domain.Emotion](r.Emotions); err != nil {
		return rec, fmt.Errorf("decode emotions of %s: %w", r.ID, err)
	}
	if rec.InternalNotes, err = decodeList[string](r.InternalNotes); err != nil {
		return rec, fmt.Errorf("decode notes of %s: %w", r.ID, err)
	}
	if rec.Analysis.AnalyzedAt, err = parseNullTime(r.AnalyzedAt); err != nil {
		return rec, fmt.Errorf("parse analyzed_at of %s: %w", r.ID, err)
	}
	if rec.RespondedAt, err = parseNullTime(r.RespondedAt); err != nil {
		return rec, fmt.Errorf("parse responded_at of %s: %w", r.ID, err)
	}
	if rec.ResolvedAt, err = parseNullTime(r.ResolvedAt); err != nil {
		return rec, fmt.Errorf("parse resolved_at of %s: %w", r.ID, err)
	}
	if rec.CreatedAt, err = ParseTime(r.CreatedAt); err != nil {
		return rec, fmt.Errorf("parse created_at of %s: %w", r.ID, err)
	}
	if rec.UpdatedAt, err = ParseTime(r.UpdatedAt); err != nil {
		return rec, fmt.Errorf("parse updated_at of %s: %w", r.ID, err)
	}
	return rec, nil
}
