package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/godilite/feedback-insights/internal/domain"
)

const manualReviewInsight = "No actionable insight was generated for this feedback; review it manually."

// Candidate is an unvalidated classifier output. Nil numbers mean the field
// was absent.
type Candidate struct {
	Sentiment          string
	SentimentScore     *float64
	Categories         []string
	Emotions           []string
	Urgency            string
	ActionableInsights string
	ConfidenceScore    *float64
}

// ShapeError reports a structural problem with an AI response.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Field == "" {
		return "malformed analysis: " + e.Reason
	}
	return fmt.Sprintf("malformed analysis field %q: %s", e.Field, e.Reason)
}

type untrustedAnalysis struct {
	Sentiment          json.RawMessage `json:"sentiment"`
	SentimentScore     json.RawMessage `json:"sentimentScore"`
	Categories         json.RawMessage `json:"categories"`
	Emotions           json.RawMessage `json:"emotions"`
	Urgency            json.RawMessage `json:"urgency"`
	ActionableInsights json.RawMessage `json:"actionableInsights"`
	ConfidenceScore    json.RawMessage `json:"confidenceScore"`
}

// FromUntrusted parses raw AI output into a Candidate. Markdown code fences
// around the JSON are tolerated; anything else off-shape is a *ShapeError.
func FromUntrusted(raw []byte) (Candidate, error) {
	body := stripFences(raw)
	if len(body) == 0 || body[0] != '{' {
		return Candidate{}, &ShapeError{Reason: "response is not a JSON object"}
	}

	var u untrustedAnalysis
	if err := json.Unmarshal(body, &u); err != nil {
		return Candidate{}, &ShapeError{Reason: err.Error()}
	}

	var c Candidate
	var err error
	if c.Sentiment, err = requiredString("sentiment", u.Sentiment); err != nil {
		return Candidate{}, err
	}
	if c.Urgency, err = requiredString("urgency", u.Urgency); err != nil {
		return Candidate{}, err
	}
	if c.Categories, err = requiredStrings("categories", u.Categories); err != nil {
		return Candidate{}, err
	}
	if c.Emotions, err = requiredStrings("emotions", u.Emotions); err != nil {
		return Candidate{}, err
	}
	if c.SentimentScore, err = optionalNumber("sentimentScore", u.SentimentScore); err != nil {
		return Candidate{}, err
	}
	if c.ConfidenceScore, err = optionalNumber("confidenceScore", u.ConfidenceScore); err != nil {
		return Candidate{}, err
	}
	if len(u.ActionableInsights) > 0 && !isNull(u.ActionableInsights) {
		if err := json.Unmarshal(u.ActionableInsights, &c.ActionableInsights); err != nil {
			return Candidate{}, &ShapeError{Field: "actionableInsights", Reason: "must be a string"}
		}
	}
	return c, nil
}

func stripFences(raw []byte) []byte {
	body := bytes.TrimSpace(raw)
	body = bytes.TrimPrefix(body, []byte("```json"))
	body = bytes.TrimPrefix(body, []byte("```"))
	body = bytes.TrimSuffix(body, []byte("```"))
	return bytes.TrimSpace(body)
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func requiredString(field string, raw json.RawMessage) (string, error) {
	if len(raw) == 0 || isNull(raw) {
		return "", &ShapeError{Field: field, Reason: "missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ShapeError{Field: field, Reason: "must be a string"}
	}
	return s, nil
}

func requiredStrings(field string, raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, &ShapeError{Field: field, Reason: "missing"}
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, &ShapeError{Field: field, Reason: "must be an array of strings"}
	}
	return ss, nil
}

func optionalNumber(field string, raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || isNull(raw) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, &ShapeError{Field: field, Reason: "must be a number"}
	}
	return &f, nil
}

// Normalize turns any candidate into a well-formed AnalysisResult. It never
// fails: bad values are replaced with defaults.
func Normalize(c Candidate) domain.AnalysisResult {
	res := domain.AnalysisResult{
		Sentiment:       domain.Sentiment(strings.ToLower(strings.TrimSpace(c.Sentiment))),
		SentimentScore:  clampScore(c.SentimentScore, domain.DefaultScore),
		Urgency:         domain.Urgency(strings.ToLower(strings.TrimSpace(c.Urgency))),
		ConfidenceScore: clampScore(c.ConfidenceScore, domain.DefaultConfidence),
	}
	if !res.Sentiment.Valid() {
		res.Sentiment = domain.SentimentNeutral
	}
	if !res.Urgency.Valid() {
		res.Urgency = domain.UrgencyLow
	}

	res.Categories = normalizeCategories(c.Categories)
	if len(res.Categories) == 0 {
		res.Categories = []domain.Category{domain.CategoryServiceQuality}
	}
	res.Emotions = normalizeEmotions(c.Emotions)
	if len(res.Emotions) == 0 {
		res.Emotions = []domain.Emotion{domain.EmotionNeutral}
	}

	res.ActionableInsights = truncateRunes(strings.TrimSpace(c.ActionableInsights), domain.MaxInsightsLength)
	if res.ActionableInsights == "" {
		res.ActionableInsights = manualReviewInsight
	}
	return res
}

func clampScore(v *float64, def int) int {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return int(math.Round(math.Max(0, math.Min(100, *v))))
}

// normalizeCategories keeps the set only if every value is in the taxonomy.
func normalizeCategories(in []string) []domain.Category {
	out := make([]domain.Category, 0, domain.MaxLabels)
	for _, v := range in {
		c := domain.Category(strings.ToLower(strings.TrimSpace(v)))
		if !c.Valid() {
			return nil
		}
		if !slices.Contains(out, c) && len(out) < domain.MaxLabels {
			out = append(out, c)
		}
	}
	return out
}

func normalizeEmotions(in []string) []domain.Emotion {
	out := make([]domain.Emotion, 0, domain.MaxLabels)
	for _, v := range in {
		e := domain.Emotion(strings.ToLower(strings.TrimSpace(v)))
		if !e.Valid() {
			return nil
		}
		if !slices.Contains(out, e) && len(out) < domain.MaxLabels {
			out = append(out, e)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
