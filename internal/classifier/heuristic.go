package classifier

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/godilite/feedback-insights/internal/domain"
)

// CategoryRule maps a lowercase keyword fragment to a category. WholeWord
// rules only match the keyword as a complete word, so "app" skips "happy".
type CategoryRule struct {
	Keyword   string
	Category  domain.Category
	WholeWord bool
}

// EmotionRule maps a lowercase keyword fragment to an emotion.
type EmotionRule struct {
	Keyword string
	Emotion domain.Emotion
}

// DefaultCategoryRules is evaluated top to bottom; earlier rules win the
// limited label slots.
var DefaultCategoryRules = []CategoryRule{
	{Keyword: "app", Category: domain.CategoryTechnicalIssues, WholeWord: true},
	{Keyword: "apps", Category: domain.CategoryTechnicalIssues, WholeWord: true},
	{Keyword: "website", Category: domain.CategoryTechnicalIssues},
	{Keyword: "online", Category: domain.CategoryTechnicalIssues},
	{Keyword: "login", Category: domain.CategoryTechnicalIssues},
	{Keyword: "crash", Category: domain.CategoryTechnicalIssues},
	{Keyword: "staff", Category: domain.CategoryStaffBehavior},
	{Keyword: "rude", Category: domain.CategoryStaffBehavior},
	{Keyword: "helpful", Category: domain.CategoryStaffBehavior},
	{Keyword: "teller", Category: domain.CategoryStaffBehavior},
	{Keyword: "wait", Category: domain.CategoryWaitTime},
	{Keyword: "queue", Category: domain.CategoryWaitTime},
	{Keyword: "slow", Category: domain.CategoryWaitTime},
	{Keyword: "atm", Category: domain.CategoryTransactionIssues},
	{Keyword: "transaction", Category: domain.CategoryTransactionIssues},
	{Keyword: "transfer", Category: domain.CategoryTransactionIssues},
	{Keyword: "fee", Category: domain.CategoryPricingFees},
	{Keyword: "charge", Category: domain.CategoryPricingFees},
	{Keyword: "fraud", Category: domain.CategorySecurityConcerns},
	{Keyword: "security", Category: domain.CategorySecurityConcerns},
	{Keyword: "parking", Category: domain.CategoryAccessibility},
	{Keyword: "wheelchair", Category: domain.CategoryAccessibility},
	{Keyword: "call", Category: domain.CategoryCommunication},
	{Keyword: "email", Category: domain.CategoryCommunication},
	{Keyword: "feature", Category: domain.CategoryProductFeatures},
}

var DefaultEmotionRules = []EmotionRule{
	{"frustrat", domain.EmotionFrustrated},
	{"annoying", domain.EmotionFrustrated},
	{"angry", domain.EmotionAngry},
	{"upset", domain.EmotionAngry},
	{"happy", domain.EmotionHappy},
	{"great", domain.EmotionHappy},
	{"satisfied", domain.EmotionSatisfied},
	{"good", domain.EmotionSatisfied},
	{"disappoint", domain.EmotionDisappointed},
	{"thank", domain.EmotionGrateful},
	{"confus", domain.EmotionConfused},
	{"worried", domain.EmotionAnxious},
}

var urgentKeywords = []string{"urgent", "immediately"}

// Heuristic is the deterministic rating-and-keyword classifier used whenever
// the AI path is unavailable.
type Heuristic struct {
	categoryRules []CategoryRule
	emotionRules  []EmotionRule
}

// NewHeuristic builds a classifier over the given rule tables; nil tables
// fall back to the defaults.
func NewHeuristic(categories []CategoryRule, emotions []EmotionRule) *Heuristic {
	if categories == nil {
		categories = DefaultCategoryRules
	}
	if emotions == nil {
		emotions = DefaultEmotionRules
	}
	return &Heuristic{categoryRules: categories, emotionRules: emotions}
}

// Classify never fails and performs no I/O.
func (h *Heuristic) Classify(comment string, rating int) domain.AnalysisResult {
	text := strings.ToLower(comment)

	sentiment, score := sentimentFromRating(rating)
	categories := h.matchCategories(text)
	emotions := h.matchEmotions(text, rating)

	return domain.AnalysisResult{
		Sentiment:          sentiment,
		SentimentScore:     score,
		Categories:         categories,
		Emotions:           emotions,
		Urgency:            urgencyFromRating(text, rating),
		ActionableInsights: insightFor(sentiment, categories[0], rating),
		ConfidenceScore:    domain.HeuristicConfidence,
		Method:             domain.MethodHeuristic,
	}
}

func sentimentFromRating(rating int) (domain.Sentiment, int) {
	switch {
	case rating >= 4:
		return domain.SentimentPositive, rating * 20
	case rating <= 2:
		return domain.SentimentNegative, rating * 20
	default:
		return domain.SentimentNeutral, 60
	}
}

func (h *Heuristic) matchCategories(text string) []domain.Category {
	out := make([]domain.Category, 0, domain.MaxLabels)
	for _, r := range h.categoryRules {
		if len(out) == domain.MaxLabels {
			break
		}
		if r.matches(text) && !slices.Contains(out, r.Category) {
			out = append(out, r.Category)
		}
	}
	if len(out) == 0 {
		out = append(out, domain.CategoryServiceQuality)
	}
	return out
}

func (r CategoryRule) matches(text string) bool {
	if !r.WholeWord {
		return strings.Contains(text, r.Keyword)
	}
	words := strings.FieldsFunc(text, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	return slices.Contains(words, r.Keyword)
}

func (h *Heuristic) matchEmotions(text string, rating int) []domain.Emotion {
	out := make([]domain.Emotion, 0, domain.MaxLabels)
	for _, r := range h.emotionRules {
		if len(out) == domain.MaxLabels {
			break
		}
		if strings.Contains(text, r.Keyword) && !slices.Contains(out, r.Emotion) {
			out = append(out, r.Emotion)
		}
	}
	if len(out) == 0 {
		if rating >= 4 {
			out = append(out, domain.EmotionSatisfied)
		} else {
			out = append(out, domain.EmotionDisappointed)
		}
	}
	return out
}

// urgencyFromRating never yields critical; only the AI path may escalate that far.
func urgencyFromRating(text string, rating int) domain.Urgency {
	if rating == 1 {
		return domain.UrgencyHigh
	}
	for _, kw := range urgentKeywords {
		if strings.Contains(text, kw) {
			return domain.UrgencyHigh
		}
	}
	if rating == 2 {
		return domain.UrgencyMedium
	}
	return domain.UrgencyLow
}

func insightFor(sentiment domain.Sentiment, category domain.Category, rating int) string {
	return fmt.Sprintf("Customer left %s feedback about %s with a %d-star rating; follow up accordingly.",
		sentiment, strings.ReplaceAll(string(category), "_", " "), rating)
}
