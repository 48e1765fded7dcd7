package domain

// Category is a value of the fixed feedback category taxonomy.
type Category string

const (
	CategoryServiceQuality    Category = "service_quality"
	CategoryStaffBehavior     Category = "staff_behavior"
	CategoryWaitTime          Category = "wait_time"
	CategoryTechnicalIssues   Category = "technical_issues"
	CategoryTransactionIssues Category = "transaction_issues"
	CategoryProductFeatures   Category = "product_features"
	CategoryPricingFees       Category = "pricing_fees"
	CategoryAccessibility     Category = "accessibility"
	CategorySecurityConcerns  Category = "security_concerns"
	CategoryCommunication     Category = "communication"
)

var Categories = []Category{
	CategoryServiceQuality,
	CategoryStaffBehavior,
	CategoryWaitTime,
	CategoryTechnicalIssues,
	CategoryTransactionIssues,
	CategoryProductFeatures,
	CategoryPricingFees,
	CategoryAccessibility,
	CategorySecurityConcerns,
	CategoryCommunication,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Emotion is a value of the fixed emotion taxonomy.
type Emotion string

const (
	EmotionHappy        Emotion = "happy"
	EmotionSatisfied    Emotion = "satisfied"
	EmotionGrateful     Emotion = "grateful"
	EmotionRelieved     Emotion = "relieved"
	EmotionNeutral      Emotion = "neutral"
	EmotionConfused     Emotion = "confused"
	EmotionAnxious      Emotion = "anxious"
	EmotionImpatient    Emotion = "impatient"
	EmotionFrustrated   Emotion = "frustrated"
	EmotionAngry        Emotion = "angry"
	EmotionDisappointed Emotion = "disappointed"
	EmotionSurprised    Emotion = "surprised"
)

var Emotions = []Emotion{
	EmotionHappy,
	EmotionSatisfied,
	EmotionGrateful,
	EmotionRelieved,
	EmotionNeutral,
	EmotionConfused,
	EmotionAnxious,
	EmotionImpatient,
	EmotionFrustrated,
	EmotionAngry,
	EmotionDisappointed,
	EmotionSurprised,
}

func (e Emotion) Valid() bool {
	for _, v := range Emotions {
		if e == v {
			return true
		}
	}
	return false
}

const (
	MaxLabels           = 3
	MaxInsightsLength   = 500
	MinCommentLength    = 10
	MaxCommentLength    = 1000
	DefaultScore        = 50
	DefaultConfidence   = 75
	HeuristicConfidence = 60
)

type Method string

const (
	MethodAI        Method = "ai"
	MethodHeuristic Method = "heuristic"
)

// AnalysisResult is what a classifier produces for one comment.
type AnalysisResult struct {
	Sentiment          Sentiment  `json:"sentiment"`
	SentimentScore     int        `json:"sentimentScore"`
	Categories         []Category `json:"categories"`
	Emotions           []Emotion  `json:"emotions"`
	Urgency            Urgency    `json:"urgency"`
	ActionableInsights string     `json:"actionableInsights"`
	ConfidenceScore    int        `json:"confidenceScore"`
	Method             Method     `json:"method,omitempty"`
}

// HasCategory reports whether c is among the result categories.
func (a AnalysisResult) HasCategory(c Category) bool {
	for _, v := range a.Categories {
		if v == c {
			return true
		}
	}
	return false
}
