package domain

import "time"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Sentiments lists the canonical sentiments in ascending lexical order.
var Sentiments = []Sentiment{SentimentNegative, SentimentNeutral, SentimentPositive}

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

type ServiceType string

const (
	ServiceMobileApp       ServiceType = "Mobile App"
	ServiceInternetBanking ServiceType = "Internet Banking"
	ServiceBranchVisit     ServiceType = "Branch Visit"
	ServiceATM             ServiceType = "ATM Services"
	ServiceCustomerSupport ServiceType = "Customer Support"
	ServiceCards           ServiceType = "Card Services"
	ServiceLoans           ServiceType = "Loan Services"
	ServiceAccountOpening  ServiceType = "Account Opening"
)

var ServiceTypes = []ServiceType{
	ServiceMobileApp,
	ServiceInternetBanking,
	ServiceBranchVisit,
	ServiceATM,
	ServiceCustomerSupport,
	ServiceCards,
	ServiceLoans,
	ServiceAccountOpening,
}

func (s ServiceType) Valid() bool {
	for _, st := range ServiceTypes {
		if s == st {
			return true
		}
	}
	return false
}

// FeedbackRecord is a single customer submission together with its analysis.
type FeedbackRecord struct {
	ID            string      `json:"id"`
	Rating        int         `json:"rating"`
	Comment       string      `json:"comment"`
	ServiceType   ServiceType `json:"serviceType,omitempty"`
	Branch        string      `json:"branch,omitempty"`
	CustomerName  string      `json:"customerName,omitempty"`
	CustomerEmail string      `json:"customerEmail,omitempty"`
	Status        Status      `json:"status"`

	Analysis Analysis `json:"analysis"`

	Response      string     `json:"response,omitempty"`
	RespondedBy   string     `json:"respondedBy,omitempty"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	InternalNotes []string   `json:"internalNotes,omitempty"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Analysis is the persisted analysis block of a record. Sentiment is empty
// until the record has been classified.
type Analysis struct {
	AnalysisResult
	AnalyzedAt *time.Time `json:"analysisTimestamp,omitempty"`
}

// Classified reports whether an analysis has been attached to the record.
func (a Analysis) Classified() bool {
	return a.Sentiment != ""
}

// EffectiveUrgency returns the record urgency, defaulting to low.
func (r FeedbackRecord) EffectiveUrgency() Urgency {
	if r.Analysis.Urgency.Valid() {
		return r.Analysis.Urgency
	}
	return UrgencyLow
}

// Apply merges a classifier result into the analysis block.
func (r *FeedbackRecord) Apply(res AnalysisResult, at time.Time) {
	ts := at.UTC()
	r.Analysis = Analysis{AnalysisResult: res, AnalyzedAt: &ts}
}
