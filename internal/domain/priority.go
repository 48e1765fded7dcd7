package domain

import (
	"math"
	"time"
)

// UrgencyPriority is the canonical urgency order, most pressing first.
var UrgencyPriority = []Urgency{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow}

// overdueAfter holds how long a record may stay open at each urgency.
var overdueAfter = map[Urgency]time.Duration{
	UrgencyCritical: 1 * 24 * time.Hour,
	UrgencyHigh:     2 * 24 * time.Hour,
	UrgencyMedium:   5 * 24 * time.Hour,
	UrgencyLow:      14 * 24 * time.Hour,
}

// UrgencyRank returns 0 for critical up to 3 for low. Unknown values rank as low.
func UrgencyRank(u Urgency) int {
	for i, v := range UrgencyPriority {
		if u == v {
			return i
		}
	}
	return len(UrgencyPriority) - 1
}

// MoreUrgent reports whether a sorts before b in priority order.
func MoreUrgent(a, b Urgency) bool {
	return UrgencyRank(a) < UrgencyRank(b)
}

// OverdueThreshold returns the open-time allowance for an urgency level.
func OverdueThreshold(u Urgency) time.Duration {
	if d, ok := overdueAfter[u]; ok {
		return d
	}
	return overdueAfter[UrgencyLow]
}

func IsUrgent(r FeedbackRecord) bool {
	u := r.EffectiveUrgency()
	return u == UrgencyHigh || u == UrgencyCritical
}

func NeedsImmediateAction(r FeedbackRecord) bool {
	if r.EffectiveUrgency() == UrgencyCritical {
		return true
	}
	return r.Analysis.Sentiment == SentimentNegative && r.Rating <= 2
}

// IsOverdue reports whether an open record has exceeded its urgency threshold.
// The threshold itself is not overdue.
func IsOverdue(r FeedbackRecord, now time.Time) bool {
	if r.Status == StatusResolved || r.Status == StatusClosed {
		return false
	}
	return now.Sub(r.CreatedAt) > OverdueThreshold(r.EffectiveUrgency())
}

// DaysOpen is the record age in whole days.
func DaysOpen(r FeedbackRecord, now time.Time) int {
	age := now.Sub(r.CreatedAt)
	if age < 0 {
		return 0
	}
	return int(math.Floor(age.Hours() / 24))
}

// RecordFlags are the derived presentation flags of a record.
type RecordFlags struct {
	IsUrgent             bool `json:"isUrgent"`
	NeedsImmediateAction bool `json:"needsImmediateAction"`
	IsOverdue            bool `json:"isOverdue"`
	DaysOpen             int  `json:"daysOpen"`
}

func Flags(r FeedbackRecord, now time.Time) RecordFlags {
	return RecordFlags{
		IsUrgent:             IsUrgent(r),
		NeedsImmediateAction: NeedsImmediateAction(r),
		IsOverdue:            IsOverdue(r, now),
		DaysOpen:             DaysOpen(r, now),
	}
}
