package service

import (
	"github.com/godilite/feedback-insights/internal/domain"
)

// RecordView is a record together with its derived priority flags.
type RecordView struct {
	domain.FeedbackRecord
	Flags domain.RecordFlags `json:"flags"`
}

// ResponseInput is a staff reply to a record. Note, when set, is appended to
// the record's internal notes.
type ResponseInput struct {
	Response    string `json:"response"`
	RespondedBy string `json:"respondedBy"`
	Note        string `json:"note,omitempty"`
}
