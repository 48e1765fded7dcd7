package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionValidate(t *testing.T) {
	valid := Submission{
		Rating:      4,
		Comment:     "The mobile app works well most days.",
		ServiceType: ServiceMobileApp,
	}

	t.Run("valid submission", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("service type is optional", func(t *testing.T) {
		s := valid
		s.ServiceType = ""
		assert.NoError(t, s.Validate())
	})

	cases := []struct {
		name  string
		edit  func(*Submission)
		field string
	}{
		{"rating zero", func(s *Submission) { s.Rating = 0 }, "rating"},
		{"rating too high", func(s *Submission) { s.Rating = 6 }, "rating"},
		{"comment too short", func(s *Submission) { s.Comment = "too short" }, "comment"},
		{"comment too long", func(s *Submission) { s.Comment = strings.Repeat("a", 1001) }, "comment"},
		{"unknown service type", func(s *Submission) { s.ServiceType = "Drive Through" }, "serviceType"},
		{"branch visit without branch", func(s *Submission) { s.ServiceType = ServiceBranchVisit }, "branch"},
		{"bad email", func(s *Submission) { s.CustomerEmail = "not-an-email" }, "customerEmail"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.edit(&s)

			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	t.Run("branch visit with branch", func(t *testing.T) {
		s := valid
		s.ServiceType = ServiceBranchVisit
		s.Branch = "Downtown"
		assert.NoError(t, s.Validate())
	})
}

func TestSubmissionClean(t *testing.T) {
	s := Submission{Comment: "  padded comment text  ", Branch: " Main "}.Clean()

	assert.Equal(t, "padded comment text", s.Comment)
	assert.Equal(t, "Main", s.Branch)
}

func TestCheckTransition(t *testing.T) {
	assert.NoError(t, CheckTransition(StatusPending, StatusInProgress))
	assert.NoError(t, CheckTransition(StatusInProgress, StatusResolved))
	assert.NoError(t, CheckTransition(StatusResolved, StatusClosed))
	assert.NoError(t, CheckTransition(StatusResolved, StatusInProgress))

	err := CheckTransition(StatusClosed, StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = CheckTransition(StatusPending, "archived")
	assert.ErrorIs(t, err, ErrValidation)
}
