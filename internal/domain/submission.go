package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Submission is the caller-supplied part of a new feedback record.
type Submission struct {
	Rating        int         `json:"rating" validate:"required,min=1,max=5"`
	Comment       string      `json:"comment" validate:"required,min=10,max=1000"`
	ServiceType   ServiceType `json:"serviceType" validate:"omitempty,servicetype"`
	Branch        string      `json:"branch" validate:"max=120"`
	CustomerName  string      `json:"customerName" validate:"max=120"`
	CustomerEmail string      `json:"customerEmail" validate:"omitempty,email"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func submissionValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
			return ServiceType(fl.Field().String()).Valid()
		})
		v.RegisterStructValidation(func(sl validator.StructLevel) {
			s := sl.Current().Interface().(Submission)
			if s.ServiceType == ServiceBranchVisit && s.Branch == "" {
				sl.ReportError(s.Branch, "branch", "Branch", "branch_required", "")
			}
		}, Submission{})
		validate = v
	})
	return validate
}

// Clean trims surrounding whitespace from the free-text fields.
func (s Submission) Clean() Submission {
	s.Comment = strings.TrimSpace(s.Comment)
	s.Branch = strings.TrimSpace(s.Branch)
	s.CustomerName = strings.TrimSpace(s.CustomerName)
	s.CustomerEmail = strings.TrimSpace(s.CustomerEmail)
	return s
}

// Validate checks a cleaned submission and returns a *ValidationError
// describing every rejected field.
func (s Submission) Validate() error {
	err := submissionValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "servicetype":
		return "is not a known service type"
	case "branch_required":
		return "is required for Branch Visit feedback"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
