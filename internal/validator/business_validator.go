package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edutrack/assessment-service/internal/models"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]{3,50}$`)
	sectionPattern  = regexp.MustCompile(`^[a-zA-Z0-9 _-]{1,50}$`)
)

// allowedTransitions lists the statuses each status may move to
var allowedTransitions = map[models.AssessmentStatus][]models.AssessmentStatus{
	models.StatusDraft:     {models.StatusPublished, models.StatusActive},
	models.StatusPublished: {models.StatusActive, models.StatusClosed, models.StatusDraft},
	models.StatusActive:    {models.StatusClosed},
	models.StatusClosed:    {},
}

// CanTransition reports whether an assessment may move from one status to another
func CanTransition(from, to models.AssessmentStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateStatusTransition validates assessment status transitions
func (v *Validator) ValidateStatusTransition(current, next models.AssessmentStatus, questionCount int) ValidationErrors {
	var errs ValidationErrors

	if !CanTransition(current, next) {
		errs = append(errs, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
			Value:   next,
			Rule:    "status_transition",
		})
	}

	// Students can only see published or active assessments
	if (next == models.StatusPublished || next == models.StatusActive) && questionCount == 0 {
		errs = append(errs, ValidationError{
			Field:   "questions",
			Message: "assessment must have at least one question before publishing",
			Value:   questionCount,
			Rule:    "business_logic",
		})
	}

	return errs
}

// ValidateQuestionContent checks the rules tags cannot express. field prefixes the reported names.
func (v *Validator) ValidateQuestionContent(field string, qType models.QuestionType, options []string, correctAnswer *string) ValidationErrors {
	var errs ValidationErrors
	prefix := ""
	if field != "" {
		prefix = field + "."
	}

	if qType != models.MultipleChoice {
		if len(options) > 0 {
			errs = append(errs, ValidationError{
				Field:   prefix + "options",
				Message: "only mcq questions have options",
				Value:   options,
				Rule:    "business_logic",
			})
		}
		return errs
	}

	if len(options) < 2 {
		errs = append(errs, ValidationError{
			Field:   prefix + "options",
			Message: "mcq questions need at least two options",
			Value:   len(options),
			Rule:    "business_logic",
		})
	}

	seen := make(map[string]bool, len(options))
	for i, opt := range options {
		if seen[opt] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%soptions[%d]", prefix, i),
				Message: "duplicate option",
				Value:   opt,
				Rule:    "business_logic",
			})
		}
		seen[opt] = true
	}

	switch {
	case correctAnswer == nil || *correctAnswer == "":
		errs = append(errs, ValidationError{
			Field:   prefix + "correct_answer",
			Message: "is required for mcq questions",
			Rule:    "required",
		})
	case !seen[*correctAnswer]:
		errs = append(errs, ValidationError{
			Field:   prefix + "correct_answer",
			Message: "must be one of the options",
			Value:   *correctAnswer,
			Rule:    "business_logic",
		})
	}

	return errs
}

// registerBusinessRules registers custom business rule validators
func (v *Validator) registerBusinessRules() {
	v.validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	v.validate.RegisterValidation("section_name", func(fl validator.FieldLevel) bool {
		section := fl.Field().String()
		return strings.TrimSpace(section) != "" && sectionPattern.MatchString(section)
	})

	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch models.QuestionType(fl.Field().String()) {
		case models.MultipleChoice, models.ShortAnswer:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("assessment_status", func(fl validator.FieldLevel) bool {
		_, ok := allowedTransitions[models.AssessmentStatus(fl.Field().String())]
		return ok
	})

	// Points range validation
	v.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	v.validate.RegisterValidation("assessment_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 1 && duration <= 600
	})

	v.validate.RegisterValidation("assessment_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Due date validation (must be in future)
	v.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}
		dueDate, ok := field.Interface().(time.Time)
		if !ok {
			return false
		}
		return dueDate.After(time.Now())
	})
}
