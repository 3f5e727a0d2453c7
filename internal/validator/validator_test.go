package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/edutrack/assessment-service/internal/models"
)

func strPtr(s string) *string { return &s }

func TestValidate_Requests(t *testing.T) {
	v := New()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name      string
		req       interface{}
		wantField string
	}{
		{
			name: "valid signup",
			req: &SignupRequest{
				Username: "alice_01", FullName: "Alice", Password: "secret1",
				Section: "Grade 7-A", SecurityQuestion: "Pet?", SecurityAnswer: "rex",
			},
		},
		{
			name: "bad username",
			req: &SignupRequest{
				Username: "a!", FullName: "Alice", Password: "secret1",
				Section: "A", SecurityQuestion: "Pet?", SecurityAnswer: "rex",
			},
			wantField: "username",
		},
		{
			name: "bad section",
			req: &SignupRequest{
				Username: "alice", FullName: "Alice", Password: "secret1",
				Section: "A;drop", SecurityQuestion: "Pet?", SecurityAnswer: "rex",
			},
			wantField: "section",
		},
		{
			name:      "unknown question type",
			req:       &QuestionCreateRequest{Type: "essay", QuestionText: "q", Points: 1},
			wantField: "type",
		},
		{
			name:      "points out of range",
			req:       &QuestionCreateRequest{Type: models.ShortAnswer, QuestionText: "q", Points: 101},
			wantField: "points",
		},
		{
			name:      "due date in the past",
			req:       &AssessmentCreateRequest{Title: "Quiz", Duration: 30, DueDate: &past},
			wantField: "due_date",
		},
		{
			name: "valid assessment",
			req:  &AssessmentCreateRequest{Title: "Quiz", Duration: 30, DueDate: &future, Sections: []string{"A"}},
		},
		{
			name:      "nested question error",
			req:       &AssessmentCreateRequest{Title: "Quiz", Duration: 30, Questions: []QuestionCreateRequest{{Type: models.ShortAnswer, Points: 1}}},
			wantField: "questions[0].question_text",
		},
		{
			name:      "unknown status",
			req:       &StatusUpdateRequest{Status: "archived"},
			wantField: "status",
		},
		{
			name:      "grade needs points",
			req:       &GradeAnswerRequest{Feedback: strPtr("ok")},
			wantField: "points_earned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected error on %q, got %+v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateStatusTransition(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		from, to  models.AssessmentStatus
		questions int
		wantErr   bool
	}{
		{"draft to published", models.StatusDraft, models.StatusPublished, 1, false},
		{"draft to active", models.StatusDraft, models.StatusActive, 3, false},
		{"publish without questions", models.StatusDraft, models.StatusPublished, 0, true},
		{"published back to draft", models.StatusPublished, models.StatusDraft, 0, false},
		{"active to closed", models.StatusActive, models.StatusClosed, 1, false},
		{"active to draft", models.StatusActive, models.StatusDraft, 1, true},
		{"closed is final", models.StatusClosed, models.StatusActive, 1, true},
		{"draft to closed", models.StatusDraft, models.StatusClosed, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateStatusTransition(tt.from, tt.to, tt.questions)
			if (len(errs) > 0) != tt.wantErr {
				t.Fatalf("errs = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidateQuestionContent(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		qType   models.QuestionType
		options []string
		correct *string
		want    []string
	}{
		{"valid mcq", models.MultipleChoice, []string{"A", "B"}, strPtr("A"), nil},
		{"one option", models.MultipleChoice, []string{"A"}, strPtr("A"), []string{"options"}},
		{"answer not an option", models.MultipleChoice, []string{"A", "B"}, strPtr("a"), []string{"correct_answer"}},
		{"missing answer", models.MultipleChoice, []string{"A", "B"}, nil, []string{"correct_answer"}},
		{"duplicate option", models.MultipleChoice, []string{"A", "A", "B"}, strPtr("B"), []string{"options[1]"}},
		{"short answer", models.ShortAnswer, nil, nil, nil},
		{"short answer with options", models.ShortAnswer, []string{"A"}, nil, []string{"options"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateQuestionContent("", tt.qType, tt.options, tt.correct)
			if len(errs) != len(tt.want) {
				t.Fatalf("got %+v, want fields %v", errs, tt.want)
			}
			for i, field := range tt.want {
				if errs[i].Field != field {
					t.Errorf("errs[%d].Field = %q, want %q", i, errs[i].Field, field)
				}
			}
		})
	}
}

func TestValidationErrors_OrNil(t *testing.T) {
	var empty ValidationErrors
	if empty.OrNil() != nil {
		t.Fatal("empty errors should be nil")
	}
	errs := ValidationErrors{{Field: "title", Message: "is required"}}
	if errs.OrNil() == nil {
		t.Fatal("non-empty errors should not be nil")
	}
	if got := errs.Error(); got != "validation failed: title: is required" {
		t.Fatalf("Error() = %q", got)
	}
}
