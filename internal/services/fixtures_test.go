package services

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/cache"
	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/logging"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/validator"
)

type fixture struct {
	store     *memStore
	files     *memFiles
	publisher *events.MockEventPublisher
	cache     *cache.CacheManager
	validator *validator.Validator
	logger    *zap.SugaredLogger

	admin   Actor
	student Actor
	other   Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logging.Nop()
	f := &fixture{
		store:     newMemStore(),
		files:     newMemFiles(),
		publisher: events.NewMockEventPublisher(logger),
		cache:     cache.NewCacheManager(nil),
		validator: validator.New(),
		logger:    logger,
	}
	f.admin = f.seedUser(t, "teacher", "Teacher", models.RoleAdmin, "")
	f.student = f.seedUser(t, "alice", "Alice", models.RoleStudent, "A")
	f.other = f.seedUser(t, "bob", "Bob", models.RoleStudent, "B")
	return f
}

func (f *fixture) seedUser(t *testing.T, username, fullName string, role models.UserRole, section string) Actor {
	t.Helper()
	u := &models.User{Username: username, FullName: fullName, PasswordHash: "x", Role: role}
	if section != "" {
		u.Section = strPtr(section)
	}
	if err := f.store.User().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return Actor{ID: u.ID, Role: role, Section: section}
}

func (f *fixture) seedAssessment(t *testing.T, status models.AssessmentStatus, sections []string, questions ...models.Question) *models.Assessment {
	t.Helper()
	a := &models.Assessment{
		Title:     "Quiz",
		Duration:  30,
		Status:    status,
		Sections:  sections,
		CreatedBy: f.admin.ID,
		Questions: questions,
	}
	if err := f.store.Assessment().Create(context.Background(), a); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	return a
}

// workedExample seeds two 2-point MCQs (answers A and B) and a 1-point short answer
func (f *fixture) workedExample(t *testing.T) *models.Assessment {
	t.Helper()
	return f.seedAssessment(t, models.StatusPublished, nil,
		mcq("Pick A", 2, 1, "A", "A", "B", "C"),
		mcq("Pick B", 2, 2, "B", "A", "B", "C"),
		shortAnswer("Explain", 1, 3),
	)
}

func (f *fixture) submissions() SubmissionService {
	return NewSubmissionService(f.store, f.cache, f.publisher, f.logger, f.validator)
}

func (f *fixture) grading() GradingService {
	return NewGradingService(f.store, f.cache, f.publisher, f.logger, f.validator)
}

func (f *fixture) assessments() AssessmentService {
	return NewAssessmentService(f.store, f.publisher, f.logger, f.validator)
}

func (f *fixture) statistics() StatisticsService {
	return NewStatisticsService(f.store, f.cache, f.logger)
}

func (f *fixture) content() ContentService {
	return NewContentService(f.store, f.files, f.publisher, f.logger, f.validator)
}

func mcq(text string, points, order int, correct string, options ...string) models.Question {
	return models.Question{
		Type:          models.MultipleChoice,
		QuestionText:  text,
		Options:       options,
		CorrectAnswer: strPtr(correct),
		Points:        points,
		OrderIndex:    order,
	}
}

func shortAnswer(text string, points, order int) models.Question {
	return models.Question{
		Type:         models.ShortAnswer,
		QuestionText: text,
		Options:      []string{},
		Points:       points,
		OrderIndex:   order,
	}
}

func answer(questionID uint, text string) AnswerInput {
	return AnswerInput{QuestionID: questionID, AnswerText: strPtr(text)}
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func timePtr(t time.Time) *time.Time { return &t }
