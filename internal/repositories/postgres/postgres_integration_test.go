//go:build testutil
// +build testutil

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/repositories/postgres"
	"github.com/edutrack/assessment-service/internal/testutil/testdb"
)

func newRepo(t *testing.T) repositories.Repository {
	t.Helper()
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)

	db, err := h.Gorm()
	if err != nil {
		t.Fatal(err)
	}
	return postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})
}

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, repo repositories.Repository, username string, role models.UserRole, section *string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		FullName:     username,
		PasswordHash: "hash",
		Role:         role,
		Section:      section,
	}
	if err := repo.User().Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func TestRepository_SubmissionFlow(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	admin := seedUser(t, repo, "teacher", models.RoleAdmin, nil)
	student := seedUser(t, repo, "Alice", models.RoleStudent, strPtr("A"))

	if _, err := repo.User().GetByUsername(ctx, "ALICE"); err != nil {
		t.Fatalf("username lookup should be case-insensitive: %v", err)
	}
	if err := repo.User().Create(ctx, &models.User{Username: "alice", FullName: "x", PasswordHash: "h", Role: models.RoleStudent}); !repositories.IsDuplicateError(err) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	assessment := &models.Assessment{
		Title:     "Quiz 1",
		Duration:  30,
		Status:    models.StatusPublished,
		Sections:  []string{"A"},
		CreatedBy: admin.ID,
		Questions: []models.Question{
			{Type: models.MultipleChoice, QuestionText: "q1", Options: []string{"A", "B"}, CorrectAnswer: strPtr("A"), Points: 2, OrderIndex: 1},
			{Type: models.ShortAnswer, QuestionText: "q2", Options: []string{}, Points: 1, OrderIndex: 2},
		},
	}
	if err := repo.Assessment().Create(ctx, assessment); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.Assessment().GetByIDWithQuestions(ctx, assessment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.QuestionsCount != 2 || loaded.TotalPoints != 3 {
		t.Fatalf("computed fields = %d/%d, want 2/3", loaded.QuestionsCount, loaded.TotalPoints)
	}

	open, err := repo.Assessment().ListOpenForSection(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 {
		t.Fatalf("section A should see 1 assessment, got %d", len(open))
	}
	open, err = repo.Assessment().ListOpenForSection(ctx, "B")
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 0 {
		t.Fatalf("section B should see nothing, got %d", len(open))
	}

	err = repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		sub := &models.Submission{
			AssessmentID: assessment.ID,
			StudentID:    student.ID,
			TotalScore:   2,
			MaxScore:     3,
			SubmittedAt:  time.Now().UTC(),
		}
		if err := tx.Submission().Create(ctx, sub); err != nil {
			return err
		}
		return tx.Answer().CreateBatch(ctx, []*models.Answer{
			{SubmissionID: sub.ID, QuestionID: loaded.Questions[0].ID, AnswerText: strPtr("A"), IsCorrect: true, PointsEarned: 2, IsGraded: true},
			{SubmissionID: sub.ID, QuestionID: loaded.Questions[1].ID, AnswerText: strPtr("ok")},
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	dup := &models.Submission{AssessmentID: assessment.ID, StudentID: student.ID, SubmittedAt: time.Now().UTC()}
	if err := repo.Submission().Create(ctx, dup); !repositories.IsDuplicateError(err) {
		t.Fatalf("second submission should be a duplicate, got %v", err)
	}

	sub, err := repo.Submission().GetByAssessmentAndStudent(ctx, assessment.ID, student.ID)
	if err != nil {
		t.Fatal(err)
	}
	withAnswers, err := repo.Submission().GetByIDWithAnswers(ctx, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(withAnswers.Answers) != 2 || withAnswers.Answers[0].Question == nil {
		t.Fatalf("expected 2 answers with questions, got %+v", withAnswers.Answers)
	}

	pending, err := repo.Submission().ListPendingByAssessment(ctx, assessment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	graded, err := repo.Submission().ListByAssessment(ctx, assessment.ID, repositories.SubmissionFilters{GradedOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(graded) != 0 {
		t.Fatalf("graded only = %d, want 0", len(graded))
	}

	if _, err := repo.Submission().GetByID(ctx, 9999); !repositories.IsNotFoundError(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	count, err := repo.Submission().CountByAssessment(ctx, assessment.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountByAssessment() = %d, %v, want 1", count, err)
	}

	// answered questions cannot be removed from under their answers
	if err := repo.Question().Delete(ctx, loaded.Questions[1].ID); !repositories.IsConflictError(err) {
		t.Fatalf("deleting an answered question: got %v, want conflict", err)
	}
	withAnswers, err = repo.Submission().GetByIDWithAnswers(ctx, sub.ID)
	if err != nil || len(withAnswers.Answers) != 2 {
		t.Fatalf("answers after refused delete = %v, %v", withAnswers, err)
	}

	if err := repo.Assessment().UpdateStatus(ctx, assessment.ID, models.StatusActive, models.StatusClosed); !repositories.IsConflictError(err) {
		t.Fatalf("stale status write: got %v, want conflict", err)
	}
	if err := repo.Assessment().UpdateStatus(ctx, assessment.ID, models.StatusPublished, models.StatusClosed); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := repo.Assessment().UpdateStatus(ctx, 9999, models.StatusPublished, models.StatusClosed); !repositories.IsNotFoundError(err) {
		t.Fatalf("missing assessment: got %v, want not found", err)
	}
}

func TestRepository_ContentTargeting(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	admin := seedUser(t, repo, "teacher", models.RoleAdmin, nil)

	everyone := &models.Post{AuthorID: admin.ID, Title: "all", Content: "hello"}
	onlyA := &models.Post{AuthorID: admin.ID, Title: "a", Content: "hi A", TargetSections: []string{"A", "A"}}
	for _, p := range []*models.Post{everyone, onlyA} {
		if err := repo.Post().Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if len(onlyA.TargetSections) != 1 {
		t.Fatalf("duplicate sections should collapse, got %v", onlyA.TargetSections)
	}

	tests := []struct {
		name    string
		section *string
		want    int64
	}{
		{"admin sees all", nil, 2},
		{"section A", strPtr("A"), 2},
		{"section B", strPtr("B"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.Post().List(ctx, repositories.ContentFilters{Section: tt.section, Limit: 10})
			if err != nil {
				t.Fatal(err)
			}
			if total != tt.want {
				t.Fatalf("total = %d, want %d", total, tt.want)
			}
		})
	}

	if err := repo.Announcement().Create(ctx, &models.Announcement{AuthorID: admin.ID, Title: "t", Content: "c", Sections: []string{"B"}}); err != nil {
		t.Fatal(err)
	}
	_, total, err := repo.Announcement().List(ctx, repositories.ContentFilters{Section: strPtr("A")})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("section A should not see a B announcement, got %d", total)
	}

	if err := repo.Comment().Create(ctx, &models.Comment{PostID: onlyA.ID, AuthorID: admin.ID, Content: "first"}); err != nil {
		t.Fatal(err)
	}
	counts, err := repo.Comment().CountByPosts(ctx, []uint{everyone.ID, onlyA.ID})
	if err != nil {
		t.Fatal(err)
	}
	if counts[onlyA.ID] != 1 || counts[everyone.ID] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
