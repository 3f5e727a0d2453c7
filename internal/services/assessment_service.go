package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
	"github.com/edutrack/assessment-service/internal/validator"
)

type assessmentService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *zap.SugaredLogger
	validator *validator.Validator
	now       func() time.Time
}

func NewAssessmentService(repo repositories.Repository, publisher events.EventPublisher, logger *zap.SugaredLogger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest, creator Actor) (*models.Assessment, error) {
	if err := requireAdmin(creator, 0, "assessment", "create"); err != nil {
		return nil, err
	}
	s.logger.Infow("Creating assessment", "creator_id", creator.ID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validateQuestions(req.Questions); len(errs) > 0 {
		return nil, errs
	}

	assessment := &models.Assessment{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Status:      models.StatusDraft,
		DueDate:     req.DueDate,
		Sections:    normalizeSections(req.Sections),
		CreatedBy:   creator.ID,
		Questions:   make([]models.Question, 0, len(req.Questions)),
	}
	for i := range req.Questions {
		q := buildQuestion(&req.Questions[i], i+1)
		assessment.Questions = append(assessment.Questions, *q)
	}

	if err := s.repo.Assessment().Create(ctx, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Infow("Assessment created", "assessment_id", assessment.ID, "questions", len(assessment.Questions))
	return s.load(ctx, assessment.ID)
}

// GetByID returns the full assessment, correct answers included
func (s *assessmentService) GetByID(ctx context.Context, id uint, viewer Actor) (*models.Assessment, error) {
	if err := requireAdmin(viewer, id, "assessment", "read"); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, actor Actor) (*models.Assessment, error) {
	if err := requireAdmin(actor, id, "assessment", "update"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to load assessment")
	}
	if assessment.Status == models.StatusClosed {
		return nil, NewBusinessRuleError("assessment_closed", "closed assessments cannot be edited", map[string]interface{}{
			"assessment_id": id,
		})
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.Duration != nil {
		assessment.Duration = *req.Duration
	}
	if req.DueDate != nil {
		assessment.DueDate = req.DueDate
	}
	if req.Sections != nil {
		assessment.Sections = normalizeSections(*req.Sections)
	}

	if err := s.repo.Assessment().Update(ctx, assessment); err != nil {
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to update assessment")
	}

	s.logger.Infow("Assessment updated", "assessment_id", id, "updated_by", actor.ID)
	return s.load(ctx, id)
}

// Delete soft-deletes the assessment. Submissions stay readable.
func (s *assessmentService) Delete(ctx context.Context, id uint, actor Actor) error {
	if err := requireAdmin(actor, id, "assessment", "delete"); err != nil {
		return err
	}
	if err := s.repo.Assessment().Delete(ctx, id); err != nil {
		return mapNotFound(err, ErrAssessmentNotFound, "failed to delete assessment")
	}
	s.logger.Infow("Assessment deleted", "assessment_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *assessmentService) List(ctx context.Context, filter AssessmentFilter, viewer Actor) (*models.PaginatedResponse, error) {
	if err := requireAdmin(viewer, 0, "assessment", "list"); err != nil {
		return nil, err
	}
	page, size, offset := normalizePage(filter.Page, filter.Size)

	assessments, total, err := s.repo.Assessment().List(ctx, repositories.AssessmentFilters{
		Status:    filter.Status,
		Search:    filter.Search,
		Limit:     size,
		Offset:    offset,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return models.NewPaginatedResponse(assessments, len(assessments), total, page, size), nil
}

// UpdateStatus moves the assessment through its lifecycle. Setting the current status again is a no-op.
func (s *assessmentService) UpdateStatus(ctx context.Context, id uint, status models.AssessmentStatus, actor Actor) (*models.Assessment, error) {
	if err := requireAdmin(actor, id, "assessment", "update_status"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&validator.StatusUpdateRequest{Status: status}); err != nil {
		return nil, err
	}

	assessment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.Status == status {
		return assessment, nil
	}
	if errs := s.validator.ValidateStatusTransition(assessment.Status, status, assessment.QuestionsCount); len(errs) > 0 {
		return nil, errs
	}
	if status == models.StatusDraft {
		// reopening for edits would change questions that graded answers point at
		count, err := s.repo.Submission().CountByAssessment(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to count submissions: %w", err)
		}
		if count > 0 {
			return nil, NewBusinessRuleError("assessment_has_submissions",
				"assessment cannot return to draft once students have submitted",
				map[string]interface{}{"submissions": count})
		}
	}

	if err := s.repo.Assessment().UpdateStatus(ctx, id, assessment.Status, status); err != nil {
		if repositories.IsConflictError(err) {
			return nil, ErrStatusConflict
		}
		return nil, mapNotFound(err, ErrAssessmentNotFound, "failed to update status")
	}

	s.logger.Infow("Assessment status changed", "assessment_id", id, "from", assessment.Status, "to", status)
	changedBy := actor.ID
	publish(ctx, s.publisher, s.logger, events.AssessmentStatusChanged, events.AssessmentStatusData{
		AssessmentID: id,
		From:         string(assessment.Status),
		To:           string(status),
		ChangedBy:    &changedBy,
	})

	return s.load(ctx, id)
}

// ===== QUESTIONS =====

func (s *assessmentService) AddQuestion(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, actor Actor) (*models.Question, error) {
	if err := requireAdmin(actor, assessmentID, "assessment", "add_question"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateQuestionContent("", req.Type, req.Options, req.CorrectAnswer); len(errs) > 0 {
		return nil, errs
	}
	if _, err := s.loadDraft(ctx, assessmentID); err != nil {
		return nil, err
	}

	orderIndex := 0
	if req.OrderIndex == nil {
		next, err := s.repo.Question().NextOrderIndex(ctx, assessmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get question order: %w", err)
		}
		orderIndex = next
	}

	question := buildQuestion(req, orderIndex)
	question.AssessmentID = assessmentID
	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Infow("Question added", "assessment_id", assessmentID, "question_id", question.ID)
	return question, nil
}

func (s *assessmentService) UpdateQuestion(ctx context.Context, assessmentID, questionID uint, req *UpdateQuestionRequest, actor Actor) (*models.Question, error) {
	if err := requireAdmin(actor, assessmentID, "assessment", "update_question"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.loadDraft(ctx, assessmentID); err != nil {
		return nil, err
	}
	question, err := s.questionIn(ctx, assessmentID, questionID)
	if err != nil {
		return nil, err
	}

	applyQuestionUpdate(question, req)
	if errs := s.validator.ValidateQuestionContent("", question.Type, question.Options, question.CorrectAnswer); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound, "failed to update question")
	}
	return question, nil
}

func (s *assessmentService) DeleteQuestion(ctx context.Context, assessmentID, questionID uint, actor Actor) error {
	if err := requireAdmin(actor, assessmentID, "assessment", "delete_question"); err != nil {
		return err
	}
	if _, err := s.loadDraft(ctx, assessmentID); err != nil {
		return err
	}
	if _, err := s.questionIn(ctx, assessmentID, questionID); err != nil {
		return err
	}
	if err := s.repo.Question().Delete(ctx, questionID); err != nil {
		return mapNotFound(err, ErrQuestionNotFound, "failed to delete question")
	}

	s.logger.Infow("Question deleted", "assessment_id", assessmentID, "question_id", questionID)
	return nil
}

func (s *assessmentService) ReorderQuestions(ctx context.Context, assessmentID uint, req *ReorderQuestionsRequest, actor Actor) ([]*models.Question, error) {
	if err := requireAdmin(actor, assessmentID, "assessment", "reorder_questions"); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.loadDraft(ctx, assessmentID); err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(req.Orders))
	for i, order := range req.Orders {
		if seen[order.QuestionID] {
			return nil, NewValidationError(fmt.Sprintf("orders[%d].question_id", i), "question listed more than once", order.QuestionID)
		}
		seen[order.QuestionID] = true
	}

	if err := s.repo.Question().UpdateOrder(ctx, assessmentID, req.Orders); err != nil {
		return nil, mapNotFound(err, ErrQuestionNotFound, "failed to reorder questions")
	}

	questions, err := s.repo.Question().ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// ===== STUDENT VIEWS =====

// ListForStudent returns the open assessments targeted at the student's section
func (s *assessmentService) ListForStudent(ctx context.Context, student Actor) ([]*StudentAssessment, error) {
	assessments, err := s.repo.Assessment().ListOpenForSection(ctx, student.Section)
	if err != nil {
		return nil, fmt.Errorf("failed to list open assessments: %w", err)
	}
	submissions, err := s.repo.Submission().ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	byAssessment := make(map[uint]*models.Submission, len(submissions))
	for _, sub := range submissions {
		byAssessment[sub.AssessmentID] = sub
	}

	out := make([]*StudentAssessment, 0, len(assessments))
	for _, a := range assessments {
		view := &StudentAssessment{Assessment: a}
		if sub, ok := byAssessment[a.ID]; ok {
			id, score := sub.ID, sub.TotalScore
			view.Submitted = true
			view.SubmissionID = &id
			view.TotalScore = &score
			view.Graded = sub.Graded
		}
		out = append(out, view)
	}
	return out, nil
}

// GetForAttempt returns the questions without their correct answers
func (s *assessmentService) GetForAttempt(ctx context.Context, id uint, student Actor) (*AttemptView, error) {
	assessment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOpenFor(assessment, student, s.now()); err != nil {
		return nil, err
	}

	if _, err := s.repo.Submission().GetByAssessmentAndStudent(ctx, id, student.ID); err == nil {
		return nil, ErrSubmissionExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}

	view := &AttemptView{
		ID:          assessment.ID,
		Title:       assessment.Title,
		Description: assessment.Description,
		Duration:    assessment.Duration,
		DueDate:     assessment.DueDate,
		TotalPoints: assessment.TotalPoints,
		Questions:   make([]models.QuestionForStudent, 0, len(assessment.Questions)),
	}
	for i := range assessment.Questions {
		view.Questions = append(view.Questions, assessment.Questions[i].ForStudent())
	}
	return view, nil
}

// CloseOverdue closes every open assessment whose due date has passed
func (s *assessmentService) CloseOverdue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.Assessment().ListDueForClosing(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue assessments: %w", err)
	}

	closed := 0
	for _, a := range due {
		if err := s.repo.Assessment().UpdateStatus(ctx, a.ID, a.Status, models.StatusClosed); err != nil {
			if repositories.IsConflictError(err) {
				s.logger.Infow("Skipping assessment changed since listing", "assessment_id", a.ID)
				continue
			}
			if repositories.IsNotFoundError(err) {
				continue
			}
			return closed, fmt.Errorf("failed to close assessment %d: %w", a.ID, err)
		}
		closed++
		publish(ctx, s.publisher, s.logger, events.AssessmentStatusChanged, events.AssessmentStatusData{
			AssessmentID: a.ID,
			From:         string(a.Status),
			To:           string(models.StatusClosed),
		})
	}
	return closed, nil
}
