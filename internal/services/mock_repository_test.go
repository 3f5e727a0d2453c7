package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/edutrack/assessment-service/internal/models"
	"github.com/edutrack/assessment-service/internal/repositories"
)

// memStore is an in-memory Repository for service tests
type memStore struct {
	mu     sync.Mutex
	nextID uint

	users         map[uint]*models.User
	secQuestions  map[uint]*models.SecurityQuestion
	assessments   map[uint]*models.Assessment
	deleted       map[uint]bool
	questions     map[uint]*models.Question
	submissions   map[uint]*models.Submission
	answers       map[uint]*models.Answer
	posts         map[uint]*models.Post
	comments      map[uint]*models.Comment
	announcements map[uint]*models.Announcement
	fileSubs      map[uint]*models.FileSubmission

	failPostCreate   error
	failFileSubmit   error
	failAnswersBatch error
	// beforeStatusWrite runs under the store lock, between a caller's read and its status write
	beforeStatusWrite func(a *models.Assessment)
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uint]*models.User{},
		secQuestions:  map[uint]*models.SecurityQuestion{},
		assessments:   map[uint]*models.Assessment{},
		deleted:       map[uint]bool{},
		questions:     map[uint]*models.Question{},
		submissions:   map[uint]*models.Submission{},
		answers:       map[uint]*models.Answer{},
		posts:         map[uint]*models.Post{},
		comments:      map[uint]*models.Comment{},
		announcements: map[uint]*models.Announcement{},
		fileSubs:      map[uint]*models.FileSubmission{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) User() repositories.UserRepository {
	return memUsers{m}
}

func (m *memStore) SecurityQuestion() repositories.SecurityQuestionRepository {
	return memSecurityQuestions{m}
}

func (m *memStore) Assessment() repositories.AssessmentRepository {
	return memAssessments{m}
}

func (m *memStore) Question() repositories.QuestionRepository {
	return memQuestions{m}
}

func (m *memStore) Submission() repositories.SubmissionRepository {
	return memSubmissions{m}
}

func (m *memStore) Answer() repositories.AnswerRepository {
	return memAnswers{m}
}

func (m *memStore) Post() repositories.PostRepository {
	return memPosts{m}
}

func (m *memStore) Comment() repositories.CommentRepository {
	return memComments{m}
}

func (m *memStore) Announcement() repositories.AnnouncementRepository {
	return memAnnouncements{m}
}

func (m *memStore) FileSubmission() repositories.FileSubmissionRepository {
	return memFileSubmissions{m}
}

func (m *memStore) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *memStore) Ping(ctx context.Context) error {
	return nil
}

func (m *memStore) Close() error {
	return nil
}

// memManager adapts memStore to RepositoryManager
type memManager struct{ store *memStore }

func (mm memManager) Initialize() error {
	return nil
}

func (mm memManager) GetRepository() repositories.Repository {
	return mm.store
}

func (mm memManager) HealthCheck(ctx context.Context) error {
	return nil
}

func (mm memManager) Shutdown(ctx context.Context) error {
	return nil
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func duplicate(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrDuplicate)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ===== USERS =====

type memUsers struct{ m *memStore }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Username, user.Username) {
			return duplicate("create user")
		}
	}
	user.ID = r.m.id()
	user.CreatedAt = time.Now()
	c := *user
	r.m.users[user.ID] = &c
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, notFound("get user")
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Username, username) {
			c := *u
			return &c, nil
		}
	}
	return nil, notFound("get user")
}

func (r memUsers) GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memUsers) Update(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; !ok {
		return notFound("update user")
	}
	c := *user
	r.m.users[user.ID] = &c
	return nil
}

func (r memUsers) List(ctx context.Context, f repositories.UserFilters) ([]*models.User, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.User
	for _, u := range r.m.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.Section != nil && u.SectionName() != *f.Section {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(u.Username), q) && !strings.Contains(strings.ToLower(u.FullName), q) {
				continue
			}
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r memUsers) ListSections(ctx context.Context) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, u := range r.m.users {
		if s := u.SectionName(); u.Role == models.RoleStudent && s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r memUsers) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, u := range r.m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memSecurityQuestions struct{ m *memStore }

func (r memSecurityQuestions) Upsert(ctx context.Context, q *models.SecurityQuestion) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing, ok := r.m.secQuestions[q.UserID]; ok {
		q.ID = existing.ID
	} else {
		q.ID = r.m.id()
	}
	c := *q
	r.m.secQuestions[q.UserID] = &c
	return nil
}

func (r memSecurityQuestions) GetByUserID(ctx context.Context, userID uint) (*models.SecurityQuestion, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.secQuestions[userID]
	if !ok {
		return nil, notFound("get security question")
	}
	c := *q
	return &c, nil
}

// ===== ASSESSMENTS =====

type memAssessments struct{ m *memStore }

func (r memAssessments) Create(ctx context.Context, a *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a.ID = r.m.id()
	a.CreatedAt = time.Now()
	if a.Sections == nil {
		a.Sections = []string{}
	}
	for i := range a.Questions {
		a.Questions[i].ID = r.m.id()
		a.Questions[i].AssessmentID = a.ID
		q := a.Questions[i]
		r.m.questions[q.ID] = &q
	}
	c := *a
	c.Questions = nil
	r.m.assessments[a.ID] = &c
	return nil
}

func (r memAssessments) get(id uint) (*models.Assessment, error) {
	a, ok := r.m.assessments[id]
	if !ok || r.m.deleted[id] {
		return nil, notFound("get assessment")
	}
	c := *a
	return &c, nil
}

func (r memAssessments) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.get(id)
}

func (r memAssessments) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, err := r.get(id)
	if err != nil {
		return nil, err
	}
	for _, q := range r.m.sortedQuestions(id) {
		a.Questions = append(a.Questions, *q)
		a.TotalPoints += q.Points
	}
	a.QuestionsCount = len(a.Questions)
	return a, nil
}

func (r memAssessments) Update(ctx context.Context, a *models.Assessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.get(a.ID); err != nil {
		return err
	}
	c := *a
	c.Questions = nil
	r.m.assessments[a.ID] = &c
	return nil
}

func (r memAssessments) UpdateStatus(ctx context.Context, id uint, from, to models.AssessmentStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.get(id); err != nil {
		return err
	}
	if r.m.beforeStatusWrite != nil {
		r.m.beforeStatusWrite(r.m.assessments[id])
	}
	if r.m.assessments[id].Status != from {
		return fmt.Errorf("update status: %w", repositories.ErrConflict)
	}
	r.m.assessments[id].Status = to
	return nil
}

func (r memAssessments) Delete(ctx context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.get(id); err != nil {
		return err
	}
	r.m.deleted[id] = true
	return nil
}

func (r memAssessments) List(ctx context.Context, f repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Assessment
	for id := range r.m.assessments {
		a, err := r.get(id)
		if err != nil {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (r memAssessments) ListOpenForSection(ctx context.Context, section string) ([]*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Assessment
	for id := range r.m.assessments {
		a, err := r.get(id)
		if err != nil || !a.IsOpen() || !a.TargetsSection(section) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAssessments) ListDueForClosing(ctx context.Context, now time.Time) ([]*models.Assessment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Assessment
	for id := range r.m.assessments {
		a, err := r.get(id)
		if err != nil || !a.IsOpen() || a.DueDate == nil || !a.DueDate.Before(now) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ===== QUESTIONS =====

func (m *memStore) sortedQuestions(assessmentID uint) []*models.Question {
	var out []*models.Question
	for _, q := range m.questions {
		if q.AssessmentID == assessmentID {
			c := *q
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memQuestions struct{ m *memStore }

func (r memQuestions) Create(ctx context.Context, q *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q.ID = r.m.id()
	c := *q
	r.m.questions[q.ID] = &c
	return nil
}

func (r memQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.questions[id]
	if !ok {
		return nil, notFound("get question")
	}
	c := *q
	return &c, nil
}

func (r memQuestions) Update(ctx context.Context, q *models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.questions[q.ID]; !ok {
		return notFound("update question")
	}
	c := *q
	r.m.questions[q.ID] = &c
	return nil
}

func (r memQuestions) Delete(ctx context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.questions[id]; !ok {
		return notFound("delete question")
	}
	delete(r.m.questions, id)
	return nil
}

func (r memQuestions) ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.sortedQuestions(assessmentID), nil
}

func (r memQuestions) NextOrderIndex(ctx context.Context, assessmentID uint) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	next := 1
	for _, q := range r.m.questions {
		if q.AssessmentID == assessmentID && q.OrderIndex >= next {
			next = q.OrderIndex + 1
		}
	}
	return next, nil
}

func (r memQuestions) UpdateOrder(ctx context.Context, assessmentID uint, orders []repositories.QuestionOrder) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, o := range orders {
		q, ok := r.m.questions[o.QuestionID]
		if !ok || q.AssessmentID != assessmentID {
			return notFound("reorder questions")
		}
	}
	for _, o := range orders {
		r.m.questions[o.QuestionID].OrderIndex = o.OrderIndex
	}
	return nil
}

// ===== SUBMISSIONS =====

type memSubmissions struct{ m *memStore }

func (r memSubmissions) Create(ctx context.Context, s *models.Submission) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.submissions {
		if existing.AssessmentID == s.AssessmentID && existing.StudentID == s.StudentID {
			return duplicate("create submission")
		}
	}
	s.ID = r.m.id()
	c := *s
	c.Answers = nil
	r.m.submissions[s.ID] = &c
	return nil
}

func (r memSubmissions) get(id uint) (*models.Submission, error) {
	s, ok := r.m.submissions[id]
	if !ok {
		return nil, notFound("get submission")
	}
	c := *s
	return &c, nil
}

func (r memSubmissions) withStudent(s *models.Submission) *models.Submission {
	if u, ok := r.m.users[s.StudentID]; ok {
		c := *u
		s.Student = &c
	}
	return s
}

func (r memSubmissions) GetByID(ctx context.Context, id uint) (*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.get(id)
}

func (r memSubmissions) GetByIDForUpdate(ctx context.Context, id uint) (*models.Submission, error) {
	return r.GetByID(ctx, id)
}

func (r memSubmissions) GetByIDWithAnswers(ctx context.Context, id uint) (*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	r.withStudent(s)
	if a, ok := r.m.assessments[s.AssessmentID]; ok {
		c := *a
		s.Assessment = &c
	}
	for _, a := range r.m.answersOf(id) {
		s.Answers = append(s.Answers, *a)
	}
	return s, nil
}

func (r memSubmissions) GetByAssessmentAndStudent(ctx context.Context, assessmentID, studentID uint) (*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.submissions {
		if s.AssessmentID == assessmentID && s.StudentID == studentID {
			c := *s
			return &c, nil
		}
	}
	return nil, notFound("get submission")
}

func (r memSubmissions) Update(ctx context.Context, s *models.Submission) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.submissions[s.ID]; !ok {
		return notFound("update submission")
	}
	c := *s
	c.Answers, c.Student, c.Assessment = nil, nil, nil
	r.m.submissions[s.ID] = &c
	return nil
}

func (r memSubmissions) list(keep func(*models.Submission) bool) []*models.Submission {
	var out []*models.Submission
	for _, s := range r.m.submissions {
		if keep(s) {
			c := *s
			out = append(out, r.withStudent(&c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memSubmissions) ListByAssessment(ctx context.Context, assessmentID uint, f repositories.SubmissionFilters) ([]*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.list(func(s *models.Submission) bool {
		return s.AssessmentID == assessmentID && (!f.GradedOnly || s.Graded)
	}), nil
}

func (r memSubmissions) ListByStudent(ctx context.Context, studentID uint) ([]*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := r.list(func(s *models.Submission) bool { return s.StudentID == studentID })
	for _, s := range out {
		if a, ok := r.m.assessments[s.AssessmentID]; ok {
			c := *a
			s.Assessment = &c
		}
	}
	return out, nil
}

func (r memSubmissions) CountByAssessment(ctx context.Context, assessmentID uint) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, s := range r.m.submissions {
		if s.AssessmentID == assessmentID {
			n++
		}
	}
	return n, nil
}

func (r memSubmissions) ListPendingByAssessment(ctx context.Context, assessmentID uint) ([]*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.list(func(s *models.Submission) bool {
		return s.AssessmentID == assessmentID && !s.Graded
	}), nil
}

// ===== ANSWERS =====

func (m *memStore) answersOf(submissionID uint) []*models.Answer {
	var out []*models.Answer
	for _, a := range m.answers {
		if a.SubmissionID == submissionID {
			c := *a
			if q, ok := m.questions[a.QuestionID]; ok {
				qc := *q
				c.Question = &qc
			}
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memAnswers struct{ m *memStore }

func (r memAnswers) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAnswersBatch != nil {
		return r.m.failAnswersBatch
	}
	for _, a := range answers {
		a.ID = r.m.id()
		c := *a
		c.Question = nil
		r.m.answers[a.ID] = &c
	}
	return nil
}

func (r memAnswers) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.answers[id]
	if !ok {
		return nil, notFound("get answer")
	}
	c := *a
	if q, ok := r.m.questions[a.QuestionID]; ok {
		qc := *q
		c.Question = &qc
	}
	return &c, nil
}

func (r memAnswers) Update(ctx context.Context, a *models.Answer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.answers[a.ID]; !ok {
		return notFound("update answer")
	}
	c := *a
	c.Question = nil
	r.m.answers[a.ID] = &c
	return nil
}

func (r memAnswers) ListBySubmission(ctx context.Context, submissionID uint) ([]*models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.answersOf(submissionID), nil
}

func (r memAnswers) ListByAssessment(ctx context.Context, assessmentID uint) ([]*models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Answer
	for _, s := range r.m.submissions {
		if s.AssessmentID == assessmentID {
			out = append(out, r.m.answersOf(s.ID)...)
		}
	}
	return out, nil
}

// ===== CONTENT =====

type memPosts struct{ m *memStore }

func (r memPosts) Create(ctx context.Context, p *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failPostCreate != nil {
		return r.m.failPostCreate
	}
	p.ID = r.m.id()
	p.CreatedAt = time.Now()
	c := *p
	r.m.posts[p.ID] = &c
	return nil
}

func (r memPosts) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.posts[id]
	if !ok {
		return nil, notFound("get post")
	}
	c := *p
	return &c, nil
}

func (r memPosts) Delete(ctx context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[id]; !ok {
		return notFound("delete post")
	}
	delete(r.m.posts, id)
	return nil
}

func (r memPosts) List(ctx context.Context, f repositories.ContentFilters) ([]*models.Post, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Post
	for _, p := range r.m.posts {
		if f.Section != nil && !models.TargetsSection(p.TargetSections, *f.Section) {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}

type memComments struct{ m *memStore }

func (r memComments) Create(ctx context.Context, c *models.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c.ID = r.m.id()
	cp := *c
	r.m.comments[c.ID] = &cp
	return nil
}

func (r memComments) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.comments[id]
	if !ok {
		return nil, notFound("get comment")
	}
	cp := *c
	return &cp, nil
}

func (r memComments) Delete(ctx context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[id]; !ok {
		return notFound("delete comment")
	}
	delete(r.m.comments, id)
	return nil
}

func (r memComments) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Comment
	for _, c := range r.m.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memComments) CountByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	counts := make(map[uint]int64, len(postIDs))
	for _, c := range r.m.comments {
		for _, id := range postIDs {
			if c.PostID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

type memAnnouncements struct{ m *memStore }

func (r memAnnouncements) Create(ctx context.Context, a *models.Announcement) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a.ID = r.m.id()
	c := *a
	r.m.announcements[a.ID] = &c
	return nil
}

func (r memAnnouncements) GetByID(ctx context.Context, id uint) (*models.Announcement, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.announcements[id]
	if !ok {
		return nil, notFound("get announcement")
	}
	c := *a
	return &c, nil
}

func (r memAnnouncements) Delete(ctx context.Context, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.announcements[id]; !ok {
		return notFound("delete announcement")
	}
	delete(r.m.announcements, id)
	return nil
}

func (r memAnnouncements) List(ctx context.Context, f repositories.ContentFilters) ([]*models.Announcement, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Announcement
	for _, a := range r.m.announcements {
		if f.Section != nil && !models.TargetsSection(a.Sections, *f.Section) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, f.Limit, f.Offset), int64(len(out)), nil
}

type memFileSubmissions struct{ m *memStore }

func (r memFileSubmissions) Create(ctx context.Context, s *models.FileSubmission) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failFileSubmit != nil {
		return r.m.failFileSubmit
	}
	s.ID = r.m.id()
	c := *s
	r.m.fileSubs[s.ID] = &c
	return nil
}

func (r memFileSubmissions) GetByID(ctx context.Context, id uint) (*models.FileSubmission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.fileSubs[id]
	if !ok {
		return nil, notFound("get file submission")
	}
	c := *s
	return &c, nil
}

func (r memFileSubmissions) list(keep func(*models.FileSubmission) bool) []*models.FileSubmission {
	var out []*models.FileSubmission
	for _, s := range r.m.fileSubs {
		if keep(s) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memFileSubmissions) ListByPost(ctx context.Context, postID uint) ([]*models.FileSubmission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.list(func(s *models.FileSubmission) bool { return s.PostID == postID }), nil
}

func (r memFileSubmissions) ListByStudent(ctx context.Context, studentID uint) ([]*models.FileSubmission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.list(func(s *models.FileSubmission) bool { return s.StudentID == studentID }), nil
}

// ===== FILE STORE =====

// memFiles is an in-memory storage.FileStore
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
	n     int
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string][]byte{}}
}

func (f *memFiles) Save(ctx context.Context, category, originalName string, src io.Reader) (string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	path := fmt.Sprintf("%s/%d_%s", category, f.n, originalName)
	f.files[path] = data
	return path, nil
}

func (f *memFiles) Remove(ctx context.Context, relPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[relPath]; !ok {
		return errors.New("no such file")
	}
	delete(f.files, relPath)
	return nil
}

func (f *memFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}
