package repositories

import "context"

// Repository groups every repository behind one handle
type Repository interface {
	// User domain
	User() UserRepository
	SecurityQuestion() SecurityQuestionRepository

	// Assessment domain
	Assessment() AssessmentRepository
	Question() QuestionRepository

	// Submission domain
	Submission() SubmissionRepository
	Answer() AnswerRepository

	// Content domain
	Post() PostRepository
	Comment() CommentRepository
	Announcement() AnnouncementRepository
	FileSubmission() FileSubmissionRepository

	// WithTransaction runs fn with repositories bound to one transaction.
	// Returning an error rolls back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
