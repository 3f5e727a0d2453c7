package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	SourceService = "assessment-service"
	EventVersion  = "1.0"
)

// Event types double as topic names
const (
	SubmissionCreated       = "submission.created"
	SubmissionGraded        = "submission.graded"
	AnswerGraded            = "answer.graded"
	AssessmentStatusChanged = "assessment.status_changed"
	AnnouncementPublished   = "announcement.published"
)

// Event is the envelope published for every domain change
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEvent(eventType string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    SourceService,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// DecodeData unmarshals the payload into dest
func (e *Event) DecodeData(dest interface{}) error {
	return json.Unmarshal(e.Data, dest)
}

type SubmissionEventData struct {
	SubmissionID uint    `json:"submission_id"`
	AssessmentID uint    `json:"assessment_id"`
	StudentID    uint    `json:"student_id"`
	TotalScore   float64 `json:"total_score"`
	MaxScore     int     `json:"max_score"`
	Graded       bool    `json:"graded"`
	PendingCount int     `json:"pending_count"`
	GradedBy     *uint   `json:"graded_by,omitempty"`
}

type AnswerGradedData struct {
	AnswerID     uint    `json:"answer_id"`
	SubmissionID uint    `json:"submission_id"`
	AssessmentID uint    `json:"assessment_id"`
	PointsEarned float64 `json:"points_earned"`
	GradedBy     uint    `json:"graded_by"`
}

type AssessmentStatusData struct {
	AssessmentID uint   `json:"assessment_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	ChangedBy    *uint  `json:"changed_by,omitempty"`
}

type AnnouncementData struct {
	AnnouncementID uint     `json:"announcement_id"`
	Title          string   `json:"title"`
	Sections       []string `json:"sections"`
}

// EventPublisher is what services depend on
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
	Close() error
}
