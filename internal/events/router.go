package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/metrics"
)

// StatisticsInvalidator drops cached statistics for an assessment
type StatisticsInvalidator interface {
	InvalidateStatistics(ctx context.Context, assessmentID uint)
}

// NewRouter wires the consumers that keep derived state in step with domain events
func NewRouter(sub message.Subscriber, stats StatisticsInvalidator, logger *zap.SugaredLogger, wmLogger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)

	h := &statisticsHandler{stats: stats, logger: logger}
	for _, topic := range []string{SubmissionCreated, SubmissionGraded, AnswerGraded} {
		router.AddNoPublisherHandler("statistics_"+topic, topic, sub, h.Handle)
	}
	return router, nil
}

type statisticsHandler struct {
	stats  StatisticsInvalidator
	logger *zap.SugaredLogger
}

// Handle invalidates the statistics of the assessment named in the payload.
// Malformed messages are logged and acked so they do not block the topic.
func (h *statisticsHandler) Handle(msg *message.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Warnw("Dropping malformed event", "message_uuid", msg.UUID, "error", err)
		return nil
	}

	var ref struct {
		AssessmentID uint `json:"assessment_id"`
	}
	if err := event.DecodeData(&ref); err != nil || ref.AssessmentID == 0 {
		h.logger.Warnw("Event without assessment id", "event_id", event.ID, "type", event.Type)
		return nil
	}

	h.stats.InvalidateStatistics(msg.Context(), ref.AssessmentID)
	metrics.EventsConsumed.WithLabelValues(event.Type).Inc()
	h.logger.Debugw("Statistics invalidated", "assessment_id", ref.AssessmentID, "type", event.Type)
	return nil
}
