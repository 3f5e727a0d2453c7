package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edutrack/assessment-service/internal/events"
	"github.com/edutrack/assessment-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps a 1-based page and size and returns the row offset
func normalizePage(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, (page - 1) * size
}

func requireAdmin(actor Actor, resourceID uint, resource, action string) error {
	if actor.IsAdmin() {
		return nil
	}
	return NewPermissionError(actor.ID, resourceID, resource, action, "admin role required")
}

// viewerSection is the targeting filter for content lists. Admins see everything.
func viewerSection(viewer Actor) *string {
	if viewer.IsAdmin() {
		return nil
	}
	section := viewer.Section
	return &section
}

// mapNotFound swaps a repository not-found for the service sentinel
func mapNotFound(err error, notFound error, op string) error {
	if repositories.IsNotFoundError(err) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// publish sends an event without failing the operation that produced it
func publish(ctx context.Context, publisher events.EventPublisher, logger *zap.SugaredLogger, eventType string, data interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, eventType, data); err != nil {
		logger.Warnw("Failed to publish event", "type", eventType, "error", err)
	}
}
