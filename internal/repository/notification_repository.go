package repository

import (
	"context"

	"network-orchestrator-be/internal/model"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	// GetNotificationsByContextID lists newest first. An empty contextID
	// lists every context.
	GetNotificationsByContextID(ctx context.Context, contextID string, limit, offset int) ([]model.Notification, int64, error)
}
