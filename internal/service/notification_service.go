package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/model"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/internal/repository"
	"network-orchestrator-be/pkg/orchestrator"

	"gorm.io/datatypes"
)

var ErrHistoryUnavailable = errors.New("notification history requires a database")

// NotificationDelivery pushes real-time updates. Implemented by the
// WebSocket Hub.
type NotificationDelivery interface {
	Send(ctx context.Context, contextID string, message []byte) error
}

// NotificationService delivers surface notifications and records them.
type NotificationService struct {
	repo     repository.NotificationRepository
	delivery NotificationDelivery
	logger   logger.ILogger
}

var _ orchestrator.Notifier = &NotificationService{}

// NewNotificationService accepts a nil repo; history is then not recorded.
func NewNotificationService(repo repository.NotificationRepository, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		delivery: delivery,
		logger:   log,
	}
}

// Notify implements orchestrator.Notifier. Delivery failures wrap
// orchestrator.ErrDeliveryFailed; recording failures are only logged.
func (s *NotificationService) Notify(ctx context.Context, n entity.SurfaceNotification) error {
	data, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": n,
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %v", orchestrator.ErrDeliveryFailed, err)
	}

	var deliveryErr error
	if s.delivery == nil {
		deliveryErr = fmt.Errorf("%w: no delivery channel", orchestrator.ErrDeliveryFailed)
	} else if err := s.delivery.Send(ctx, n.ContextID, data); err != nil {
		deliveryErr = fmt.Errorf("%w: %v", orchestrator.ErrDeliveryFailed, err)
	}
	n.Delivered = deliveryErr == nil

	s.logger.Info("NotificationService", "Surface notification", map[string]interface{}{
		"id":         n.ID.String(),
		"context_id": n.ContextID,
		"kind":       string(n.Kind),
		"state":      n.State.String(),
		"delivered":  n.Delivered,
	})

	if s.repo != nil {
		record := &model.Notification{
			ID:        n.ID,
			ContextID: n.ContextID,
			Kind:      string(n.Kind),
			State:     n.State.String(),
			Payload:   datatypes.JSON(n.Payload),
			Delivered: n.Delivered,
			CreatedAt: n.CreatedAt,
		}
		if err := s.repo.CreateNotification(ctx, record); err != nil {
			s.logger.Error("NotificationService", "Error saving notification", map[string]interface{}{
				"id":    n.ID.String(),
				"error": err.Error(),
			})
		}
	}

	return deliveryErr
}

func (s *NotificationService) GetNotifications(ctx context.Context, contextID string, limit, offset int) ([]model.Notification, int64, error) {
	if s.repo == nil {
		return nil, 0, ErrHistoryUnavailable
	}
	return s.repo.GetNotificationsByContextID(ctx, contextID, limit, offset)
}
