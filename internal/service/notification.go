package service

import (
	"context"
	"fmt"
	"log"

	"ripplr_backend/internal/model"
	"ripplr_backend/internal/repository"
)

const notificationPageLimit = 50

// NotificationService stores and lists in-app notifications. The feed
// worker calls CreateNotification when it processes engagement events.
type NotificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// CreateNotification persists a notification for userID about actorID's
// action. Self-notifications are dropped here as a final guard.
func (s *NotificationService) CreateNotification(ctx context.Context, userID, actorID int64, notifType string, postID *int64) error {
	if userID == actorID {
		return nil
	}
	if err := s.repo.Create(ctx, userID, actorID, notifType, postID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	log.Printf("[NotificationService] Created: user=%d actor=%d type=%s", userID, actorID, notifType)
	return nil
}

// List returns the user's recent notifications with the unread count.
func (s *NotificationService) List(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 || limit > notificationPageLimit {
		limit = notificationPageLimit
	}

	notifications, unread, err := s.repo.GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

// MarkRead marks the given notifications read; with no IDs it marks all.
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return s.repo.MarkAllAsRead(ctx, userID)
	}
	return s.repo.MarkAsRead(ctx, userID, ids)
}
