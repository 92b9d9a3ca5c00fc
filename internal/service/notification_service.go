package service

import (
	"matbook-backend/internal/model"
	"matbook-backend/internal/repository/interfaces"
)

// NotificationService 只负责拉取与已读标记，不做实时推送
type NotificationService struct {
	repo interfaces.NotificationRepository
}

func NewNotificationService(repo interfaces.NotificationRepository) *NotificationService {
	return &NotificationService{repo}
}

func (s *NotificationService) List(recipientID, page, pageSize int) ([]*model.Notification, error) {
	return s.repo.List(recipientID, page, pageSize)
}

func (s *NotificationService) CountUnread(recipientID int) (int, error) {
	return s.repo.CountUnread(recipientID)
}

func (s *NotificationService) MarkAllRead(recipientID int) error {
	return s.repo.MarkAllRead(recipientID)
}
