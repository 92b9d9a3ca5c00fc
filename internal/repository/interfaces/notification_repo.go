package interfaces

import "matbook-backend/internal/model"

// NotificationRepository 定义了通知相关的数据库操作接口。
// 通知由服务端动作创建，这一层只负责计数、列表与已读标记，
// 不做任何实时推送。
type NotificationRepository interface {
	Create(notification *model.Notification) error
	// CountUnread 统计某接收者的未读通知数，只保证取数时刻的准确性
	CountUnread(recipientID int) (int, error)
	List(recipientID int, page, pageSize int) ([]*model.Notification, error)
	MarkAllRead(recipientID int) error
	Delete(id int) error
}
