package mysql

import (
	"database/sql"

	"matbook-backend/internal/model"
	"matbook-backend/internal/util"

	"go.uber.org/zap"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	query := `INSERT INTO notifications (recipient_id, issuer_id, type, post_id, is_read, created_at)
              VALUES (?, ?, ?, ?, 0, NOW())`
	result, err := r.db.Exec(query,
		notification.RecipientID, notification.IssuerID,
		notification.Type, notification.PostID)
	if err != nil {
		util.Logger.Error("创建通知失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	notification.ID = int(id)
	return nil
}

// CountUnread 统计未读通知数。只保证取数时刻的准确性，
// 展示层自行做乐观的本地递减。
func (r *notificationRepository) CountUnread(recipientID int) (int, error) {
	var count int
	err := r.db.QueryRow(`
        SELECT COUNT(*) FROM notifications
        WHERE recipient_id = ? AND is_read = 0`, recipientID).Scan(&count)
	if err != nil {
		util.Logger.Error("统计未读通知失败", zap.Error(err), zap.Int("recipient_id", recipientID))
		return 0, err
	}
	return count, nil
}

func (r *notificationRepository) List(recipientID int, page, pageSize int) ([]*model.Notification, error) {
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(`
        SELECT n.id, n.recipient_id, n.issuer_id, n.type, n.post_id, n.is_read, n.created_at,
               u.username, u.display_name, u.avatar_url,
               p.content
        FROM notifications n
        LEFT JOIN users u ON n.issuer_id = u.id
        LEFT JOIN posts p ON n.post_id = p.id
        WHERE n.recipient_id = ?
        ORDER BY n.created_at DESC, n.id DESC
        LIMIT ? OFFSET ?`, recipientID, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		var postContent sql.NullString
		err := rows.Scan(
			&n.ID, &n.RecipientID, &n.IssuerID, &n.Type, &n.PostID, &n.Read, &n.CreatedAt,
			&n.Issuer.Username, &n.Issuer.DisplayName, &n.Issuer.AvatarURL,
			&postContent,
		)
		if err != nil {
			return nil, err
		}
		if postContent.Valid {
			n.Post = &model.NotificationPost{Content: postContent.String}
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkAllRead(recipientID int) error {
	_, err := r.db.Exec(`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		util.Logger.Error("标记通知已读失败", zap.Error(err), zap.Int("recipient_id", recipientID))
	}
	return err
}

func (r *notificationRepository) Delete(id int) error {
	_, err := r.db.Exec(`DELETE FROM notifications WHERE id = ?`, id)
	return err
}
