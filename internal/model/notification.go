package model

import "time"

// 通知类型
const (
	NotificationTypeLike    = "like"
	NotificationTypeFollow  = "follow"
	NotificationTypeComment = "comment"
	NotificationTypeReply   = "reply"
)

// NotificationIssuer 是通知发起者的子集字段
type NotificationIssuer struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// NotificationPost 是通知关联帖子的内容摘录
type NotificationPost struct {
	Content string `json:"content"`
}

type Notification struct {
	ID          int                `json:"id"`
	RecipientID int                `json:"recipient_id"`
	IssuerID    int                `json:"issuer_id"`
	Type        string             `json:"type"`
	PostID      *int               `json:"post_id,omitempty"`
	Read        bool               `json:"read"`
	CreatedAt   time.Time          `json:"created_at"`
	Issuer      NotificationIssuer `json:"issuer"`
	Post        *NotificationPost  `json:"post,omitempty"`
}
