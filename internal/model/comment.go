package model

import "time"

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentLike struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	CommentID int       `json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ReplyUser 是回复里内嵌的最小用户信息
type ReplyUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Reply 表示对评论的回复。注意 Reply 不是 Comment 的子类型：
// 展示时需要的原评论者信息（@前缀）不内嵌在此结构里，
// 由持有父评论的调用方提供。
type Reply struct {
	ID        int       `json:"id"`
	CommentID int       `json:"comment_id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      ReplyUser `json:"user"`
}
