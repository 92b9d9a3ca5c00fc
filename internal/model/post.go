package model

import "time"

type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment 表示帖子附件，Position 决定展示顺序
type Attachment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	URL       string    `json:"url"`
	MediaType string    `json:"media_type"` // image / video
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type Like struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Bookmark struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostsPage 是分页信封。NextCursor 为不透明游标，
// 调用方只能原样传回，不得解析或构造；nil 表示没有下一页。
type PostsPage struct {
	Posts      []*PostData `json:"posts"`
	NextCursor *string     `json:"next_cursor"`
}
