package model

// 投影结果类型。每个实体在某一查看者视角下被取出时，
// 必须带上这里声明的全部关联字段与计数，保证同一快照内自洽。
//
// 查看者范围的成员集合（Followers / Likes / Bookmarks）约定：
// nil 表示该关系未被投影（属于层间契约被破坏，派生层会报错），
// 空切片表示已投影但查看者不是成员。聚合计数与成员集合相互独立：
// 一个 likeCount=50 且查看者集合为空的帖子，含义是"别人点过赞，查看者没有"。

// FollowRef 是查看者范围内的关注关系行，每个用户最多一行
type FollowRef struct {
	FollowerID int `json:"follower_id"`
}

// LikeRef 是一条点赞关系行
type LikeRef struct {
	UserID int `json:"user_id"`
}

// BookmarkRef 是查看者范围内的收藏关系行，每个帖子最多一行
type BookmarkRef struct {
	UserID int `json:"user_id"`
}

type UserCounts struct {
	Posts        int `json:"posts"`
	Followers    int `json:"followers"`
	Likes        int `json:"likes"`
	Comments     int `json:"comments"`
	CommentLikes int `json:"comment_likes"`
}

type PostCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

type CommentCounts struct {
	Likes int `json:"likes"`
}

// UserData 是用户实体的完整投影
type UserData struct {
	User
	Followers    []FollowRef `json:"followers"`     // 查看者范围，{0,1} 行
	Likes        []LikeRef   `json:"likes"`         // 查看者对该用户内容的点赞
	CommentLikes []LikeRef   `json:"comment_likes"` // 查看者对该用户评论的点赞
	Counts       UserCounts  `json:"_count"`
}

// PostData 是帖子实体的完整投影
type PostData struct {
	Post
	User        UserData      `json:"user"`
	Attachments []Attachment  `json:"attachments"`
	Likes       []LikeRef     `json:"likes"`     // 查看者范围，{0,1} 行
	Bookmarks   []BookmarkRef `json:"bookmarks"` // 查看者范围，{0,1} 行
	Counts      PostCounts    `json:"_count"`
}

// CommentData 是评论实体的完整投影。
// Likes 未按查看者过滤，只在派生层做成员判断用。
type CommentData struct {
	Comment
	User   UserData      `json:"user"`
	Likes  []LikeRef     `json:"likes"`
	Counts CommentCounts `json:"_count"`
}

// FollowerInfo 是关注交互状态。IsFollowedByUser 只能由
// 查看者范围的关注集合推出，不得用聚合计数反推。
type FollowerInfo struct {
	Followers        int  `json:"followers"`
	IsFollowedByUser bool `json:"is_followed_by_user"`
}

type LikeInfo struct {
	Likes         int  `json:"likes"`
	IsLikedByUser bool `json:"is_liked_by_user"`
}

type BookmarkInfo struct {
	IsBookmarkedByUser bool `json:"is_bookmarked_by_user"`
}

type NotificationCountInfo struct {
	UnreadCount int `json:"unread_count"`
}
