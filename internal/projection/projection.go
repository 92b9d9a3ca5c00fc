package projection

import (
	"matbook-backend/internal/errors"
	"matbook-backend/internal/model"
)

// 投影规格：给定查看者ID，确定取某类实体时必须一并取回的
// 关联字段与查看者过滤条件。所有取数路径复用同一规格，
// 保证每个消费方拿到形状完全一致的对象。
//
// 查看者过滤只允许以查看者ID为参数，且每个实体每种关系
// 至多返回一行（SQL 侧用 WHERE xxx_id = ? LIMIT 1 实现）。

// UserSpec 是用户实体的投影规格
type UserSpec struct {
	ViewerID int
}

// PostSpec 是帖子实体的投影规格，内嵌作者的用户规格
type PostSpec struct {
	ViewerID int
	User     UserSpec
}

// CommentSpec 是评论实体的投影规格
type CommentSpec struct {
	ViewerID int
	User     UserSpec
}

// ForUser 返回用户投影规格。纯函数，查看者ID由调用方保证有效。
func ForUser(viewerID int) UserSpec {
	return UserSpec{ViewerID: viewerID}
}

// ForPost 返回帖子投影规格
func ForPost(viewerID int) PostSpec {
	return PostSpec{
		ViewerID: viewerID,
		User:     ForUser(viewerID),
	}
}

// ForComment 返回评论投影规格
func ForComment(viewerID int) CommentSpec {
	return CommentSpec{
		ViewerID: viewerID,
		User:     ForUser(viewerID),
	}
}

// 以下校验用于投影/派生边界：成员集合为 nil 说明取数方
// 没有按规格投影。这类错误属于编程错误，必须大声失败，
// 不允许退化成 false/0 把契约问题掩盖掉。

// ValidateUserData 校验用户投影是否完整
func ValidateUserData(u *model.UserData) error {
	if u == nil {
		return errors.New(errors.ErrProjectionMismatch, "用户投影为空")
	}
	if u.Followers == nil {
		return errors.New(errors.ErrProjectionMismatch, "用户投影缺少查看者范围的关注集合")
	}
	if u.Likes == nil || u.CommentLikes == nil {
		return errors.New(errors.ErrProjectionMismatch, "用户投影缺少查看者点赞集合")
	}
	if len(u.Followers) > 1 {
		return errors.New(errors.ErrProjectionMismatch, "查看者范围的关注集合超过一行")
	}
	return nil
}

// ValidatePostData 校验帖子投影是否完整
func ValidatePostData(p *model.PostData) error {
	if p == nil {
		return errors.New(errors.ErrProjectionMismatch, "帖子投影为空")
	}
	if p.Likes == nil {
		return errors.New(errors.ErrProjectionMismatch, "帖子投影缺少查看者范围的点赞集合")
	}
	if p.Bookmarks == nil {
		return errors.New(errors.ErrProjectionMismatch, "帖子投影缺少查看者范围的收藏集合")
	}
	if len(p.Likes) > 1 || len(p.Bookmarks) > 1 {
		return errors.New(errors.ErrProjectionMismatch, "查看者范围的成员集合超过一行")
	}
	return nil
}

// ValidateCommentData 校验评论投影是否完整
func ValidateCommentData(c *model.CommentData) error {
	if c == nil {
		return errors.New(errors.ErrProjectionMismatch, "评论投影为空")
	}
	if c.Likes == nil {
		return errors.New(errors.ErrProjectionMismatch, "评论投影缺少点赞集合")
	}
	return nil
}
