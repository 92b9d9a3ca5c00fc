package interfaces

import (
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
)

// FeedRepository 定义了信息流相关的数据库操作接口。
// 所有返回投影类型的方法都必须按传入的投影规格取数，
// 查看者范围的成员查询以查看者ID为唯一参数，至多返回一行。
type FeedRepository interface {
	CreatePost(post *model.Post, attachments []model.Attachment) error
	GetPostByID(id int, spec projection.PostSpec) (*model.PostData, error)
	DeletePost(id int) error
	// ListPosts 按游标分页返回全站帖子。cursor 为 nil 表示第一页，
	// 返回的 NextCursor 为 nil 表示没有下一页。
	ListPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error)
	// ListFollowingPosts 返回查看者关注的用户的帖子
	ListFollowingPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error)
	// ListBookmarkedPosts 返回查看者收藏的帖子
	ListBookmarkedPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error)
	ListUserPosts(userID int, spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error)

	CreateComment(comment *model.Comment) error
	GetCommentByID(id int, spec projection.CommentSpec) (*model.CommentData, error)
	ListComments(postID int, spec projection.CommentSpec, page, pageSize int) ([]*model.CommentData, error)
	DeleteComment(id int) error

	CreateReply(reply *model.Reply) error
	GetReplyByID(id int) (*model.Reply, error)
	// ListReplies 按创建时间升序返回某条评论的全部回复
	ListReplies(commentID int) ([]*model.Reply, error)
	DeleteReply(id int) error

	CreateLike(userID, postID int) error
	DeleteLike(userID, postID int) error
	GetLikeCount(postID int) (int, error)
	CreateCommentLike(userID, commentID int) error
	DeleteCommentLike(userID, commentID int) error
	CreateBookmark(userID, postID int) error
	DeleteBookmark(userID, postID int) error

	CreateFollow(follow *model.Follow) error
	DeleteFollow(followerID, followedID int) error
	GetFollowerCount(userID int) (int, error)
	IsFollowing(followerID, followedID int) (bool, error)
}
