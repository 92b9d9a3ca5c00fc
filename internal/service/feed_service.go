package service

import (
	"context"

	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/repository/interfaces"
	svcerr "matbook-backend/internal/service/errors"
)

// unreadInvalidator 在通知落库后清掉接收者的未读计数缓存，
// 否则缓存命中会把新通知藏到 TTL 过期
type unreadInvalidator interface {
	InvalidateUnread(ctx context.Context, recipientID int)
}

// FeedService 封装信息流的读写。读路径按投影规格取数，
// 写路径在点赞/关注/评论/回复成功后创建通知。
// 同时实现 thread.ReplyFetcher / thread.ReplyDeleter，
// 供回复协调引擎作为规范存储使用。
type FeedService struct {
	repo      interfaces.FeedRepository
	userRepo  interfaces.UserRepository
	notifRepo interfaces.NotificationRepository
	unread    unreadInvalidator // 可为 nil（未启用缓存）
}

func NewFeedService(repo interfaces.FeedRepository, userRepo interfaces.UserRepository, notifRepo interfaces.NotificationRepository, unread unreadInvalidator) *FeedService {
	return &FeedService{
		repo:      repo,
		userRepo:  userRepo,
		notifRepo: notifRepo,
		unread:    unread,
	}
}

// notify 创建通知并使接收者的未读计数缓存失效
func (s *FeedService) notify(n *model.Notification) error {
	if err := s.notifRepo.Create(n); err != nil {
		return err
	}
	if s.unread != nil {
		s.unread.InvalidateUnread(context.Background(), n.RecipientID)
	}
	return nil
}

func (s *FeedService) CreatePost(post *model.Post, attachments []model.Attachment) error {
	return s.repo.CreatePost(post, attachments)
}

func (s *FeedService) GetPostByID(id int, spec projection.PostSpec) (*model.PostData, error) {
	return s.repo.GetPostByID(id, spec)
}

func (s *FeedService) DeletePost(id, viewerID int) error {
	post, err := s.repo.GetPostByID(id, projection.ForPost(viewerID))
	if err != nil {
		return err
	}
	if post == nil {
		return svcerr.New(svcerr.ErrNotFound, "帖子不存在")
	}
	if post.UserID != viewerID {
		return svcerr.New(svcerr.ErrForbidden, "只能删除自己的帖子")
	}
	return s.repo.DeletePost(id)
}

func (s *FeedService) ListPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	return s.repo.ListPosts(spec, cursor, pageSize)
}

func (s *FeedService) ListFollowingPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	return s.repo.ListFollowingPosts(spec, cursor, pageSize)
}

func (s *FeedService) ListBookmarkedPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	return s.repo.ListBookmarkedPosts(spec, cursor, pageSize)
}

func (s *FeedService) ListUserPosts(userID int, spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	return s.repo.ListUserPosts(userID, spec, cursor, pageSize)
}

// LikePost 点赞并通知帖子作者（自己给自己点赞不通知）
func (s *FeedService) LikePost(userID, postID int) error {
	if err := s.repo.CreateLike(userID, postID); err != nil {
		return err
	}
	post, err := s.repo.GetPostByID(postID, projection.ForPost(userID))
	if err != nil || post == nil {
		return err
	}
	if post.UserID != userID {
		return s.notify(&model.Notification{
			RecipientID: post.UserID,
			IssuerID:    userID,
			Type:        model.NotificationTypeLike,
			PostID:      &postID,
		})
	}
	return nil
}

func (s *FeedService) UnlikePost(userID, postID int) error {
	return s.repo.DeleteLike(userID, postID)
}

func (s *FeedService) LikeComment(userID, commentID int) error {
	return s.repo.CreateCommentLike(userID, commentID)
}

func (s *FeedService) UnlikeComment(userID, commentID int) error {
	return s.repo.DeleteCommentLike(userID, commentID)
}

func (s *FeedService) BookmarkPost(userID, postID int) error {
	return s.repo.CreateBookmark(userID, postID)
}

func (s *FeedService) UnbookmarkPost(userID, postID int) error {
	return s.repo.DeleteBookmark(userID, postID)
}

// FollowUser 关注并通知被关注者
func (s *FeedService) FollowUser(followerID, followedID int) error {
	if followerID == followedID {
		return svcerr.New(svcerr.ErrInvalidInput, "不能关注自己")
	}
	if err := s.repo.CreateFollow(&model.Follow{FollowerID: followerID, FollowedID: followedID}); err != nil {
		return err
	}
	return s.notify(&model.Notification{
		RecipientID: followedID,
		IssuerID:    followerID,
		Type:        model.NotificationTypeFollow,
	})
}

func (s *FeedService) UnfollowUser(followerID, followedID int) error {
	return s.repo.DeleteFollow(followerID, followedID)
}

func (s *FeedService) IsFollowing(followerID, followedID int) (bool, error) {
	return s.repo.IsFollowing(followerID, followedID)
}

// CreateComment 创建评论并通知帖子作者
func (s *FeedService) CreateComment(comment *model.Comment) error {
	if err := s.repo.CreateComment(comment); err != nil {
		return err
	}
	post, err := s.repo.GetPostByID(comment.PostID, projection.ForPost(comment.UserID))
	if err != nil || post == nil {
		return err
	}
	if post.UserID != comment.UserID {
		return s.notify(&model.Notification{
			RecipientID: post.UserID,
			IssuerID:    comment.UserID,
			Type:        model.NotificationTypeComment,
			PostID:      &comment.PostID,
		})
	}
	return nil
}

func (s *FeedService) GetCommentByID(id int, spec projection.CommentSpec) (*model.CommentData, error) {
	return s.repo.GetCommentByID(id, spec)
}

func (s *FeedService) ListComments(postID int, spec projection.CommentSpec, page, pageSize int) ([]*model.CommentData, error) {
	return s.repo.ListComments(postID, spec, page, pageSize)
}

func (s *FeedService) DeleteComment(id, viewerID int) error {
	comment, err := s.repo.GetCommentByID(id, projection.ForComment(viewerID))
	if err != nil {
		return err
	}
	if comment == nil {
		return svcerr.New(svcerr.ErrNotFound, "评论不存在")
	}
	if comment.UserID != viewerID {
		return svcerr.New(svcerr.ErrForbidden, "只能删除自己的评论")
	}
	return s.repo.DeleteComment(id)
}

// CreateReply 创建回复并通知原评论者
func (s *FeedService) CreateReply(reply *model.Reply) error {
	if err := s.repo.CreateReply(reply); err != nil {
		return err
	}
	comment, err := s.repo.GetCommentByID(reply.CommentID, projection.ForComment(reply.UserID))
	if err != nil || comment == nil {
		return err
	}
	if comment.UserID != reply.UserID {
		return s.notify(&model.Notification{
			RecipientID: comment.UserID,
			IssuerID:    reply.UserID,
			Type:        model.NotificationTypeReply,
			PostID:      &comment.PostID,
		})
	}
	return nil
}

func (s *FeedService) GetReplyByID(id int) (*model.Reply, error) {
	return s.repo.GetReplyByID(id)
}

// FetchReplies 实现 thread.ReplyFetcher
func (s *FeedService) FetchReplies(ctx context.Context, commentID int) ([]*model.Reply, error) {
	return s.repo.ListReplies(commentID)
}

// DeleteReply 实现 thread.ReplyDeleter
func (s *FeedService) DeleteReply(ctx context.Context, replyID int) error {
	return s.repo.DeleteReply(replyID)
}

// DeleteReplyAs 带归属校验的回复删除，供 HTTP 层使用
func (s *FeedService) DeleteReplyAs(replyID, viewerID int) error {
	reply, err := s.repo.GetReplyByID(replyID)
	if err != nil {
		return err
	}
	if reply == nil {
		return svcerr.New(svcerr.ErrNotFound, "回复不存在")
	}
	if reply.UserID != viewerID {
		return svcerr.New(svcerr.ErrForbidden, "只能删除自己的回复")
	}
	return s.repo.DeleteReply(replyID)
}

func (s *FeedService) GetUserByID(id int) (*model.User, error) {
	return s.userRepo.FindByID(id)
}
