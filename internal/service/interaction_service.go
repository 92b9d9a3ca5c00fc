package service

import (
	"context"

	"matbook-backend/internal/cache"
	"matbook-backend/internal/common"
	"matbook-backend/internal/interaction"
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/repository/interfaces"
	svcerr "matbook-backend/internal/service/errors"
	"matbook-backend/internal/util"

	"go.uber.org/zap"
)

const dbMaxRetries = 3

// InteractionService 提供交互状态的读取：先走计数缓存，
// 未命中时按投影规格回源数据库并经派生层计算，再写回缓存。
// 缓存故障只记日志，读路径退化为直连数据库。
type InteractionService struct {
	userRepo  interfaces.UserRepository
	feedRepo  interfaces.FeedRepository
	notifRepo interfaces.NotificationRepository
	counts    *cache.CountCache // 可为 nil，表示未配置缓存
}

func NewInteractionService(userRepo interfaces.UserRepository, feedRepo interfaces.FeedRepository, notifRepo interfaces.NotificationRepository, counts *cache.CountCache) *InteractionService {
	return &InteractionService{
		userRepo:  userRepo,
		feedRepo:  feedRepo,
		notifRepo: notifRepo,
		counts:    counts,
	}
}

// FollowerInfo 返回某用户在查看者视角下的关注状态
func (s *InteractionService) FollowerInfo(ctx context.Context, userID, viewerID int) (model.FollowerInfo, error) {
	if s.counts != nil {
		if cached, err := s.counts.GetFollowerInfo(ctx, userID, viewerID); err != nil {
			util.Logger.Warn("读取关注状态缓存失败", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	var userData *model.UserData
	err := common.WithRetryContext(ctx, func() error {
		var err error
		userData, err = s.userRepo.FindUserData(userID, projection.ForUser(viewerID))
		return err
	}, dbMaxRetries)
	if err != nil {
		return model.FollowerInfo{}, err
	}
	if userData == nil {
		return model.FollowerInfo{}, svcerr.New(svcerr.ErrNotFound, "用户不存在")
	}

	info, err := interaction.FollowerInfo(userData)
	if err != nil {
		return model.FollowerInfo{}, err
	}

	if s.counts != nil {
		if err := s.counts.SetFollowerInfo(ctx, userID, viewerID, info); err != nil {
			util.Logger.Warn("写入关注状态缓存失败", zap.Error(err))
		}
	}
	return info, nil
}

// LikeInfo 返回某帖子在查看者视角下的点赞状态
func (s *InteractionService) LikeInfo(ctx context.Context, postID, viewerID int) (model.LikeInfo, error) {
	if s.counts != nil {
		if cached, err := s.counts.GetLikeInfo(ctx, postID, viewerID); err != nil {
			util.Logger.Warn("读取点赞状态缓存失败", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	var postData *model.PostData
	err := common.WithRetryContext(ctx, func() error {
		var err error
		postData, err = s.feedRepo.GetPostByID(postID, projection.ForPost(viewerID))
		return err
	}, dbMaxRetries)
	if err != nil {
		return model.LikeInfo{}, err
	}
	if postData == nil {
		return model.LikeInfo{}, svcerr.New(svcerr.ErrNotFound, "帖子不存在")
	}

	info, err := interaction.LikeInfoForPost(postData)
	if err != nil {
		return model.LikeInfo{}, err
	}

	if s.counts != nil {
		if err := s.counts.SetLikeInfo(ctx, postID, viewerID, info); err != nil {
			util.Logger.Warn("写入点赞状态缓存失败", zap.Error(err))
		}
	}
	return info, nil
}

// BookmarkInfo 返回某帖子在查看者视角下的收藏状态
func (s *InteractionService) BookmarkInfo(ctx context.Context, postID, viewerID int) (model.BookmarkInfo, error) {
	postData, err := s.feedRepo.GetPostByID(postID, projection.ForPost(viewerID))
	if err != nil {
		return model.BookmarkInfo{}, err
	}
	if postData == nil {
		return model.BookmarkInfo{}, svcerr.New(svcerr.ErrNotFound, "帖子不存在")
	}
	return interaction.BookmarkInfo(postData)
}

// UnreadNotificationCount 返回取数时刻的未读通知数
func (s *InteractionService) UnreadNotificationCount(ctx context.Context, recipientID int) (model.NotificationCountInfo, error) {
	if s.counts != nil {
		if cached, err := s.counts.GetUnreadCount(ctx, recipientID); err != nil {
			util.Logger.Warn("读取未读计数缓存失败", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	count, err := s.notifRepo.CountUnread(recipientID)
	if err != nil {
		return model.NotificationCountInfo{}, err
	}
	info := model.NotificationCountInfo{UnreadCount: count}

	if s.counts != nil {
		if err := s.counts.SetUnreadCount(ctx, recipientID, info); err != nil {
			util.Logger.Warn("写入未读计数缓存失败", zap.Error(err))
		}
	}
	return info, nil
}

// FollowerWatcher 为某用户构造一个最新者胜的关注计数观察器。
// 供需要常驻展示关注计数的调用方使用：以页面加载时的快照起步，
// 对观察器 Poll 即等价于客户端按固定间隔轮询
// GET /api/users/:id/followers，旧响应不回退已展示的新值。
func (s *InteractionService) FollowerWatcher(userID, viewerID int, initial model.FollowerInfo) *interaction.FollowerCountWatcher {
	return interaction.NewFollowerCountWatcher(initial, func(ctx context.Context) (model.FollowerInfo, error) {
		return s.FollowerInfo(ctx, userID, viewerID)
	})
}

// LikeWatcher 为某帖子构造一个最新者胜的点赞计数观察器。
// 与 FollowerWatcher 同构，对应客户端轮询 GET /api/posts/:id/likes。
func (s *InteractionService) LikeWatcher(postID, viewerID int, initial model.LikeInfo) *interaction.LikeCountWatcher {
	return interaction.NewLikeCountWatcher(initial, func(ctx context.Context) (model.LikeInfo, error) {
		return s.LikeInfo(ctx, postID, viewerID)
	})
}

// InvalidateFollower 在关注关系变化后清掉相关缓存
func (s *InteractionService) InvalidateFollower(ctx context.Context, userID int) {
	if s.counts != nil {
		s.counts.InvalidateFollower(ctx, userID)
	}
}

// InvalidateLike 在点赞变化后清掉相关缓存
func (s *InteractionService) InvalidateLike(ctx context.Context, postID int) {
	if s.counts != nil {
		s.counts.InvalidateLike(ctx, postID)
	}
}

// InvalidateUnread 在通知创建或已读标记后清掉未读计数缓存
func (s *InteractionService) InvalidateUnread(ctx context.Context, recipientID int) {
	if s.counts != nil {
		s.counts.InvalidateUnread(ctx, recipientID)
	}
}
