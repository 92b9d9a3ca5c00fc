package interaction

import (
	"context"
	"sync"
	"time"

	"matbook-backend/internal/model"

	"go.uber.org/zap"
)

// FollowerSource 提供某用户最新的关注状态快照
type FollowerSource func(ctx context.Context) (model.FollowerInfo, error)

// FollowerCountWatcher 持有初始快照并始终呈现最新已知值。
// 关注数是标量，服务端最新值直接覆盖旧值即可，不需要合并。
type FollowerCountWatcher struct {
	mu     sync.RWMutex
	latest model.FollowerInfo
	source FollowerSource
}

// NewFollowerCountWatcher 以已有快照起步。通常不直接构造，
// 由 service.InteractionService.FollowerWatcher 绑定数据源后返回。
func NewFollowerCountWatcher(initial model.FollowerInfo, source FollowerSource) *FollowerCountWatcher {
	return &FollowerCountWatcher{
		latest: initial,
		source: source,
	}
}

// Current 返回最新已知的关注状态
func (w *FollowerCountWatcher) Current() model.FollowerInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

// Refresh 拉取一次最新值，最新者胜。失败时保留旧值。
func (w *FollowerCountWatcher) Refresh(ctx context.Context) error {
	info, err := w.source(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.latest = info
	w.mu.Unlock()
	return nil
}

// Poll 以固定间隔刷新，直到上下文取消
func (w *FollowerCountWatcher) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				zap.L().Warn("刷新关注计数失败", zap.Error(err))
			}
		}
	}
}

// LikeSource 提供某帖子最新的点赞状态快照
type LikeSource func(ctx context.Context) (model.LikeInfo, error)

// LikeCountWatcher 与 FollowerCountWatcher 同构，覆盖点赞计数
type LikeCountWatcher struct {
	mu     sync.RWMutex
	latest model.LikeInfo
	source LikeSource
}

// NewLikeCountWatcher 以已有快照起步，见 NewFollowerCountWatcher。
func NewLikeCountWatcher(initial model.LikeInfo, source LikeSource) *LikeCountWatcher {
	return &LikeCountWatcher{
		latest: initial,
		source: source,
	}
}

func (w *LikeCountWatcher) Current() model.LikeInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.latest
}

func (w *LikeCountWatcher) Refresh(ctx context.Context) error {
	info, err := w.source(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.latest = info
	w.mu.Unlock()
	return nil
}

func (w *LikeCountWatcher) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				zap.L().Warn("刷新点赞计数失败", zap.Error(err))
			}
		}
	}
}
