package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matbook-backend/internal/model"
	"matbook-backend/internal/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CountCache 缓存交互计数快照。计数是标量，服务端最新值
// 直接覆盖旧值，过期后回源数据库重算即可，不需要合并。
type CountCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCountCache(addr, password string, db int, ttl time.Duration) (*CountCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &CountCache{client: client, ttl: ttl}, nil
}

func followerKey(userID, viewerID int) string {
	return fmt.Sprintf("follower_info:%d:%d", userID, viewerID)
}

func likeKey(postID, viewerID int) string {
	return fmt.Sprintf("like_info:%d:%d", postID, viewerID)
}

func unreadKey(recipientID int) string {
	return fmt.Sprintf("unread_count:%d", recipientID)
}

// GetFollowerInfo 读取关注状态快照，未命中返回 (nil, nil)
func (c *CountCache) GetFollowerInfo(ctx context.Context, userID, viewerID int) (*model.FollowerInfo, error) {
	return getJSON[model.FollowerInfo](ctx, c, followerKey(userID, viewerID))
}

func (c *CountCache) SetFollowerInfo(ctx context.Context, userID, viewerID int, info model.FollowerInfo) error {
	return c.setJSON(ctx, followerKey(userID, viewerID), info)
}

// InvalidateFollower 清掉某用户的全部关注状态快照（任意查看者）
func (c *CountCache) InvalidateFollower(ctx context.Context, userID int) {
	c.invalidatePattern(ctx, fmt.Sprintf("follower_info:%d:*", userID))
}

func (c *CountCache) GetLikeInfo(ctx context.Context, postID, viewerID int) (*model.LikeInfo, error) {
	return getJSON[model.LikeInfo](ctx, c, likeKey(postID, viewerID))
}

func (c *CountCache) SetLikeInfo(ctx context.Context, postID, viewerID int, info model.LikeInfo) error {
	return c.setJSON(ctx, likeKey(postID, viewerID), info)
}

func (c *CountCache) InvalidateLike(ctx context.Context, postID int) {
	c.invalidatePattern(ctx, fmt.Sprintf("like_info:%d:*", postID))
}

func (c *CountCache) GetUnreadCount(ctx context.Context, recipientID int) (*model.NotificationCountInfo, error) {
	return getJSON[model.NotificationCountInfo](ctx, c, unreadKey(recipientID))
}

func (c *CountCache) SetUnreadCount(ctx context.Context, recipientID int, info model.NotificationCountInfo) error {
	return c.setJSON(ctx, unreadKey(recipientID), info)
}

func (c *CountCache) InvalidateUnread(ctx context.Context, recipientID int) {
	if err := c.client.Del(ctx, unreadKey(recipientID)).Err(); err != nil {
		util.Logger.Warn("清除未读计数缓存失败", zap.Error(err))
	}
}

func (c *CountCache) Close() error {
	return c.client.Close()
}

func getJSON[T any](ctx context.Context, c *CountCache, key string) (*T, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	return &value, nil
}

func (c *CountCache) setJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *CountCache) invalidatePattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			util.Logger.Warn("清除计数缓存失败", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		util.Logger.Warn("扫描计数缓存失败", zap.String("pattern", pattern), zap.Error(err))
	}
}
