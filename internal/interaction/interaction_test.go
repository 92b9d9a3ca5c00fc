package interaction

import (
	"context"
	"errors"
	"testing"

	apperrors "matbook-backend/internal/errors"
	"matbook-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func userData(followerCount int, viewerFollows bool) *model.UserData {
	u := &model.UserData{
		Followers:    []model.FollowRef{},
		Likes:        []model.LikeRef{},
		CommentLikes: []model.LikeRef{},
	}
	u.Counts.Followers = followerCount
	if viewerFollows {
		u.Followers = append(u.Followers, model.FollowRef{FollowerID: 7})
	}
	return u
}

func postData(likeCount int, viewerLiked, viewerBookmarked bool) *model.PostData {
	p := &model.PostData{
		Likes:     []model.LikeRef{},
		Bookmarks: []model.BookmarkRef{},
	}
	p.Counts.Likes = likeCount
	if viewerLiked {
		p.Likes = append(p.Likes, model.LikeRef{UserID: 7})
	}
	if viewerBookmarked {
		p.Bookmarks = append(p.Bookmarks, model.BookmarkRef{UserID: 7})
	}
	return p
}

// TestFollowerInfo 测试聚合计数与查看者布尔值相互独立：
// 粉丝很多但查看者未关注时布尔值必须为 false
func TestFollowerInfo(t *testing.T) {
	info, err := FollowerInfo(userData(100, false))
	assert.NoError(t, err)
	assert.Equal(t, 100, info.Followers)
	assert.False(t, info.IsFollowedByUser)

	info, err = FollowerInfo(userData(1, true))
	assert.NoError(t, err)
	assert.Equal(t, 1, info.Followers)
	assert.True(t, info.IsFollowedByUser)
}

// TestFollowerInfoMissingProjection 测试未投影的实体必须报错，
// 不允许退化成 false/0
func TestFollowerInfoMissingProjection(t *testing.T) {
	u := userData(10, false)
	u.Followers = nil

	_, err := FollowerInfo(u)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrProjectionMismatch, apperrors.CodeOf(err))
}

func TestLikeInfoForPost(t *testing.T) {
	info, err := LikeInfoForPost(postData(50, false, false))
	assert.NoError(t, err)
	assert.Equal(t, 50, info.Likes)
	assert.False(t, info.IsLikedByUser)

	info, err = LikeInfoForPost(postData(50, true, false))
	assert.NoError(t, err)
	assert.Equal(t, 50, info.Likes)
	assert.True(t, info.IsLikedByUser)
}

func TestLikeInfoForPostMissingProjection(t *testing.T) {
	p := postData(5, false, false)
	p.Likes = nil

	_, err := LikeInfoForPost(p)

	assert.Error(t, err)
	assert.Equal(t, apperrors.ErrProjectionMismatch, apperrors.CodeOf(err))
}

// TestLikeInfoForComment 测试评论点赞按查看者做成员判断
func TestLikeInfoForComment(t *testing.T) {
	c := &model.CommentData{
		Likes: []model.LikeRef{{UserID: 3}, {UserID: 8}},
	}
	c.Counts.Likes = 2

	info, err := LikeInfoForComment(c, 8)
	assert.NoError(t, err)
	assert.Equal(t, 2, info.Likes)
	assert.True(t, info.IsLikedByUser)

	info, err = LikeInfoForComment(c, 7)
	assert.NoError(t, err)
	assert.False(t, info.IsLikedByUser)
}

func TestBookmarkInfo(t *testing.T) {
	info, err := BookmarkInfo(postData(0, false, true))
	assert.NoError(t, err)
	assert.True(t, info.IsBookmarkedByUser)

	info, err = BookmarkInfo(postData(0, false, false))
	assert.NoError(t, err)
	assert.False(t, info.IsBookmarkedByUser)
}

// TestFollowerCountWatcher 测试最新者胜：刷新成功覆盖旧值，
// 刷新失败保留旧值
func TestFollowerCountWatcher(t *testing.T) {
	next := model.FollowerInfo{Followers: 5, IsFollowedByUser: true}
	var fail bool
	source := func(ctx context.Context) (model.FollowerInfo, error) {
		if fail {
			return model.FollowerInfo{}, errors.New("拉取失败")
		}
		return next, nil
	}

	w := NewFollowerCountWatcher(model.FollowerInfo{Followers: 3}, source)
	assert.Equal(t, 3, w.Current().Followers)

	assert.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, 5, w.Current().Followers)
	assert.True(t, w.Current().IsFollowedByUser)

	fail = true
	assert.Error(t, w.Refresh(context.Background()))
	// 失败时保留最后已知值
	assert.Equal(t, 5, w.Current().Followers)
}

func TestLikeCountWatcher(t *testing.T) {
	source := func(ctx context.Context) (model.LikeInfo, error) {
		return model.LikeInfo{Likes: 12, IsLikedByUser: true}, nil
	}

	w := NewLikeCountWatcher(model.LikeInfo{Likes: 10}, source)
	assert.Equal(t, 10, w.Current().Likes)

	assert.NoError(t, w.Refresh(context.Background()))
	assert.Equal(t, 12, w.Current().Likes)
	assert.True(t, w.Current().IsLikedByUser)
}
