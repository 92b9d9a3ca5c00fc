package projection

import (
	"testing"

	"matbook-backend/internal/errors"
	"matbook-backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestForPostEmbedsUserSpec(t *testing.T) {
	spec := ForPost(7)

	assert.Equal(t, 7, spec.ViewerID)
	assert.Equal(t, 7, spec.User.ViewerID)
}

func TestValidateUserData(t *testing.T) {
	u := &model.UserData{
		Followers:    []model.FollowRef{},
		Likes:        []model.LikeRef{},
		CommentLikes: []model.LikeRef{},
	}
	assert.NoError(t, ValidateUserData(u))

	// 查看者范围集合至多一行
	u.Followers = []model.FollowRef{{FollowerID: 1}, {FollowerID: 2}}
	err := ValidateUserData(u)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrProjectionMismatch, errors.CodeOf(err))

	// nil 表示未投影
	u.Followers = nil
	assert.Error(t, ValidateUserData(u))

	assert.Error(t, ValidateUserData(nil))
}

func TestValidatePostData(t *testing.T) {
	p := &model.PostData{
		Likes:     []model.LikeRef{},
		Bookmarks: []model.BookmarkRef{},
	}
	assert.NoError(t, ValidatePostData(p))

	p.Bookmarks = nil
	err := ValidatePostData(p)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrProjectionMismatch, errors.CodeOf(err))
}

func TestValidateCommentData(t *testing.T) {
	c := &model.CommentData{Likes: []model.LikeRef{}}
	assert.NoError(t, ValidateCommentData(c))

	c.Likes = nil
	assert.Error(t, ValidateCommentData(c))
}
