package interaction

import (
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
)

// 交互状态派生：把投影后的实体转换成布尔/数值交互状态。
// 布尔值只能由查看者范围成员集合的非空性推出，聚合计数
// 与成员集合相互独立，二者都要原样交给调用方。

// FollowerInfo 派生关注状态
func FollowerInfo(user *model.UserData) (model.FollowerInfo, error) {
	if err := projection.ValidateUserData(user); err != nil {
		return model.FollowerInfo{}, err
	}
	return model.FollowerInfo{
		Followers:        user.Counts.Followers,
		IsFollowedByUser: len(user.Followers) > 0,
	}, nil
}

// LikeInfoForPost 派生帖子点赞状态
func LikeInfoForPost(post *model.PostData) (model.LikeInfo, error) {
	if err := projection.ValidatePostData(post); err != nil {
		return model.LikeInfo{}, err
	}
	return model.LikeInfo{
		Likes:         post.Counts.Likes,
		IsLikedByUser: len(post.Likes) > 0,
	}, nil
}

// LikeInfoForComment 派生评论点赞状态。
// 评论的点赞集合未按查看者过滤，这里做成员判断。
func LikeInfoForComment(comment *model.CommentData, viewerID int) (model.LikeInfo, error) {
	if err := projection.ValidateCommentData(comment); err != nil {
		return model.LikeInfo{}, err
	}
	liked := false
	for _, ref := range comment.Likes {
		if ref.UserID == viewerID {
			liked = true
			break
		}
	}
	return model.LikeInfo{
		Likes:         comment.Counts.Likes,
		IsLikedByUser: liked,
	}, nil
}

// BookmarkInfo 派生帖子收藏状态
func BookmarkInfo(post *model.PostData) (model.BookmarkInfo, error) {
	if err := projection.ValidatePostData(post); err != nil {
		return model.BookmarkInfo{}, err
	}
	return model.BookmarkInfo{
		IsBookmarkedByUser: len(post.Bookmarks) > 0,
	}, nil
}
