package service

import (
	"context"
	"testing"

	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	svcerr "matbook-backend/internal/service/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockFeedRepository 是 FeedRepository 的模拟实现
type MockFeedRepository struct {
	mock.Mock
}

func (m *MockFeedRepository) CreatePost(post *model.Post, attachments []model.Attachment) error {
	args := m.Called(post, attachments)
	return args.Error(0)
}

func (m *MockFeedRepository) GetPostByID(id int, spec projection.PostSpec) (*model.PostData, error) {
	args := m.Called(id, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostData), args.Error(1)
}

func (m *MockFeedRepository) DeletePost(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockFeedRepository) ListPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	args := m.Called(spec, cursor, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostsPage), args.Error(1)
}

func (m *MockFeedRepository) ListFollowingPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	args := m.Called(spec, cursor, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostsPage), args.Error(1)
}

func (m *MockFeedRepository) ListBookmarkedPosts(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	args := m.Called(spec, cursor, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostsPage), args.Error(1)
}

func (m *MockFeedRepository) ListUserPosts(userID int, spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
	args := m.Called(userID, spec, cursor, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostsPage), args.Error(1)
}

func (m *MockFeedRepository) CreateComment(comment *model.Comment) error {
	args := m.Called(comment)
	return args.Error(0)
}

func (m *MockFeedRepository) GetCommentByID(id int, spec projection.CommentSpec) (*model.CommentData, error) {
	args := m.Called(id, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CommentData), args.Error(1)
}

func (m *MockFeedRepository) ListComments(postID int, spec projection.CommentSpec, page, pageSize int) ([]*model.CommentData, error) {
	args := m.Called(postID, spec, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CommentData), args.Error(1)
}

func (m *MockFeedRepository) DeleteComment(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockFeedRepository) CreateReply(reply *model.Reply) error {
	args := m.Called(reply)
	return args.Error(0)
}

func (m *MockFeedRepository) GetReplyByID(id int) (*model.Reply, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reply), args.Error(1)
}

func (m *MockFeedRepository) ListReplies(commentID int) ([]*model.Reply, error) {
	args := m.Called(commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Reply), args.Error(1)
}

func (m *MockFeedRepository) DeleteReply(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockFeedRepository) CreateLike(userID, postID int) error {
	args := m.Called(userID, postID)
	return args.Error(0)
}

func (m *MockFeedRepository) DeleteLike(userID, postID int) error {
	args := m.Called(userID, postID)
	return args.Error(0)
}

func (m *MockFeedRepository) GetLikeCount(postID int) (int, error) {
	args := m.Called(postID)
	return args.Int(0), args.Error(1)
}

func (m *MockFeedRepository) CreateCommentLike(userID, commentID int) error {
	args := m.Called(userID, commentID)
	return args.Error(0)
}

func (m *MockFeedRepository) DeleteCommentLike(userID, commentID int) error {
	args := m.Called(userID, commentID)
	return args.Error(0)
}

func (m *MockFeedRepository) CreateBookmark(userID, postID int) error {
	args := m.Called(userID, postID)
	return args.Error(0)
}

func (m *MockFeedRepository) DeleteBookmark(userID, postID int) error {
	args := m.Called(userID, postID)
	return args.Error(0)
}

func (m *MockFeedRepository) CreateFollow(follow *model.Follow) error {
	args := m.Called(follow)
	return args.Error(0)
}

func (m *MockFeedRepository) DeleteFollow(followerID, followedID int) error {
	args := m.Called(followerID, followedID)
	return args.Error(0)
}

func (m *MockFeedRepository) GetFollowerCount(userID int) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockFeedRepository) IsFollowing(followerID, followedID int) (bool, error) {
	args := m.Called(followerID, followedID)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository 是 UserRepository 的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindUserData(id int, spec projection.UserSpec) (*model.UserData, error) {
	args := m.Called(id, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserData), args.Error(1)
}

func (m *MockUserRepository) FindUserDataByUsername(username string, spec projection.UserSpec) (*model.UserData, error) {
	args := m.Called(username, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserData), args.Error(1)
}

func (m *MockUserRepository) Update(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Count() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

// MockNotificationRepository 是 NotificationRepository 的模拟实现
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(notification *model.Notification) error {
	args := m.Called(notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) CountUnread(recipientID int) (int, error) {
	args := m.Called(recipientID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) List(recipientID int, page, pageSize int) ([]*model.Notification, error) {
	args := m.Called(recipientID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(recipientID int) error {
	args := m.Called(recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) Delete(id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func newFeedServiceForTest() (*FeedService, *MockFeedRepository, *MockNotificationRepository) {
	feedRepo := new(MockFeedRepository)
	userRepo := new(MockUserRepository)
	notifRepo := new(MockNotificationRepository)
	return NewFeedService(feedRepo, userRepo, notifRepo, nil), feedRepo, notifRepo
}

// recordingInvalidator 记录被失效的接收者，测试用
type recordingInvalidator struct {
	recipients []int
}

func (r *recordingInvalidator) InvalidateUnread(ctx context.Context, recipientID int) {
	r.recipients = append(r.recipients, recipientID)
}

func postOwnedBy(userID int) *model.PostData {
	p := &model.PostData{
		Likes:     []model.LikeRef{},
		Bookmarks: []model.BookmarkRef{},
	}
	p.UserID = userID
	return p
}

// TestDeletePost 测试只能删除自己的帖子
func TestDeletePost(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	feedRepo.On("GetPostByID", 1, mock.Anything).Return(postOwnedBy(7), nil)
	feedRepo.On("DeletePost", 1).Return(nil)

	err := svc.DeletePost(1, 7)

	assert.NoError(t, err)
	feedRepo.AssertCalled(t, "DeletePost", 1)
}

func TestDeletePostForbidden(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	feedRepo.On("GetPostByID", 1, mock.Anything).Return(postOwnedBy(3), nil)

	err := svc.DeletePost(1, 7)

	assert.Error(t, err)
	assert.Equal(t, svcerr.ErrForbidden, svcerr.GetErrorCode(err))
	feedRepo.AssertNotCalled(t, "DeletePost", mock.Anything)
}

func TestDeletePostNotFound(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	feedRepo.On("GetPostByID", 1, mock.Anything).Return(nil, nil)

	err := svc.DeletePost(1, 7)

	assert.Error(t, err)
	assert.Equal(t, svcerr.ErrNotFound, svcerr.GetErrorCode(err))
}

// TestLikePostNotifies 测试点赞别人的帖子时通知作者
func TestLikePostNotifies(t *testing.T) {
	svc, feedRepo, notifRepo := newFeedServiceForTest()

	feedRepo.On("CreateLike", 7, 1).Return(nil)
	feedRepo.On("GetPostByID", 1, mock.Anything).Return(postOwnedBy(3), nil)
	notifRepo.On("Create", mock.MatchedBy(func(n *model.Notification) bool {
		return n.RecipientID == 3 && n.IssuerID == 7 && n.Type == model.NotificationTypeLike
	})).Return(nil)

	err := svc.LikePost(7, 1)

	assert.NoError(t, err)
	notifRepo.AssertExpectations(t)
}

// TestLikeOwnPostNoNotification 测试给自己的帖子点赞不产生通知
func TestLikeOwnPostNoNotification(t *testing.T) {
	svc, feedRepo, notifRepo := newFeedServiceForTest()

	feedRepo.On("CreateLike", 7, 1).Return(nil)
	feedRepo.On("GetPostByID", 1, mock.Anything).Return(postOwnedBy(7), nil)

	err := svc.LikePost(7, 1)

	assert.NoError(t, err)
	notifRepo.AssertNotCalled(t, "Create", mock.Anything)
}

// TestLikePostInvalidatesUnread 测试通知落库后清掉接收者的未读计数缓存
func TestLikePostInvalidatesUnread(t *testing.T) {
	feedRepo := new(MockFeedRepository)
	notifRepo := new(MockNotificationRepository)
	inv := &recordingInvalidator{}
	svc := NewFeedService(feedRepo, new(MockUserRepository), notifRepo, inv)

	feedRepo.On("CreateLike", 7, 1).Return(nil)
	feedRepo.On("GetPostByID", 1, mock.Anything).Return(postOwnedBy(3), nil)
	notifRepo.On("Create", mock.Anything).Return(nil)

	err := svc.LikePost(7, 1)

	assert.NoError(t, err)
	assert.Equal(t, []int{3}, inv.recipients)
}

// TestLikeOwnPostNoInvalidation 测试没有通知就不碰缓存
func TestLikeOwnPostNoInvalidation(t *testing.T) {
	feedRepo := new(MockFeedRepository)
	notifRepo := new(MockNotificationRepository)
	inv := &recordingInvalidator{}
	svc := NewFeedService(feedRepo, new(MockUserRepository), notifRepo, inv)

	feedRepo.On("CreateLike", 7, 1).Return(nil)
	feedRepo.On("GetPostByID", 1, mock.Anything).Return(postOwnedBy(7), nil)

	err := svc.LikePost(7, 1)

	assert.NoError(t, err)
	assert.Empty(t, inv.recipients)
}

// TestFollowUserInvalidatesUnread 测试关注通知同样清未读缓存
func TestFollowUserInvalidatesUnread(t *testing.T) {
	feedRepo := new(MockFeedRepository)
	notifRepo := new(MockNotificationRepository)
	inv := &recordingInvalidator{}
	svc := NewFeedService(feedRepo, new(MockUserRepository), notifRepo, inv)

	feedRepo.On("CreateFollow", mock.Anything).Return(nil)
	notifRepo.On("Create", mock.Anything).Return(nil)

	err := svc.FollowUser(7, 3)

	assert.NoError(t, err)
	assert.Equal(t, []int{3}, inv.recipients)
}

// TestFollowUser 测试关注成功后通知被关注者
func TestFollowUser(t *testing.T) {
	svc, feedRepo, notifRepo := newFeedServiceForTest()

	feedRepo.On("CreateFollow", mock.Anything).Return(nil)
	notifRepo.On("Create", mock.MatchedBy(func(n *model.Notification) bool {
		return n.RecipientID == 3 && n.IssuerID == 7 && n.Type == model.NotificationTypeFollow
	})).Return(nil)

	err := svc.FollowUser(7, 3)

	assert.NoError(t, err)
	notifRepo.AssertExpectations(t)
}

func TestFollowSelf(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	err := svc.FollowUser(7, 7)

	assert.Error(t, err)
	assert.Equal(t, svcerr.ErrInvalidInput, svcerr.GetErrorCode(err))
	feedRepo.AssertNotCalled(t, "CreateFollow", mock.Anything)
}

// TestCreateReplyNotifies 测试回复别人的评论时通知原评论者
func TestCreateReplyNotifies(t *testing.T) {
	svc, feedRepo, notifRepo := newFeedServiceForTest()

	comment := &model.CommentData{Likes: []model.LikeRef{}}
	comment.ID = 5
	comment.PostID = 1
	comment.UserID = 3

	feedRepo.On("CreateReply", mock.Anything).Return(nil)
	feedRepo.On("GetCommentByID", 5, mock.Anything).Return(comment, nil)
	notifRepo.On("Create", mock.MatchedBy(func(n *model.Notification) bool {
		return n.RecipientID == 3 && n.IssuerID == 7 && n.Type == model.NotificationTypeReply
	})).Return(nil)

	err := svc.CreateReply(&model.Reply{CommentID: 5, UserID: 7, Content: "回复内容"})

	assert.NoError(t, err)
	notifRepo.AssertExpectations(t)
}

// TestDeleteReplyAs 测试带归属校验的回复删除
func TestDeleteReplyAs(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	feedRepo.On("GetReplyByID", 9).Return(&model.Reply{ID: 9, UserID: 7}, nil)
	feedRepo.On("DeleteReply", 9).Return(nil)

	err := svc.DeleteReplyAs(9, 7)

	assert.NoError(t, err)
	feedRepo.AssertCalled(t, "DeleteReply", 9)
}

func TestDeleteReplyAsForbidden(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	feedRepo.On("GetReplyByID", 9).Return(&model.Reply{ID: 9, UserID: 3}, nil)

	err := svc.DeleteReplyAs(9, 7)

	assert.Error(t, err)
	assert.Equal(t, svcerr.ErrForbidden, svcerr.GetErrorCode(err))
	feedRepo.AssertNotCalled(t, "DeleteReply", mock.Anything)
}

// TestFetchRepliesDelegates 测试回复拉取委托给存储层
func TestFetchRepliesDelegates(t *testing.T) {
	svc, feedRepo, _ := newFeedServiceForTest()

	replies := []*model.Reply{{ID: 1}, {ID: 2}}
	feedRepo.On("ListReplies", 5).Return(replies, nil)

	got, err := svc.FetchReplies(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, replies, got)
}
