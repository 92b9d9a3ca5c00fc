package user

import (
	"fmt"
	"net/http"
	"strconv"

	"matbook-backend/internal/interaction"
	"matbook-backend/internal/middleware"
	"matbook-backend/internal/service"
	svcerr "matbook-backend/internal/service/errors"
	"matbook-backend/internal/storage"
	"matbook-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService        *service.UserService
	feedService        *service.FeedService
	interactionService *service.InteractionService
	storage            storage.Uploader
}

func NewUserHandler(userService *service.UserService, feedService *service.FeedService, interactionService *service.InteractionService, storage storage.Uploader) *UserHandler {
	return &UserHandler{
		userService:        userService,
		feedService:        feedService,
		interactionService: interactionService,
		storage:            storage,
	}
}

// GetUser 按用户名返回用户资料及相对当前观察者的关注状态
func (h *UserHandler) GetUser(c *gin.Context) {
	username := c.Param("username")
	viewerID := middleware.ViewerID(c)

	user, err := h.userService.GetUserDataByUsername(username, viewerID)
	if err != nil {
		util.Logger.Error("获取用户失败", zap.Error(err), zap.String("username", username))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "获取用户失败"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "用户不存在"})
		return
	}

	followerInfo, err := interaction.FollowerInfo(user)
	if err != nil {
		util.Logger.Error("用户投影不完整", zap.Error(err), zap.Int("user_id", user.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "系统内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"user":          user,
			"follower_info": followerInfo,
		},
	})
}

func (h *UserHandler) FollowUser(c *gin.Context) {
	followedID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if viewerID == followedID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不能关注自己"})
		return
	}

	if err := h.feedService.FollowUser(viewerID, followedID); err != nil {
		if svcerr.GetErrorCode(err) == svcerr.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		util.Logger.Error("关注失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "关注失败"})
		return
	}
	h.interactionService.InvalidateFollower(c.Request.Context(), followedID)

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "关注成功"})
}

func (h *UserHandler) UnfollowUser(c *gin.Context) {
	followedID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.UnfollowUser(viewerID, followedID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "取消关注失败"})
		return
	}
	h.interactionService.InvalidateFollower(c.Request.Context(), followedID)

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "已取消关注"})
}

// GetFollowerInfo 返回用户的最新粉丝数及观察者关注状态，走计数缓存
func (h *UserHandler) GetFollowerInfo(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	info, err := h.interactionService.FollowerInfo(c.Request.Context(), userID, viewerID)
	if err != nil {
		if svcerr.GetErrorCode(err) == svcerr.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
			return
		}
		util.Logger.Error("获取粉丝数失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取粉丝数失败"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *UserHandler) GetFollowStatus(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	following, err := h.feedService.IsFollowing(viewerID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取关注状态失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"is_following": following}})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,not_blank"`
	Bio         string `json:"bio" binding:"max=1000"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "资料内容不合法"})
		return
	}

	viewerID := middleware.ViewerID(c)
	user, err := h.userService.GetUserByID(viewerID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}

	user.DisplayName = req.DisplayName
	user.Bio = req.Bio
	if err := h.userService.UpdateProfile(user); err != nil {
		util.Logger.Error("更新资料失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新资料失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": user})
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到头像文件"})
		return
	}

	viewerID := middleware.ViewerID(c)
	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("avatars/%d/%s", viewerID, filename)
	url, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("头像上传失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "头像上传失败"})
		return
	}

	user, err := h.userService.GetUserByID(viewerID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}
	user.AvatarURL = url
	if err := h.userService.UpdateProfile(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新头像失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"avatar_url": url}})
}
