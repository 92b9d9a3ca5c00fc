package notification

import (
	"net/http"
	"strconv"

	"matbook-backend/internal/middleware"
	"matbook-backend/internal/service"
	"matbook-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
	interactionService  *service.InteractionService
}

func NewNotificationHandler(notificationService *service.NotificationService, interactionService *service.InteractionService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		interactionService:  interactionService,
	}
}

// GetUnreadCount 返回未读通知数，客户端轮询此接口更新角标
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	viewerID := middleware.ViewerID(c)

	info, err := h.interactionService.UnreadNotificationCount(c.Request.Context(), viewerID)
	if err != nil {
		util.Logger.Error("获取未读通知数失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取未读通知数失败"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *NotificationHandler) List(c *gin.Context) {
	viewerID := middleware.ViewerID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, err := h.notificationService.List(viewerID, page, pageSize)
	if err != nil {
		util.Logger.Error("获取通知列表失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "获取通知列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": notifications})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	viewerID := middleware.ViewerID(c)

	if err := h.notificationService.MarkAllRead(viewerID); err != nil {
		util.Logger.Error("标记已读失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "标记已读失败"})
		return
	}
	h.interactionService.InvalidateUnread(c.Request.Context(), viewerID)

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "已全部标为已读"})
}
