package comment

import (
	"net/http"
	"strconv"

	"matbook-backend/internal/middleware"
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/service"
	svcerr "matbook-backend/internal/service/errors"
	"matbook-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	feedService *service.FeedService
}

func NewCommentHandler(feedService *service.FeedService) *CommentHandler {
	return &CommentHandler{feedService: feedService}
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required,not_blank,max_content"`
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	viewerID := middleware.ViewerID(c)
	comments, err := h.feedService.ListComments(postID, projection.ForComment(viewerID), page, pageSize)
	if err != nil {
		util.Logger.Error("获取评论列表失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "获取评论列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": comments})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "评论内容不合法"})
		return
	}

	comment := &model.Comment{
		PostID:  postID,
		UserID:  middleware.ViewerID(c),
		Content: req.Content,
	}
	if err := h.feedService.CreateComment(comment); err != nil {
		if svcerr.GetErrorCode(err) == svcerr.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "帖子不存在"})
			return
		}
		util.Logger.Error("创建评论失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建评论失败"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": 201, "data": comment})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评论ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.DeleteComment(id, viewerID); err != nil {
		switch svcerr.GetErrorCode(err) {
		case svcerr.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "评论不存在"})
		case svcerr.ErrForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "只能删除自己的评论"})
		default:
			util.Logger.Error("删除评论失败", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除评论失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "评论已删除"})
}

// ListReplies 直接返回回复数组，供回复线程客户端增量拉取
func (h *CommentHandler) ListReplies(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评论ID"})
		return
	}

	replies, err := h.feedService.FetchReplies(c.Request.Context(), commentID)
	if err != nil {
		util.Logger.Error("获取回复列表失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取回复列表失败"})
		return
	}

	c.JSON(http.StatusOK, replies)
}

type createReplyRequest struct {
	Content string `json:"content" binding:"required,not_blank,max_content"`
}

func (h *CommentHandler) CreateReply(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评论ID"})
		return
	}

	var req createReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "回复内容不合法"})
		return
	}

	reply := &model.Reply{
		CommentID: commentID,
		UserID:    middleware.ViewerID(c),
		Content:   req.Content,
	}
	if err := h.feedService.CreateReply(reply); err != nil {
		if svcerr.GetErrorCode(err) == svcerr.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "评论不存在"})
			return
		}
		util.Logger.Error("创建回复失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建回复失败"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"code": 201, "data": reply})
}

func (h *CommentHandler) DeleteReply(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的回复ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.DeleteReplyAs(id, viewerID); err != nil {
		switch svcerr.GetErrorCode(err) {
		case svcerr.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "回复不存在"})
		case svcerr.ErrForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "只能删除自己的回复"})
		default:
			util.Logger.Error("删除回复失败", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除回复失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "回复已删除"})
}

func (h *CommentHandler) LikeComment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评论ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.LikeComment(viewerID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "点赞失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "点赞成功"})
}

func (h *CommentHandler) UnlikeComment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的评论ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.UnlikeComment(viewerID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "取消点赞失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "已取消点赞"})
}
