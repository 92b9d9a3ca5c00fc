package post

import (
	"fmt"
	"net/http"
	"strconv"

	"matbook-backend/config"
	"matbook-backend/internal/interaction"
	"matbook-backend/internal/middleware"
	"matbook-backend/internal/model"
	"matbook-backend/internal/projection"
	"matbook-backend/internal/service"
	svcerr "matbook-backend/internal/service/errors"
	"matbook-backend/internal/storage"
	"matbook-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	feedService        *service.FeedService
	interactionService *service.InteractionService
	storage            storage.Uploader
}

func NewPostHandler(feedService *service.FeedService, interactionService *service.InteractionService, storage storage.Uploader) *PostHandler {
	return &PostHandler{
		feedService:        feedService,
		interactionService: interactionService,
		storage:            storage,
	}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	// 解析多部分表单
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		util.Logger.Error("无法解析表单数据", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "无法解析表单数据"})
		return
	}

	content := c.PostForm("content")
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "内容不能为空"})
		return
	}

	viewerID := middleware.ViewerID(c)
	post := &model.Post{
		UserID:  viewerID,
		Content: content,
	}

	// 处理附件，position 按上传顺序
	var attachments []model.Attachment
	if form, err := c.MultipartForm(); err == nil {
		files := form.File["attachments[]"]
		for i, file := range files {
			filename := util.GenerateUniqueFilename(file.Filename)
			path := fmt.Sprintf("posts/%d/%s", viewerID, filename)
			url, err := h.storage.UploadFile(file, path)
			if err != nil {
				util.Logger.Error("附件上传失败", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "附件上传失败"})
				return
			}
			attachments = append(attachments, model.Attachment{
				URL:       url,
				MediaType: mediaTypeOf(file.Header.Get("Content-Type")),
				Position:  i,
			})
		}
	}

	if err := h.feedService.CreatePost(post, attachments); err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "创建帖子失败",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": 201,
		"data": post,
	})
}

func mediaTypeOf(contentType string) string {
	if len(contentType) >= 5 && contentType[:5] == "video" {
		return "video"
	}
	return "image"
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的帖子ID",
		})
		return
	}

	viewerID := middleware.ViewerID(c)
	post, err := h.feedService.GetPostByID(id, projection.ForPost(viewerID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取帖子失败",
		})
		return
	}
	if post == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    404,
			"message": "帖子不存在",
		})
		return
	}

	// 从投影派生交互状态，投影不完整属于编程错误
	likeInfo, err := interaction.LikeInfoForPost(post)
	if err != nil {
		util.Logger.Error("帖子投影不完整", zap.Error(err), zap.Int("post_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "系统内部错误"})
		return
	}
	bookmarkInfo, err := interaction.BookmarkInfo(post)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "系统内部错误"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"post":          post,
			"like_info":     likeInfo,
			"bookmark_info": bookmarkInfo,
		},
	})
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.DeletePost(id, viewerID); err != nil {
		switch svcerr.GetErrorCode(err) {
		case svcerr.ErrNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "帖子不存在"})
		case svcerr.ErrForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "只能删除自己的帖子"})
		default:
			util.Logger.Error("删除帖子失败", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "删除帖子失败"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "帖子已删除"})
}

// listPage 统一处理游标分页的查询入口
func (h *PostHandler) listPage(c *gin.Context, list func(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error)) {
	viewerID := middleware.ViewerID(c)

	// 游标不透明：原样收，原样传
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}

	page, err := list(projection.ForPost(viewerID), cursor, config.AppConfig.FeedPageSize)
	if err != nil {
		util.Logger.Error("获取帖子列表失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "获取帖子列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": page})
}

func (h *PostHandler) ListPosts(c *gin.Context) {
	h.listPage(c, h.feedService.ListPosts)
}

func (h *PostHandler) ListFollowingPosts(c *gin.Context) {
	h.listPage(c, h.feedService.ListFollowingPosts)
}

func (h *PostHandler) ListBookmarkedPosts(c *gin.Context) {
	h.listPage(c, h.feedService.ListBookmarkedPosts)
}

func (h *PostHandler) ListUserPosts(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户ID"})
		return
	}
	h.listPage(c, func(spec projection.PostSpec, cursor *string, pageSize int) (*model.PostsPage, error) {
		return h.feedService.ListUserPosts(userID, spec, cursor, pageSize)
	})
}

func (h *PostHandler) LikePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.LikePost(viewerID, id); err != nil {
		util.Logger.Error("点赞失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "点赞失败"})
		return
	}
	h.interactionService.InvalidateLike(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "点赞成功"})
}

func (h *PostHandler) UnlikePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.UnlikePost(viewerID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "取消点赞失败"})
		return
	}
	h.interactionService.InvalidateLike(c.Request.Context(), id)

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "已取消点赞"})
}

// GetLikeInfo 返回帖子的最新点赞状态，走计数缓存
func (h *PostHandler) GetLikeInfo(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	info, err := h.interactionService.LikeInfo(c.Request.Context(), id, viewerID)
	if err != nil {
		if svcerr.GetErrorCode(err) == svcerr.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "帖子不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取点赞状态失败"})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *PostHandler) BookmarkPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.BookmarkPost(viewerID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "收藏失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "收藏成功"})
}

func (h *PostHandler) UnbookmarkPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的帖子ID"})
		return
	}

	viewerID := middleware.ViewerID(c)
	if err := h.feedService.UnbookmarkPost(viewerID, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "取消收藏失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "已取消收藏"})
}
