package handler

import (
	"docbase-go/internal/model"
	"docbase-go/internal/service"

	"github.com/gin-gonic/gin"
)

// TagHandler 负责处理标签管理相关的 API 请求。
type TagHandler struct {
	tagService service.TagService
}

// NewTagHandler 创建一个新的 TagHandler 实例。
func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// ListTags 分页查询标签。
func (h *TagHandler) ListTags(c *gin.Context) {
	q := model.TagQuery{
		Name: c.Query("name"),
		Page: intQuery(c, "page", 1),
		Size: intQuery(c, "size", 0),
	}
	page, err := h.tagService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, "ListTags", err)
		return
	}
	respondOK(c, "获取标签列表成功", page)
}

// AllTags 返回全部标签，按名称排序。
func (h *TagHandler) AllTags(c *gin.Context) {
	tags, err := h.tagService.All(c.Request.Context())
	if err != nil {
		respondError(c, "AllTags", err)
		return
	}
	respondOK(c, "获取标签成功", tags)
}

// CreateTagRequest 定义了创建标签 API 的请求体结构。
type CreateTagRequest struct {
	TagName string `json:"tagName"`
}

// CreateTag 创建一个新标签。
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	tag, err := h.tagService.Create(c.Request.Context(), req.TagName)
	if err != nil {
		respondError(c, "CreateTag", err)
		return
	}
	respondOK(c, "标签创建成功", tag)
}

// DeleteTag 删除标签。
func (h *TagHandler) DeleteTag(c *gin.Context) {
	if err := h.tagService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "DeleteTag", err)
		return
	}
	respondOK(c, "标签删除成功", nil)
}
