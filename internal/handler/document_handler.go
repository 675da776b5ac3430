package handler

import (
	"docbase-go/internal/model"
	"docbase-go/internal/service"
	"docbase-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理所有与文档管理相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// ListDocuments 分页查询文档，支持标题子串过滤。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	q := model.DocumentQuery{
		Title: c.Query("title"),
		Page:  intQuery(c, "page", 1),
		Size:  intQuery(c, "size", 0),
	}
	page, err := h.docService.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, "ListDocuments", err)
		return
	}
	respondOK(c, "获取文档列表成功", page)
}

// GetDocument 获取单个文档。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		badRequest(c, "无效的文档 ID")
		return
	}
	doc, err := h.docService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "GetDocument", err)
		return
	}
	respondOK(c, "success", doc)
}

// CreateDocument 新建文档。
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	var in model.DocumentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}
	user, _ := currentUser(c)

	doc, err := h.docService.Create(c.Request.Context(), user, in)
	if err != nil {
		respondError(c, "CreateDocument", err)
		return
	}
	log.Infof("Document %d created", doc.ID)
	respondOK(c, "文档保存成功", doc)
}

// UpdateDocument 更新已有文档。
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		badRequest(c, "无效的文档 ID")
		return
	}
	var in model.DocumentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "无效的请求负载")
		return
	}

	doc, err := h.docService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "UpdateDocument", err)
		return
	}
	respondOK(c, "文档保存成功", doc)
}

// DeleteDocument 软删除文档。
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		badRequest(c, "无效的文档 ID")
		return
	}
	if err := h.docService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, "DeleteDocument", err)
		return
	}
	log.Infof("Document %d soft-deleted", id)
	respondOK(c, "文档删除成功", nil)
}
