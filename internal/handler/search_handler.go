package handler

import (
	"docbase-go/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理文档全文搜索请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchDocuments 在标题、摘要和标签中检索文档。
func (h *SearchHandler) SearchDocuments(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "查询参数 q 不能为空")
		return
	}
	hits, err := h.searchService.Search(c.Request.Context(), query, intQuery(c, "size", 10))
	if err != nil {
		respondError(c, "SearchDocuments", err)
		return
	}
	respondOK(c, "搜索成功", hits)
}
