package handler

import (
	"docbase-go/internal/model"
	"docbase-go/internal/service"
	"docbase-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AttachmentHandler 负责处理编辑器附件上传。
type AttachmentHandler struct {
	attachmentService service.AttachmentService
}

// NewAttachmentHandler 创建一个新的 AttachmentHandler 实例。
func NewAttachmentHandler(attachmentService service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{attachmentService: attachmentService}
}

// Upload 处理 multipart 上传，表单字段为 file。
func (h *AttachmentHandler) Upload(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "UploadAttachment", model.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "缺少上传文件")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, "UploadAttachment", err)
		return
	}
	defer file.Close()

	att, err := h.attachmentService.Upload(c.Request.Context(), user.ID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		respondError(c, "UploadAttachment", err)
		return
	}
	log.Infof("User '%s' uploaded attachment %s", user.Username, att.ObjectName)
	respondOK(c, "附件上传成功", att)
}

// SupportedTypes 返回支持的附件扩展名。
func (h *AttachmentHandler) SupportedTypes(c *gin.Context) {
	respondOK(c, "success", gin.H{"supportedExtensions": h.attachmentService.SupportedExtensions()})
}
