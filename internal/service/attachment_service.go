package service

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/pkg/log"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAttachmentSize 是单个附件的大小上限 (20MB)。
	MaxAttachmentSize = 20 * 1024 * 1024
	attachmentURLTTL  = 24 * time.Hour
)

// 编辑器可以嵌入的附件类型。
var supportedAttachmentTypes = map[string]string{
	".png":  "图片",
	".jpg":  "图片",
	".jpeg": "图片",
	".gif":  "图片",
	".webp": "图片",
	".svg":  "图片",
	".pdf":  "PDF文档",
	".txt":  "文本文件",
	".md":   "Markdown文档",
	".csv":  "CSV文件",
	".zip":  "压缩包",
	".mp4":  "视频",
}

// ObjectStore 是附件服务依赖的对象存储。
type ObjectStore interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// AttachmentService 处理编辑器中的附件上传。
type AttachmentService interface {
	Upload(ctx context.Context, userID uint, fileName string, r io.Reader, size int64) (*model.Attachment, error)
	SupportedExtensions() []string
}

type attachmentService struct {
	store ObjectStore
}

// NewAttachmentService 创建一个新的 AttachmentService 实例。
func NewAttachmentService(store ObjectStore) AttachmentService {
	return &attachmentService{store: store}
}

// SupportedExtensions 返回排序后的支持扩展名列表。
func (s *attachmentService) SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedAttachmentTypes))
	for ext := range supportedAttachmentTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Upload 把附件写入对象存储，返回可嵌入文档内容的预签名地址。
func (s *attachmentService) Upload(ctx context.Context, userID uint, fileName string, r io.Reader, size int64) (*model.Attachment, error) {
	name := path.Base(filepath.ToSlash(strings.TrimSpace(fileName)))
	if name == "" || name == "." || name == "/" {
		return nil, model.NewValidationError("file", "File name is required")
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := supportedAttachmentTypes[ext]; !ok {
		return nil, model.NewValidationError("file", fmt.Sprintf("Unsupported file type: %s", ext))
	}
	if size > MaxAttachmentSize {
		return nil, model.NewValidationError("file", "File is too large")
	}

	objectName := fmt.Sprintf("attachments/%d/%s-%s", userID, uuid.NewString(), name)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, objectName, r, size, contentType); err != nil {
		log.Errorf("[AttachmentService] 上传附件到 MinIO 失败, object: %s, error: %v", objectName, err)
		return nil, fmt.Errorf("上传附件失败: %w", err)
	}

	url, err := s.store.PresignedURL(ctx, objectName, attachmentURLTTL)
	if err != nil {
		return nil, fmt.Errorf("生成附件地址失败: %w", err)
	}
	log.Infof("[AttachmentService] 附件上传成功, userID: %d, object: %s", userID, objectName)
	return &model.Attachment{Name: name, ObjectName: objectName, URL: url, Size: size}, nil
}
