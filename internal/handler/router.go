package handler

import (
	"docbase-go/internal/middleware"
	"docbase-go/internal/service"
	"docbase-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Services 汇总了路由所需的全部业务服务。
type Services struct {
	Users       service.UserService
	Documents   service.DocumentService
	Tags        service.TagService
	Chat        service.ChatService
	Search      service.SearchService
	Attachments service.AttachmentService
}

// RegisterRoutes 在 r 上注册全部 API 路由。
func RegisterRoutes(r *gin.Engine, svc Services, jwtManager *token.JWTManager) {
	auth := middleware.AuthMiddleware(jwtManager, svc.Users)
	userHandler := NewUserHandler(svc.Users)
	docHandler := NewDocumentHandler(svc.Documents)
	tagHandler := NewTagHandler(svc.Tags)
	chatHandler := NewChatHandler(svc.Chat, svc.Users, jwtManager)

	apiV1 := r.Group("/api/v1")
	{
		// Auth 路由组
		apiV1.POST("/auth/refreshToken", NewAuthHandler(svc.Users).RefreshToken)

		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的路由 (仅限登录用户访问)
			authed := users.Group("")
			authed.Use(auth)
			{
				authed.GET("", userHandler.ListUsers)
				authed.GET("/me", userHandler.GetProfile)
				authed.PUT("/me/email", userHandler.UpdateEmail)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		// Document 路由组，需要认证
		documents := apiV1.Group("/documents")
		documents.Use(auth)
		{
			documents.GET("", docHandler.ListDocuments)
			documents.POST("", docHandler.CreateDocument)
			documents.GET("/:id", docHandler.GetDocument)
			documents.PUT("/:id", docHandler.UpdateDocument)
			documents.DELETE("/:id", docHandler.DeleteDocument)
			if svc.Search != nil {
				documents.GET("/search", NewSearchHandler(svc.Search).SearchDocuments)
			}
		}

		// Tag 路由组，需要认证
		tags := apiV1.Group("/tags")
		tags.Use(auth)
		{
			tags.GET("", tagHandler.ListTags)
			tags.GET("/all", tagHandler.AllTags)
			tags.POST("", tagHandler.CreateTag)
			tags.DELETE("/:id", tagHandler.DeleteTag)
		}

		if svc.Attachments != nil {
			attachments := apiV1.Group("/attachments")
			attachments.Use(auth)
			{
				attachmentHandler := NewAttachmentHandler(svc.Attachments)
				attachments.POST("", attachmentHandler.Upload)
				attachments.GET("/supported-types", attachmentHandler.SupportedTypes)
			}
		}

		chat := apiV1.Group("/chat")
		chat.Use(auth)
		{
			chat.GET("/:receiverId/messages", chatHandler.History)
			chat.POST("/:receiverId/messages", chatHandler.Send)
		}
	}

	// Chat 路由 (WebSocket)，token 放在路径中
	r.GET("/chat/ws/:token", chatHandler.Handle)
}
