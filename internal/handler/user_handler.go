package handler

import (
	"docbase-go/internal/model"
	"docbase-go/internal/service"
	"docbase-go/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理所有与普通用户相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, "Register", err)
		return
	}

	log.Infof("User '%s' registered successfully", user.Username)
	respondOK(c, "User registered successfully", user)
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		badRequest(c, "无效的请求负载：用户名和密码不能为空")
		return
	}

	accessToken, refreshToken, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "Login", err)
		return
	}

	log.Infof("User '%s' logged in successfully", req.Username)
	respondOK(c, "Login successful", gin.H{
		"token":        accessToken,
		"refreshToken": refreshToken,
	})
}

// GetProfile 获取当前登录用户的个人信息。
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "GetProfile", model.ErrUnauthorized)
		return
	}
	respondOK(c, "success", user)
}

// UpdateEmailRequest 定义了修改邮箱 API 的请求体结构。
type UpdateEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// UpdateEmail 修改当前用户的邮箱。
func (h *UserHandler) UpdateEmail(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "UpdateEmail", model.ErrUnauthorized)
		return
	}
	var req UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求负载：邮箱不能为空")
		return
	}

	updated, err := h.userService.UpdateEmail(c.Request.Context(), user.ID, req.Email)
	if err != nil {
		respondError(c, "UpdateEmail", err)
		return
	}
	respondOK(c, "邮箱更新成功", updated)
}

// Logout 处理用户登出逻辑。
func (h *UserHandler) Logout(c *gin.Context) {
	tokenString := c.GetString("token")
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		respondError(c, "Logout", err)
		return
	}

	if user, ok := currentUser(c); ok {
		log.Infof("User '%s' logged out successfully", user.Username)
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "登出成功", "data": nil})
}

// ListUsers 返回除自己以外的用户，供选择聊天对象。
func (h *UserHandler) ListUsers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "ListUsers", model.ErrUnauthorized)
		return
	}
	users, err := h.userService.ListCounterparts(c.Request.Context(), user.ID, c.Query("search"))
	if err != nil {
		respondError(c, "ListUsers", err)
		return
	}
	respondOK(c, "获取用户列表成功", users)
}
