// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/internal/service"
	"docbase-go/pkg/token"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Authenticate 校验 access token，确认未被登出并加载对应的用户。
// HTTP 中间件与 websocket 握手共用这一流程。
func Authenticate(ctx context.Context, jwtManager *token.JWTManager, userService service.UserService, tokenString string) (*model.User, *token.CustomClaims, error) {
	claims, err := jwtManager.VerifyKind(tokenString, token.KindAccess)
	if err != nil {
		return nil, nil, fmt.Errorf("无效或已过期的 token: %w", model.ErrUnauthorized)
	}
	revoked, err := userService.IsRevoked(ctx, tokenString)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, fmt.Errorf("token 已登出: %w", model.ErrUnauthorized)
	}

	// 如果根据 token 中的用户信息无法找到用户，说明该用户可能已被删除
	user, err := userService.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, fmt.Errorf("用户不存在: %w", model.ErrUnauthorized)
		}
		return nil, nil, err
	}
	return user, claims, nil
}

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，验证其有效性，并将完整的 User 对象存入 Gin 的上下文中。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未包含授权头", "data": nil})
			return
		}

		// Token 通常以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的授权头格式", "data": nil})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		user, claims, err := Authenticate(c.Request.Context(), jwtManager, userService, tokenString)
		if err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, model.ErrUnauthorized) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"code": status, "message": err.Error(), "data": nil})
			return
		}

		c.Set("user", user)
		c.Set("claims", claims)
		c.Set("token", tokenString)
		c.Next()
	}
}
