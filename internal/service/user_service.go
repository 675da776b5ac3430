package service

import (
	"context"
	"docbase-go/internal/model"
	"docbase-go/internal/repository"
	"docbase-go/pkg/hash"
	"docbase-go/pkg/log"
	"docbase-go/pkg/token"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	GetProfile(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id uint) (*model.User, error)
	UpdateEmail(ctx context.Context, userID uint, email string) (*model.User, error)
	Logout(ctx context.Context, tokenString string) error
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
	// ListCounterparts 返回除当前用户外的所有用户，作为聊天对象列表。
	ListCounterparts(ctx context.Context, self uint, search string) ([]model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.TokenRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtManager: jwtManager,
	}
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return model.NewValidationError("email", "A valid email address is required")
	}
	return nil
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, model.NewValidationError("username", "Username is required")
	}
	if len(password) < 6 {
		return nil, model.NewValidationError("password", "Password must be at least 6 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("用户名已存在: %w", model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if email != "" {
		if err := s.ensureEmailFree(ctx, email, 0); err != nil {
			return nil, err
		}
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 3. 将用户存入数据库
	newUser := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     "USER", // 默认角色
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		log.Errorf("[UserService] 创建用户失败, username: %s, error: %v", username, err)
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	// 1. 查找用户
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", "", fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)
		}
		return "", "", err
	}

	// 2. 验证密码
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)
	}

	// 3. 生成 access token 和 refresh token
	return s.issue(user)
}

func (s *userService) issue(user *model.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	// 1. 验证 refresh token 是否有效，access token 不能用来刷新
	claims, err := s.jwtManager.VerifyKind(refreshTokenString, token.KindRefresh)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", model.ErrUnauthorized)
	}
	if revoked, err := s.IsRevoked(ctx, refreshTokenString); err != nil {
		return "", "", err
	} else if revoked {
		return "", "", fmt.Errorf("refresh token revoked: %w", model.ErrUnauthorized)
	}

	// 2. 检查用户是否存在
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", "", fmt.Errorf("user not found: %w", model.ErrUnauthorized)
	}

	// 3. 旧的 refresh token 作废，签发新的 token
	if err := s.tokenRepo.Blacklist(ctx, refreshTokenString, time.Until(claims.ExpiresAt.Time)); err != nil {
		log.Warnf("[UserService] 作废旧 refresh token 失败: %v", err)
	}
	return s.issue(user)
}

// GetProfile 根据用户名获取用户详细信息。
func (s *userService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}

// FindByID 根据 ID 获取用户。
func (s *userService) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *userService) ensureEmailFree(ctx context.Context, email string, self uint) error {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing.ID != self {
		return fmt.Errorf("邮箱已被使用: %w", model.ErrConflict)
	}
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	return nil
}

// UpdateEmail 更新当前用户的邮箱。
func (s *userService) UpdateEmail(ctx context.Context, userID uint, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(user.Email, email) {
		return user, nil
	}
	if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
		return nil, err
	}

	user.Email = email
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("更新邮箱失败: %w", err)
	}
	log.Infof("[UserService] 用户邮箱已更新, userID: %d", user.ID)
	return user, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return fmt.Errorf("invalid token: %w", model.ErrUnauthorized)
	}
	// token 的剩余有效期将作为 Redis key 的过期时间。
	return s.tokenRepo.Blacklist(ctx, tokenString, time.Until(claims.ExpiresAt.Time))
}

// IsRevoked 检查 token 是否已登出。
func (s *userService) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	return s.tokenRepo.IsBlacklisted(ctx, tokenString)
}

// ListCounterparts 返回聊天对象列表。
func (s *userService) ListCounterparts(ctx context.Context, self uint, search string) ([]model.User, error) {
	users, err := s.userRepo.ListExcept(ctx, self, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("查询用户列表失败: %w", err)
	}
	return users, nil
}
