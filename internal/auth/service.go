package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service 用户注册登录服务
type Service struct {
	db  *gorm.DB
	jwt *JWTService
}

// NewService 创建认证服务
func NewService(db *gorm.DB, jwt *JWTService) *Service {
	return &Service{db: db, jwt: jwt}
}

// RegisterInput 注册入参
type RegisterInput struct {
	OrgID    string
	Email    string
	Name     string
	Password string
}

// Register 注册新用户
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("邮箱格式不正确")
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("密码至少 8 位")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("邮箱已被注册")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		OrgID:        input.OrgID,
		Email:        email,
		Name:         input.Name,
		PasswordHash: string(hash),
		Status:       "active",
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// Login 校验凭据并签发令牌
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	err := s.db.WithContext(ctx).
		Where("email = ? AND deleted_at IS NULL", email).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, fmt.Errorf("邮箱或密码错误")
		}
		return nil, nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user.Status != "active" {
		return nil, nil, fmt.Errorf("账号已被禁用")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, fmt.Errorf("邮箱或密码错误")
	}

	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.OrgID)
	if err != nil {
		return nil, nil, err
	}
	return &user, tokens, nil
}

// Logout 注销当前访问令牌
func (s *Service) Logout(ctx context.Context, claims *TokenClaims) error {
	return s.jwt.Revoke(ctx, claims)
}

// GetUser 按 ID 获取用户
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", userID).
		First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("用户不存在")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}
