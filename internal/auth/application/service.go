package application

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/marketgateway/internal/auth/domain"
	"github.com/wyfcoding/marketgateway/pkg/logger"
)

// AuthService 认证应用服务
type AuthService struct {
	repo   domain.UserRepository
	tokens *TokenService
}

// NewAuthService 创建认证服务
func NewAuthService(repo domain.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
	}
}

// Register 注册新用户，用户名冲突返回 ErrUserExists
func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (*UserDTO, error) {
	existing, err := s.repo.FindByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     cmd.Username,
		PasswordHash: string(hash),
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "User registered", "username", user.Username)

	return toUserDTO(user), nil
}

// Login 校验凭证并签发令牌。用户不存在与密码错误返回同一错误
func (s *AuthService) Login(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	user, err := s.repo.FindByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		logger.Warn(ctx, "Login failed", "username", cmd.Username)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "User logged in", "username", user.Username)

	return &LoginResult{
		Token:    token,
		Username: user.Username,
		Type:     "Bearer",
	}, nil
}

// Validate 校验令牌，返回主体与是否有效
func (s *AuthService) Validate(token string) (string, bool) {
	return s.tokens.Validate(token)
}

// GetUser 根据 ID 查询用户
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserDTO(user), nil
}

// GetUserByUsername 根据用户名查询用户
func (s *AuthService) GetUserByUsername(ctx context.Context, username string) (*UserDTO, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserDTO(user), nil
}

// ListUsers 查询所有用户
func (s *AuthService) ListUsers(ctx context.Context) ([]*UserDTO, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]*UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, toUserDTO(u))
	}
	return dtos, nil
}

func toUserDTO(u *domain.User) *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
