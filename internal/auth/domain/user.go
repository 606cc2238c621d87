// Package domain 定义认证上下文的领域模型
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserExists 用户名已被占用
	ErrUserExists = errors.New("username already taken")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// User 用户实体
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// Save 保存用户
	Save(ctx context.Context, user *User) error
	// FindByID 根据 ID 查找用户，未找到返回 nil
	FindByID(ctx context.Context, id uint64) (*User, error)
	// FindByUsername 根据用户名查找用户，未找到返回 nil
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindAll 查找所有用户
	FindAll(ctx context.Context) ([]*User, error)
}
