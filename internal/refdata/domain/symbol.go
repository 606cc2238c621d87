// Package domain 定义参考数据上下文的领域模型
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSymbolExists 标的代码已存在
	ErrSymbolExists = errors.New("symbol code already exists")
	// ErrSymbolNotFound 标的不存在
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Symbol 交易标的实体
type Symbol struct {
	ID             uint64
	Code           string
	Name           string
	InstrumentType string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SymbolRepository 标的仓储接口
type SymbolRepository interface {
	// Save 保存标的
	Save(ctx context.Context, symbol *Symbol) error
	// FindByID 根据 ID 查找标的，未找到返回 nil
	FindByID(ctx context.Context, id uint64) (*Symbol, error)
	// FindByCode 根据代码查找标的，未找到返回 nil
	FindByCode(ctx context.Context, code string) (*Symbol, error)
	// FindAll 查找所有标的
	FindAll(ctx context.Context) ([]*Symbol, error)
	// Delete 删除标的
	Delete(ctx context.Context, id uint64) error
	// ExistsByCode 标的代码是否存在
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
