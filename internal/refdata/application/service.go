// Package application 实现参考数据上下文的应用服务
package application

import (
	"context"
	"strings"

	"github.com/wyfcoding/marketgateway/internal/refdata/domain"
	"github.com/wyfcoding/marketgateway/pkg/logger"
)

// CreateSymbolCommand 创建标的命令
type CreateSymbolCommand struct {
	Code           string `json:"code" binding:"required,max=16"`
	Name           string `json:"name" binding:"required,max=128"`
	InstrumentType string `json:"instrumentType" binding:"required,max=32"`
}

// UpdateSymbolCommand 更新标的命令
type UpdateSymbolCommand struct {
	Name           string `json:"name" binding:"required,max=128"`
	InstrumentType string `json:"instrumentType" binding:"required,max=32"`
}

// SymbolService 标的应用服务
type SymbolService struct {
	repo domain.SymbolRepository
}

// NewSymbolService 创建标的服务
func NewSymbolService(repo domain.SymbolRepository) *SymbolService {
	return &SymbolService{repo: repo}
}

// Create 创建标的，代码统一转为大写
func (s *SymbolService) Create(ctx context.Context, cmd CreateSymbolCommand) (*domain.Symbol, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))

	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrSymbolExists
	}

	symbol := &domain.Symbol{
		Code:           code,
		Name:           cmd.Name,
		InstrumentType: cmd.InstrumentType,
	}
	if err := s.repo.Save(ctx, symbol); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Symbol created", "code", symbol.Code)
	return symbol, nil
}

// Update 更新标的，代码不可变
func (s *SymbolService) Update(ctx context.Context, id uint64, cmd UpdateSymbolCommand) (*domain.Symbol, error) {
	symbol, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, domain.ErrSymbolNotFound
	}

	symbol.Name = cmd.Name
	symbol.InstrumentType = cmd.InstrumentType
	if err := s.repo.Save(ctx, symbol); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Symbol updated", "code", symbol.Code)
	return symbol, nil
}

// Delete 删除标的
func (s *SymbolService) Delete(ctx context.Context, id uint64) error {
	symbol, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if symbol == nil {
		return domain.ErrSymbolNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.Info(ctx, "Symbol deleted", "code", symbol.Code)
	return nil
}

// Get 根据 ID 查询标的
func (s *SymbolService) Get(ctx context.Context, id uint64) (*domain.Symbol, error) {
	symbol, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, domain.ErrSymbolNotFound
	}
	return symbol, nil
}

// GetByCode 根据代码查询标的
func (s *SymbolService) GetByCode(ctx context.Context, code string) (*domain.Symbol, error) {
	symbol, err := s.repo.FindByCode(ctx, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	if symbol == nil {
		return nil, domain.ErrSymbolNotFound
	}
	return symbol, nil
}

// List 查询所有标的
func (s *SymbolService) List(ctx context.Context) ([]*domain.Symbol, error) {
	return s.repo.FindAll(ctx)
}

// Exists 标的代码是否存在
func (s *SymbolService) Exists(ctx context.Context, code string) (bool, error) {
	return s.repo.ExistsByCode(ctx, strings.ToUpper(code))
}
