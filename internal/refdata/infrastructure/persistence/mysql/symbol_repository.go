// Package mysql 实现参考数据上下文的 MySQL 仓储
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/marketgateway/internal/refdata/domain"
)

// SymbolModel 标的数据库模型
type SymbolModel struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	Code           string    `gorm:"type:varchar(16);uniqueIndex;not null"`
	Name           string    `gorm:"type:varchar(128);not null"`
	InstrumentType string    `gorm:"type:varchar(32);not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName 表名
func (SymbolModel) TableName() string {
	return "symbols"
}

// ToDomain 转换为领域对象
func (m *SymbolModel) ToDomain() *domain.Symbol {
	return &domain.Symbol{
		ID:             m.ID,
		Code:           m.Code,
		Name:           m.Name,
		InstrumentType: m.InstrumentType,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain 从领域对象转换
func (m *SymbolModel) FromDomain(s *domain.Symbol) {
	m.ID = s.ID
	m.Code = s.Code
	m.Name = s.Name
	m.InstrumentType = s.InstrumentType
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}

// SymbolRepository 标的仓储实现
type SymbolRepository struct {
	db *gorm.DB
}

// NewSymbolRepository 创建标的仓储
func NewSymbolRepository(db *gorm.DB) *SymbolRepository {
	return &SymbolRepository{db: db}
}

// Save 保存标的
func (r *SymbolRepository) Save(ctx context.Context, symbol *domain.Symbol) error {
	var model SymbolModel
	model.FromDomain(symbol)

	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}

	symbol.ID = model.ID
	symbol.CreatedAt = model.CreatedAt
	symbol.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID 根据 ID 查找标的
func (r *SymbolRepository) FindByID(ctx context.Context, id uint64) (*domain.Symbol, error) {
	var model SymbolModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode 根据代码查找标的
func (r *SymbolRepository) FindByCode(ctx context.Context, code string) (*domain.Symbol, error) {
	var model SymbolModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll 查找所有标的
func (r *SymbolRepository) FindAll(ctx context.Context) ([]*domain.Symbol, error) {
	var models []SymbolModel
	err := r.db.WithContext(ctx).Order("code ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	symbols := make([]*domain.Symbol, 0, len(models))
	for i := range models {
		symbols = append(symbols, models[i].ToDomain())
	}
	return symbols, nil
}

// Delete 删除标的
func (r *SymbolRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&SymbolModel{}, id).Error
}

// ExistsByCode 标的代码是否存在
func (r *SymbolRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&SymbolModel{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
