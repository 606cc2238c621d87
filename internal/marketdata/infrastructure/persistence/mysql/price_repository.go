// Package mysql 实现行情数据上下文的 MySQL 仓储
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
)

// PriceModel 价格数据库模型
type PriceModel struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	SymbolID   uint64          `gorm:"index"`
	SymbolCode string          `gorm:"type:varchar(16);index:idx_prices_symbol_timestamp;not null"`
	Price      decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	Volume     int64           `gorm:"not null"`
	Timestamp  time.Time       `gorm:"index:idx_prices_symbol_timestamp;index;not null"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
}

// TableName 表名
func (PriceModel) TableName() string {
	return "prices"
}

// ToDomain 转换为领域对象
func (m *PriceModel) ToDomain() *domain.Price {
	return &domain.Price{
		ID:         m.ID,
		SymbolID:   m.SymbolID,
		SymbolCode: m.SymbolCode,
		Price:      m.Price,
		Volume:     m.Volume,
		Timestamp:  m.Timestamp,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomain 从领域对象转换
func (m *PriceModel) FromDomain(p *domain.Price) {
	m.ID = p.ID
	m.SymbolID = p.SymbolID
	m.SymbolCode = p.SymbolCode
	m.Price = p.Price
	m.Volume = p.Volume
	m.Timestamp = p.Timestamp
	m.CreatedAt = p.CreatedAt
}

// PriceRepository 价格仓储实现
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository 创建价格仓储
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Save 保存价格事件
func (r *PriceRepository) Save(ctx context.Context, price *domain.Price) error {
	var model PriceModel
	model.FromDomain(price)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}

	price.ID = model.ID
	price.CreatedAt = model.CreatedAt
	return nil
}

// FindBySymbol 按标的与时间区间查询价格，按时间升序
func (r *PriceRepository) FindBySymbol(ctx context.Context, query domain.PriceQuery) ([]*domain.Price, error) {
	tx := r.db.WithContext(ctx).Where("symbol_code = ?", query.SymbolCode)

	if query.Start != nil {
		tx = tx.Where("timestamp >= ?", *query.Start)
	}
	if query.End != nil {
		tx = tx.Where("timestamp <= ?", *query.End)
	}
	if query.Limit > 0 {
		tx = tx.Limit(query.Limit)
	}

	var models []PriceModel
	if err := tx.Order("timestamp ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

// FindLatest 查询标的最新价格
func (r *PriceRepository) FindLatest(ctx context.Context, symbolCode string) (*domain.Price, error) {
	var model PriceModel
	err := r.db.WithContext(ctx).
		Where("symbol_code = ?", symbolCode).
		Order("timestamp DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSince 查询指定时刻以来的价格，按时间降序
func (r *PriceRepository) FindSince(ctx context.Context, since time.Time, limit int) ([]*domain.Price, error) {
	tx := r.db.WithContext(ctx).Where("timestamp >= ?", since).Order("timestamp DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var models []PriceModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

func toDomainSlice(models []PriceModel) []*domain.Price {
	prices := make([]*domain.Price, 0, len(models))
	for i := range models {
		prices = append(prices, models[i].ToDomain())
	}
	return prices
}
