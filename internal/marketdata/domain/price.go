// Package domain 定义行情数据上下文的领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownSymbol 价格事件引用了不存在的标的
	ErrUnknownSymbol = errors.New("unknown symbol code")
	// ErrNoPriceData 区间内没有价格数据
	ErrNoPriceData = errors.New("no price data for symbol")
)

// Price 价格事件实体，symbol_code 冗余存储以避免查询时关联
type Price struct {
	ID         uint64          `json:"id"`
	SymbolID   uint64          `json:"-"`
	SymbolCode string          `json:"symbolCode"`
	Price      decimal.Decimal `json:"price"`
	Volume     int64           `json:"volume"`
	Timestamp  time.Time       `json:"timestamp"`
	CreatedAt  time.Time       `json:"-"`
}

// PriceQuery 价格历史查询条件
type PriceQuery struct {
	SymbolCode string
	Start      *time.Time
	End        *time.Time
	Limit      int
}

// PriceRepository 价格仓储接口
type PriceRepository interface {
	// Save 保存价格事件
	Save(ctx context.Context, price *Price) error
	// FindBySymbol 按标的与时间区间查询价格，按时间升序
	FindBySymbol(ctx context.Context, query PriceQuery) ([]*Price, error)
	// FindLatest 查询标的最新价格，无数据返回 nil
	FindLatest(ctx context.Context, symbolCode string) (*Price, error)
	// FindSince 查询指定时刻以来的所有价格，按时间降序
	FindSince(ctx context.Context, since time.Time, limit int) ([]*Price, error)
}
