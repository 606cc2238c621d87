// Package application 实现行情数据上下文的应用服务
package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
)

// CreatePriceCommand 价格摄入命令
type CreatePriceCommand struct {
	SymbolCode string
	Price      decimal.Decimal
	Volume     int64
	Timestamp  time.Time
}

// PriceHistory 价格历史视图，统计值基于返回的价格序列
type PriceHistory struct {
	SymbolCode string             `json:"symbolCode"`
	Prices     []*domain.Price    `json:"prices"`
	Statistics *domain.Statistics `json:"statistics"`
}

// HistoryQuery 历史查询参数
type HistoryQuery struct {
	SymbolCode string
	Start      *time.Time
	End        *time.Time
	Limit      int
}
