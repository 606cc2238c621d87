package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisSnapshot 分析服务上报的指标快照
type AnalysisSnapshot struct {
	SymbolCode   string          `json:"symbolCode"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	SMA          decimal.Decimal `json:"sma"`
	EMA          decimal.Decimal `json:"ema"`
	Volume       int64           `json:"volume"`
	Timestamp    time.Time       `json:"timestamp"`
	WindowSize   int             `json:"windowSize"`
}

// AnalysisStore 分析快照读模型
type AnalysisStore interface {
	// SaveSnapshot 保存标的的最新分析快照
	SaveSnapshot(ctx context.Context, snapshot *AnalysisSnapshot) error
	// GetSnapshot 读取标的的最新分析快照，无数据返回 nil
	GetSnapshot(ctx context.Context, symbolCode string) (*AnalysisSnapshot, error)
}

// PriceCache 最新价格读模型
type PriceCache interface {
	// SetLatest 写入标的的最新价格
	SetLatest(ctx context.Context, price *Price) error
	// GetLatest 读取标的的最新价格，缓存未命中返回 nil
	GetLatest(ctx context.Context, symbolCode string) (*Price, error)
}
