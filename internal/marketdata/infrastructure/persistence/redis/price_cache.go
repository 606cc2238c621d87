// Package redis 实现行情数据上下文的 Redis 读模型
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
	"github.com/wyfcoding/marketgateway/pkg/cache"
)

const (
	latestPricePrefix = "marketgateway:price:latest:"
	analysisPrefix    = "marketgateway:analysis:latest:"

	latestPriceTTL = 24 * time.Hour
	analysisTTL    = 24 * time.Hour
)

// PriceCache 最新价格 Redis 读模型
type PriceCache struct {
	cache *cache.RedisCache
}

// NewPriceCache 创建价格缓存
func NewPriceCache(c *cache.RedisCache) *PriceCache {
	return &PriceCache{cache: c}
}

// SetLatest 写入标的的最新价格
func (pc *PriceCache) SetLatest(ctx context.Context, price *domain.Price) error {
	return pc.cache.SetJSON(ctx, latestPricePrefix+price.SymbolCode, price, latestPriceTTL)
}

// GetLatest 读取标的的最新价格，缓存未命中返回 nil
func (pc *PriceCache) GetLatest(ctx context.Context, symbolCode string) (*domain.Price, error) {
	val, err := pc.cache.Get(ctx, latestPricePrefix+symbolCode)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, nil
	}

	var price domain.Price
	if err := json.Unmarshal([]byte(val), &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// AnalysisStore 分析快照 Redis 读模型
type AnalysisStore struct {
	cache *cache.RedisCache
}

// NewAnalysisStore 创建分析快照存储
func NewAnalysisStore(c *cache.RedisCache) *AnalysisStore {
	return &AnalysisStore{cache: c}
}

// SaveSnapshot 保存标的的最新分析快照
func (as *AnalysisStore) SaveSnapshot(ctx context.Context, snapshot *domain.AnalysisSnapshot) error {
	return as.cache.SetJSON(ctx, analysisPrefix+snapshot.SymbolCode, snapshot, analysisTTL)
}

// GetSnapshot 读取标的的最新分析快照，无数据返回 nil
func (as *AnalysisStore) GetSnapshot(ctx context.Context, symbolCode string) (*domain.AnalysisSnapshot, error) {
	val, err := as.cache.Get(ctx, analysisPrefix+symbolCode)
	if err != nil {
		return nil, err
	}
	if val == "" {
		return nil, nil
	}

	var snapshot domain.AnalysisSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
