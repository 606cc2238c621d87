package application

import (
	"context"
	"strings"
	"time"

	"github.com/wyfcoding/marketgateway/internal/marketdata/domain"
	"github.com/wyfcoding/marketgateway/pkg/logger"
	"github.com/wyfcoding/marketgateway/pkg/metrics"
)

// TopicPrices 全局价格主题
const TopicPrices = "prices"

// TopicAnalysis 全局分析主题
const TopicAnalysis = "analysis"

// SymbolChecker 标的存在性校验端口
type SymbolChecker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// EventPublisher 广播发布端口，持久化成功后调用
type EventPublisher interface {
	Publish(topics []string, event interface{})
}

// MessageProducer 消息队列外发端口
type MessageProducer interface {
	SendMessage(ctx context.Context, topic string, key string, value interface{}) error
}

// MarketDataService 行情数据应用服务
type MarketDataService struct {
	repo       domain.PriceRepository
	cache      domain.PriceCache
	analysis   domain.AnalysisStore
	symbols    SymbolChecker
	publisher  EventPublisher
	producer   MessageProducer
	priceTopic string
	metrics    *metrics.Metrics
}

// NewMarketDataService 创建行情数据服务，producer 为 nil 时禁用消息外发
func NewMarketDataService(
	repo domain.PriceRepository,
	cache domain.PriceCache,
	analysis domain.AnalysisStore,
	symbols SymbolChecker,
	publisher EventPublisher,
	producer MessageProducer,
	priceTopic string,
	m *metrics.Metrics,
) *MarketDataService {
	return &MarketDataService{
		repo:       repo,
		cache:      cache,
		analysis:   analysis,
		symbols:    symbols,
		publisher:  publisher,
		producer:   producer,
		priceTopic: priceTopic,
		metrics:    m,
	}
}

// CreatePrice 摄入价格事件。标的不存在返回 ErrUnknownSymbol，
// 广播只在持久化成功后触发
func (s *MarketDataService) CreatePrice(ctx context.Context, cmd CreatePriceCommand) (*domain.Price, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.SymbolCode))

	exists, err := s.symbols.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUnknownSymbol
	}

	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	price := &domain.Price{
		SymbolCode: code,
		Price:      cmd.Price,
		Volume:     cmd.Volume,
		Timestamp:  ts,
	}
	if err := s.repo.Save(ctx, price); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PricesIngested.Inc()
	}

	// 缓存与外发失败不影响摄入结果。
	// 回溯时间戳的事件不能覆盖缓存里更新的价格
	cached, err := s.cache.GetLatest(ctx, code)
	if err != nil {
		logger.Warn(ctx, "Price cache read failed", "symbol", code, "error", err)
	}
	if cached == nil || !price.Timestamp.Before(cached.Timestamp) {
		if err := s.cache.SetLatest(ctx, price); err != nil {
			logger.Warn(ctx, "Failed to cache latest price", "symbol", code, "error", err)
		}
	}

	s.publisher.Publish([]string{TopicPrices, TopicPrices + "/" + code}, price)

	if s.producer != nil {
		if err := s.producer.SendMessage(ctx, s.priceTopic, code, price); err != nil {
			logger.Warn(ctx, "Failed to produce price event", "symbol", code, "error", err)
		}
	}

	return price, nil
}

// GetHistory 查询价格历史与统计。标的不存在返回 ErrUnknownSymbol，
// 区间内无数据返回 ErrNoPriceData
func (s *MarketDataService) GetHistory(ctx context.Context, q HistoryQuery) (*PriceHistory, error) {
	code := strings.ToUpper(q.SymbolCode)

	exists, err := s.symbols.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUnknownSymbol
	}

	prices, err := s.repo.FindBySymbol(ctx, domain.PriceQuery{
		SymbolCode: code,
		Start:      q.Start,
		End:        q.End,
		Limit:      q.Limit,
	})
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, domain.ErrNoPriceData
	}

	return &PriceHistory{
		SymbolCode: code,
		Prices:     prices,
		Statistics: domain.ComputeStatistics(prices),
	}, nil
}

// GetLatest 查询标的最新价格，优先读缓存，无数据返回 nil
func (s *MarketDataService) GetLatest(ctx context.Context, symbolCode string) (*domain.Price, error) {
	code := strings.ToUpper(symbolCode)

	cached, err := s.cache.GetLatest(ctx, code)
	if err != nil {
		logger.Warn(ctx, "Price cache read failed", "symbol", code, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	price, err := s.repo.FindLatest(ctx, code)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, nil
	}

	if err := s.cache.SetLatest(ctx, price); err != nil {
		logger.Warn(ctx, "Failed to backfill price cache", "symbol", code, "error", err)
	}
	return price, nil
}

// LatestPrice 最新价格视图端口实现，无数据返回 nil
func (s *MarketDataService) LatestPrice(ctx context.Context, symbolCode string) (interface{}, error) {
	price, err := s.GetLatest(ctx, symbolCode)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, nil
	}
	return price, nil
}

// GetRecent 查询最近一小时的价格，按时间降序
func (s *MarketDataService) GetRecent(ctx context.Context) ([]*domain.Price, error) {
	since := time.Now().Add(-time.Hour)
	return s.repo.FindSince(ctx, since, 1000)
}

// SaveAnalysis 保存分析快照并广播
func (s *MarketDataService) SaveAnalysis(ctx context.Context, snapshot *domain.AnalysisSnapshot) error {
	snapshot.SymbolCode = strings.ToUpper(strings.TrimSpace(snapshot.SymbolCode))
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now()
	}

	if err := s.analysis.SaveSnapshot(ctx, snapshot); err != nil {
		return err
	}

	s.publisher.Publish([]string{TopicAnalysis, TopicAnalysis + "/" + snapshot.SymbolCode}, snapshot)
	return nil
}

// GetAnalysis 读取标的最新分析快照，无数据返回 nil
func (s *MarketDataService) GetAnalysis(ctx context.Context, symbolCode string) (*domain.AnalysisSnapshot, error) {
	return s.analysis.GetSnapshot(ctx, strings.ToUpper(symbolCode))
}
