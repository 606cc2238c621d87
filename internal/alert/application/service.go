// Package application 实现告警上下文的应用服务
package application

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/marketgateway/internal/alert/domain"
	"github.com/wyfcoding/marketgateway/pkg/logger"
	"github.com/wyfcoding/marketgateway/pkg/metrics"
)

// TopicAlerts 全局告警主题
const TopicAlerts = "alerts"

// CreateAlertCommand 创建告警命令
type CreateAlertCommand struct {
	SymbolCode  string          `json:"symbolCode" binding:"required,max=16"`
	AlertType   string          `json:"alertType" binding:"required,max=50"`
	Threshold   decimal.Decimal `json:"threshold" binding:"required"`
	TriggeredAt time.Time       `json:"triggeredAt"`
	Details     string          `json:"details"`
}

// UpdateAlertCommand 更新告警命令
type UpdateAlertCommand struct {
	Acknowledged bool `json:"acknowledged"`
}

// SymbolChecker 标的存在性校验端口
type SymbolChecker interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// EventPublisher 广播发布端口
type EventPublisher interface {
	Publish(topics []string, event interface{})
}

// MessageProducer 消息队列外发端口
type MessageProducer interface {
	SendMessage(ctx context.Context, topic string, key string, value interface{}) error
}

// AlertService 告警应用服务
type AlertService struct {
	repo       domain.AlertRepository
	symbols    SymbolChecker
	publisher  EventPublisher
	producer   MessageProducer
	alertTopic string
	metrics    *metrics.Metrics
}

// NewAlertService 创建告警服务，producer 为 nil 时禁用消息外发
func NewAlertService(
	repo domain.AlertRepository,
	symbols SymbolChecker,
	publisher EventPublisher,
	producer MessageProducer,
	alertTopic string,
	m *metrics.Metrics,
) *AlertService {
	return &AlertService{
		repo:       repo,
		symbols:    symbols,
		publisher:  publisher,
		producer:   producer,
		alertTopic: alertTopic,
		metrics:    m,
	}
}

// Create 创建告警并广播。标的不存在返回 ErrUnknownSymbol
func (s *AlertService) Create(ctx context.Context, cmd CreateAlertCommand) (*domain.Alert, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.SymbolCode))

	exists, err := s.symbols.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrUnknownSymbol
	}

	triggeredAt := cmd.TriggeredAt
	if triggeredAt.IsZero() {
		triggeredAt = time.Now()
	}

	alert := &domain.Alert{
		SymbolCode:  code,
		AlertType:   cmd.AlertType,
		Threshold:   cmd.Threshold,
		TriggeredAt: triggeredAt,
		Details:     cmd.Details,
	}
	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AlertsIngested.Inc()
	}

	logger.Info(ctx, "Alert created", "id", alert.ID, "symbol", code, "type", alert.AlertType)

	s.publisher.Publish([]string{TopicAlerts, TopicAlerts + "/" + code}, alert)

	if s.producer != nil {
		if err := s.producer.SendMessage(ctx, s.alertTopic, code, alert); err != nil {
			logger.Warn(ctx, "Failed to produce alert event", "symbol", code, "error", err)
		}
	}

	return alert, nil
}

// List 按条件查询告警
func (s *AlertService) List(ctx context.Context, q domain.AlertQuery) ([]*domain.Alert, error) {
	q.SymbolCode = strings.ToUpper(strings.TrimSpace(q.SymbolCode))
	return s.repo.FindAll(ctx, q)
}

// ListActive 查询所有未确认告警
func (s *AlertService) ListActive(ctx context.Context) ([]*domain.Alert, error) {
	return s.repo.FindActive(ctx)
}

// Get 根据 ID 查询告警
func (s *AlertService) Get(ctx context.Context, id uint64) (*domain.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrAlertNotFound
	}
	return alert, nil
}

// Acknowledge 确认告警
func (s *AlertService) Acknowledge(ctx context.Context, id uint64) (*domain.Alert, error) {
	return s.Update(ctx, id, UpdateAlertCommand{Acknowledged: true})
}

// Update 更新告警确认状态，其余字段创建后不可变
func (s *AlertService) Update(ctx context.Context, id uint64, cmd UpdateAlertCommand) (*domain.Alert, error) {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, domain.ErrAlertNotFound
	}

	alert.Acknowledged = cmd.Acknowledged
	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Alert updated", "id", alert.ID, "acknowledged", alert.Acknowledged)
	return alert, nil
}

// Delete 删除告警
func (s *AlertService) Delete(ctx context.Context, id uint64) error {
	alert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if alert == nil {
		return domain.ErrAlertNotFound
	}
	return s.repo.Delete(ctx, id)
}
