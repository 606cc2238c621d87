// Package mysql 实现告警上下文的 MySQL 仓储
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/marketgateway/internal/alert/domain"
)

// AlertModel 告警数据库模型
type AlertModel struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	SymbolID     uint64          `gorm:"index"`
	SymbolCode   string          `gorm:"type:varchar(16);index;not null"`
	AlertType    string          `gorm:"type:varchar(50);not null"`
	Threshold    decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	TriggeredAt  time.Time       `gorm:"index;not null"`
	Details      string          `gorm:"type:text"`
	Acknowledged bool            `gorm:"not null;default:false"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
}

// TableName 表名
func (AlertModel) TableName() string {
	return "alerts"
}

// ToDomain 转换为领域对象
func (m *AlertModel) ToDomain() *domain.Alert {
	return &domain.Alert{
		ID:           m.ID,
		SymbolID:     m.SymbolID,
		SymbolCode:   m.SymbolCode,
		AlertType:    m.AlertType,
		Threshold:    m.Threshold,
		TriggeredAt:  m.TriggeredAt,
		Details:      m.Details,
		Acknowledged: m.Acknowledged,
		CreatedAt:    m.CreatedAt,
	}
}

// FromDomain 从领域对象转换
func (m *AlertModel) FromDomain(a *domain.Alert) {
	m.ID = a.ID
	m.SymbolID = a.SymbolID
	m.SymbolCode = a.SymbolCode
	m.AlertType = a.AlertType
	m.Threshold = a.Threshold
	m.TriggeredAt = a.TriggeredAt
	m.Details = a.Details
	m.Acknowledged = a.Acknowledged
	m.CreatedAt = a.CreatedAt
}

// AlertRepository 告警仓储实现
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository 创建告警仓储
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Save 保存告警
func (r *AlertRepository) Save(ctx context.Context, alert *domain.Alert) error {
	var model AlertModel
	model.FromDomain(alert)

	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}

	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	return nil
}

// FindByID 根据 ID 查找告警
func (r *AlertRepository) FindByID(ctx context.Context, id uint64) (*domain.Alert, error) {
	var model AlertModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll 按条件查找告警，按触发时间降序
func (r *AlertRepository) FindAll(ctx context.Context, q domain.AlertQuery) ([]*domain.Alert, error) {
	tx := r.db.WithContext(ctx)
	if q.SymbolCode != "" {
		tx = tx.Where("symbol_code = ?", q.SymbolCode)
	}
	if q.AlertType != "" {
		tx = tx.Where("alert_type = ?", q.AlertType)
	}
	if q.Start != nil {
		tx = tx.Where("triggered_at >= ?", *q.Start)
	}
	if q.End != nil {
		tx = tx.Where("triggered_at <= ?", *q.End)
	}

	var models []AlertModel
	if err := tx.Order("triggered_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

// FindActive 查找所有未确认告警，按触发时间降序
func (r *AlertRepository) FindActive(ctx context.Context) ([]*domain.Alert, error) {
	var models []AlertModel
	err := r.db.WithContext(ctx).
		Where("acknowledged = ?", false).
		Order("triggered_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainSlice(models), nil
}

// Delete 删除告警
func (r *AlertRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&AlertModel{}, id).Error
}

func toDomainSlice(models []AlertModel) []*domain.Alert {
	alerts := make([]*domain.Alert, 0, len(models))
	for i := range models {
		alerts = append(alerts, models[i].ToDomain())
	}
	return alerts
}
