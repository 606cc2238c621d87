// Package domain 定义告警上下文的领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAlertNotFound 告警不存在
	ErrAlertNotFound = errors.New("alert not found")
	// ErrUnknownSymbol 告警引用了不存在的标的
	ErrUnknownSymbol = errors.New("unknown symbol code")
)

// Alert 告警实体，acknowledged 是创建后唯一可变的业务字段
type Alert struct {
	ID           uint64          `json:"id"`
	SymbolID     uint64          `json:"-"`
	SymbolCode   string          `json:"symbolCode"`
	AlertType    string          `json:"alertType"`
	Threshold    decimal.Decimal `json:"threshold"`
	TriggeredAt  time.Time       `json:"triggeredAt"`
	Details      string          `json:"details"`
	Acknowledged bool            `json:"acknowledged"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// AlertQuery 告警查询条件，零值字段不参与过滤
type AlertQuery struct {
	SymbolCode string
	AlertType  string
	Start      *time.Time
	End        *time.Time
}

// AlertRepository 告警仓储接口
type AlertRepository interface {
	// Save 保存告警
	Save(ctx context.Context, alert *Alert) error
	// FindByID 根据 ID 查找告警，未找到返回 nil
	FindByID(ctx context.Context, id uint64) (*Alert, error)
	// FindAll 按条件查找告警，按触发时间降序
	FindAll(ctx context.Context, q AlertQuery) ([]*Alert, error)
	// FindActive 查找所有未确认告警，按触发时间降序
	FindActive(ctx context.Context) ([]*Alert, error)
	// Delete 删除告警
	Delete(ctx context.Context, id uint64) error
}
