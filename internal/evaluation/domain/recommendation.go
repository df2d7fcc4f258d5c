package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// RecommendationType 建议类型
type RecommendationType string

const (
	RecommendationEntry  RecommendationType = "ENTRY"
	RecommendationExit   RecommendationType = "EXIT"
	RecommendationRoll   RecommendationType = "ROLL"
	RecommendationAdjust RecommendationType = "ADJUST"
)

// Recommendation 建议聚合根，本服务唯一的写入产物
type Recommendation struct {
	gorm.Model
	RecommendationNo string             `gorm:"type:varchar(64);uniqueIndex;not null" json:"recommendation_no"`
	PortfolioName    string             `gorm:"type:varchar(64);index;not null" json:"portfolio_name"`
	Type             RecommendationType `gorm:"type:varchar(16);not null" json:"type"`
	Underlying       string             `gorm:"type:varchar(32);not null" json:"underlying"`
	// EXIT/ROLL 时引用待平仓交易
	TradeNoToClose string `gorm:"type:varchar(64);index" json:"trade_no_to_close,omitempty"`
	// 具体退出方式：close, close_partial, roll, adjust, hedge
	ExitAction string `gorm:"type:varchar(16)" json:"exit_action,omitempty"`
	// 展期时的新腿（JSON）
	NewLegs string `gorm:"type:text" json:"new_legs,omitempty"`
	// 置信度 1-10
	Confidence int    `gorm:"not null" json:"confidence"`
	Rationale  string `gorm:"type:text" json:"rationale"`
	// 触发的规则列表（JSON，含未胜出者）
	TriggeredRules string `gorm:"type:text" json:"triggered_rules"`
	Urgency        string `gorm:"type:varchar(16)" json:"urgency"`

	events []DomainEvent `gorm:"-"`
}

// TableName 指定表名
func (Recommendation) TableName() string {
	return "recommendations"
}

// NewRecommendation 创建建议并登记创建事件
func NewRecommendation(no, portfolioName string, recType RecommendationType, underlying string) *Recommendation {
	r := &Recommendation{
		RecommendationNo: no,
		PortfolioName:    portfolioName,
		Type:             recType,
		Underlying:       underlying,
	}
	r.addEvent(RecommendationCreatedEvent{
		RecommendationNo: no,
		PortfolioName:    portfolioName,
		Type:             recType,
		Underlying:       underlying,
		CreatedAt:        time.Now(),
	})
	return r
}

func (r *Recommendation) addEvent(event DomainEvent) {
	r.events = append(r.events, event)
}

// GetDomainEvents 获取待发布的领域事件
func (r *Recommendation) GetDomainEvents() []DomainEvent {
	return r.events
}

// ClearDomainEvents 清空领域事件
func (r *Recommendation) ClearDomainEvents() {
	r.events = nil
}

// OutboxStatus 发件箱消息状态
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
)

// OutboxMessage 事务发件箱消息：与业务写入同事务落库，由中继异步投递
type OutboxMessage struct {
	gorm.Model
	EventID     string       `gorm:"type:varchar(64);uniqueIndex;not null" json:"event_id"`
	EventType   string       `gorm:"type:varchar(64);index;not null" json:"event_type"`
	AggregateID string       `gorm:"type:varchar(64);index" json:"aggregate_id"`
	Payload     string       `gorm:"type:text;not null" json:"payload"`
	Status      OutboxStatus `gorm:"type:varchar(16);index;default:pending" json:"status"`
	SentAt      *time.Time   `json:"sent_at,omitempty"`
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "evaluation_outbox_messages"
}

// RecommendationRepository 建议仓储接口
type RecommendationRepository interface {
	// Create 持久化建议，并在同一事务内写入其领域事件的发件箱消息
	Create(ctx context.Context, recommendation *Recommendation) error
	// List 按组合名倒序列出建议
	List(ctx context.Context, portfolioName string, limit int) ([]*Recommendation, error)
	// SaveEvent 将独立领域事件写入发件箱
	SaveEvent(ctx context.Context, aggregateID string, event DomainEvent) error
}
