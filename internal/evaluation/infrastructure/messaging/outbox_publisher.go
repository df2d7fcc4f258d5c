// Package messaging 评估上下文的事件投递：发件箱中继
package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/optionstrading/internal/evaluation/domain"
	"github.com/wyfcoding/optionstrading/pkg/mq"
	"gorm.io/gorm"
)

const relayBatchSize = 100

// OutboxPublisher 发件箱中继：轮询 pending 消息并投递到 Kafka
type OutboxPublisher struct {
	db       *gorm.DB
	producer *mq.KafkaProducer
	topic    string
	interval time.Duration
	logger   *slog.Logger
}

// NewOutboxPublisher 创建发件箱中继
func NewOutboxPublisher(db *gorm.DB, producer *mq.KafkaProducer, topic string, interval time.Duration, logger *slog.Logger) *OutboxPublisher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxPublisher{
		db:       db,
		producer: producer,
		topic:    topic,
		interval: interval,
		logger:   logger,
	}
}

// Run 周期性投递，直到 ctx 取消
func (p *OutboxPublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.ProcessOutboxMessages(ctx); err != nil {
				p.logger.ErrorContext(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

// ProcessOutboxMessages 投递一批 pending 消息。
// 单条投递失败只记录日志并保留 pending，等待下一轮重试。
func (p *OutboxPublisher) ProcessOutboxMessages(ctx context.Context) error {
	var messages []domain.OutboxMessage
	err := p.db.WithContext(ctx).
		Where("status = ?", domain.OutboxStatusPending).
		Order("id ASC").
		Limit(relayBatchSize).
		Find(&messages).Error
	if err != nil {
		return err
	}

	for i := range messages {
		msg := &messages[i]
		if err := p.producer.SendRaw(ctx, p.topic, msg.AggregateID, []byte(msg.Payload)); err != nil {
			p.logger.WarnContext(ctx, "outbox message delivery failed, will retry",
				"event_id", msg.EventID,
				"event_type", msg.EventType,
				"error", err,
			)
			continue
		}

		now := time.Now()
		update := p.db.WithContext(ctx).Model(msg).Updates(map[string]interface{}{
			"status":  domain.OutboxStatusSent,
			"sent_at": &now,
		})
		if update.Error != nil {
			p.logger.ErrorContext(ctx, "failed to mark outbox message sent",
				"event_id", msg.EventID,
				"error", update.Error,
			)
		}
	}
	return nil
}
