package outbox // 发件箱模式（Outbox Pattern）的消息中继

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
)

const (
	defaultPollingInterval = 5 * time.Second // 轮询 outbox 表的默认间隔
	defaultBatchSize       = 10              // 每次轮询处理的消息批量大小
	maxRetryCount          = 5               // 消息发布失败的最大重试次数
)

// MessageRelay 轮询 outbox 表并将消息发布到消息代理。
// 简历落库与匹配事件写入同一事务，中继异步投递，保证最终一致。
type MessageRelay struct {
	db              *gorm.DB
	publisher       *storage.RabbitMQ
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	tracer          trace.Tracer
}

// RelayOption 定义配置选项函数
type RelayOption func(*MessageRelay)

// WithPollingInterval 覆盖轮询间隔
func WithPollingInterval(interval time.Duration) RelayOption {
	return func(r *MessageRelay) {
		if interval > 0 {
			r.pollingInterval = interval
		}
	}
}

// WithBatchSize 覆盖批量大小
func WithBatchSize(size int) RelayOption {
	return func(r *MessageRelay) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// NewMessageRelay 创建消息中继实例
func NewMessageRelay(db *gorm.DB, publisher *storage.RabbitMQ, options ...RelayOption) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("resume-match-go/outbox-relay"),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Start 启动后台轮询
func (r *MessageRelay) Start() {
	logger.Info().Dur("interval", r.pollingInterval).Msg("发件箱中继启动")
	ticker := time.NewTicker(r.pollingInterval)

	go func() {
		for {
			select {
			case <-r.done:
				ticker.Stop()
				logger.Info().Msg("发件箱中继已停止")
				return
			case <-ticker.C:
				if err := r.processPendingMessages(context.Background()); err != nil {
					logger.Error().Err(err).Msg("处理待投递消息失败")
				}
			}
		}
	}()
}

// Stop 优雅地停止消息中继
func (r *MessageRelay) Stop() {
	close(r.done)
}

// processPendingMessages 获取并投递一批 PENDING 状态的消息。
// FOR UPDATE SKIP LOCKED 让多实例部署时各自跳过已被锁定的行。
func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	var messages []models.OutboxMessage

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return err
	}

	// 空轮询不产生Span
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(
			attribute.Int("messaging.batch.message_count", len(messages)),
		),
	)
	defer span.End()

	for _, msg := range messages {
		err := r.publisher.PublishMessage(
			ctx,
			msg.TargetExchange,
			msg.TargetRoutingKey,
			[]byte(msg.Payload),
			true, // 持久化
		)

		if err != nil {
			logger.Warn().
				Err(err).
				Uint64("message_id", msg.ID).
				Str("aggregate_id", msg.AggregateID).
				Int("retry_count", msg.RetryCount+1).
				Msg("发布发件箱消息失败")
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= maxRetryCount {
				msg.Status = models.OutboxStatusFailed
			}
		} else {
			msg.Status = models.OutboxStatusSent
			now := time.Now()
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}

		// 更新失败则整批回滚，消息保持PENDING等待下次轮询
		if err := tx.Save(&msg).Error; err != nil {
			return err
		}
	}

	return tx.Commit().Error
}
