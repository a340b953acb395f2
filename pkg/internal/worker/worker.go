// Package worker 消费附件生命周期事件，驱动异步分析流水线.
package worker

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/attachvault/pkg/attach"
	mqc "github.com/yeisme/attachvault/pkg/internal/storage/mq"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/queue"
)

// AnalyzeWorker 订阅绑定事件，对新绑定的 Blob 跑分析流水线并发布结果事件.
type AnalyzeWorker struct {
	uploader *attach.Uploader
	mq       *mqc.Client
	logger   zerolog.Logger
}

// NewAnalyzeWorker 创建分析消费者.
func NewAnalyzeWorker(uploader *attach.Uploader, mq *mqc.Client, logger zerolog.Logger) *AnalyzeWorker {
	return &AnalyzeWorker{
		uploader: uploader,
		mq:       mq,
		logger:   logger,
	}
}

// Start 启动消费循环，ctx 取消时退出.
// 消息始终 Ack：分析失败不值得重投，失败已记日志和指标，孤立的未分析元数据无害.
func (w *AnalyzeWorker) Start(ctx context.Context) error {
	ch, err := w.mq.Subscribe(ctx, queue.TopicBlobAttached)
	if err != nil {
		return err
	}

	w.logger.Info().Str("topic", queue.TopicBlobAttached).Msg("analyze worker started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info().Msg("analyze worker stopped")

				return
			case msg, ok := <-ch:
				if !ok {
					w.logger.Info().Msg("subscription closed, analyze worker stopped")

					return
				}

				w.handle(ctx, msg)
			}
		}
	}()

	return nil
}

// handle 处理单条绑定事件.
func (w *AnalyzeWorker) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	env, err := queue.ParseWatermillMessage[queue.BlobAttachedPayload](msg)
	if err != nil {
		w.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("malformed attached event, dropped")

		return
	}

	key := env.Payload.Blob.Key

	meta, err := w.uploader.Analyze(ctx, key)
	if err != nil {
		metrics.AnalyzeRuns.WithLabelValues("failed").Inc()
		w.logger.Error().Err(err).Str("key", key).Msg("analyze failed")

		return
	}

	metrics.AnalyzeRuns.WithLabelValues("ok").Inc()

	out, err := queue.NewWatermillMessage(queue.TopicBlobAnalyzed, queue.BlobAnalyzedPayload{
		Blob:     env.Payload.Blob,
		Metadata: meta,
	}, queue.WithProducer("attachvault"), queue.WithTraceID(env.Header.TraceID))
	if err != nil {
		w.logger.Warn().Err(err).Str("key", key).Msg("encode analyzed event failed")

		return
	}

	if err := w.mq.Publish(ctx, queue.TopicBlobAnalyzed, out); err != nil {
		w.logger.Warn().Err(err).Str("key", key).Msg("publish analyzed event failed")
	}
}
