// Package jobs 定义后台定时任务.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/attachvault/pkg/attach"
	mqc "github.com/yeisme/attachvault/pkg/internal/storage/mq"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/queue"
)

// sweepConcurrency 单批清扫的最大并发删除数.
const sweepConcurrency = 4

// Sweeper 清扫孤儿 Blob：签发后始终未被绑定的行及其对象内容.
// 直传授权签发即落 Blob 行，客户端弃传或绑定失败都会留下孤儿，靠本任务兜底回收.
type Sweeper struct {
	adapter   attach.Adapter
	service   attach.Service
	mq        *mqc.Client
	logger    zerolog.Logger
	minAge    time.Duration
	batchSize int
}

// NewSweeper 创建清扫任务.
// minAge 是 Blob 的最小账龄，小于它的行可能仍在直传窗口内，跳过；mq 可为 nil.
func NewSweeper(adapter attach.Adapter, service attach.Service, mq *mqc.Client, logger zerolog.Logger, minAge time.Duration, batchSize int) *Sweeper {
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Sweeper{
		adapter:   adapter,
		service:   service,
		mq:        mq,
		logger:    logger,
		minAge:    minAge,
		batchSize: batchSize,
	}
}

// Run 执行一轮清扫，返回删除的 Blob 数.
// 先删对象再删行：行是孤儿判定的唯一依据，删行失败时下一轮会重试（对象删除幂等）.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	olderThan := time.Now().Add(-s.minAge)

	orphans, err := s.adapter.FindOrphanBlobs(ctx, olderThan, s.batchSize)
	if err != nil {
		return 0, err
	}

	if len(orphans) == 0 {
		return 0, nil
	}

	s.logger.Info().
		Int("count", len(orphans)).
		Time("older_than", olderThan).
		Msg("sweeping orphan blobs")

	var swept int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	results := make([]bool, len(orphans))

	for i := range orphans {
		g.Go(func() error {
			blob := &orphans[i]

			if err := s.service.Delete(gctx, blob.Key); err != nil {
				s.logger.Warn().Err(err).Str("key", blob.Key).Msg("delete object failed, blob row kept for retry")

				return nil
			}

			if err := s.adapter.DeleteBlob(gctx, blob.ID); err != nil {
				s.logger.Warn().Err(err).Str("blob_id", blob.ID).Msg("delete blob row failed")

				return nil
			}

			results[i] = true

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return swept, err
	}

	for i, ok := range results {
		if !ok {
			continue
		}

		swept++

		metrics.BlobsSwept.Inc()
		s.publishSwept(ctx, &orphans[i])
	}

	s.logger.Info().Int64("swept", swept).Msg("sweep round finished")

	return swept, nil
}

// publishSwept 发布清扫事件，MQ 未启用或发布失败只记录.
func (s *Sweeper) publishSwept(ctx context.Context, blob *attach.Blob) {
	if s.mq == nil {
		return
	}

	msg, err := queue.NewWatermillMessage(queue.TopicBlobSwept, queue.BlobSweptPayload{
		Blob: queue.BlobRef{
			BlobID:      blob.ID,
			Key:         blob.Key,
			FileName:    blob.Filename,
			ContentType: blob.ContentType,
			Size:        blob.ByteSize,
			Service:     s.service.Name(),
		},
		CreatedAt: blob.CreatedAt,
	}, queue.WithProducer("attachvault"))
	if err != nil {
		s.logger.Warn().Err(err).Str("blob_id", blob.ID).Msg("encode swept event failed")

		return
	}

	if err := s.mq.Publish(ctx, queue.TopicBlobSwept, msg); err != nil {
		s.logger.Warn().Err(err).Str("blob_id", blob.ID).Msg("publish swept event failed")
	}
}
