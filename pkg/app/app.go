// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/attachvault/pkg/attach"
	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/context"
	"github.com/yeisme/attachvault/pkg/internal/adapter"
	"github.com/yeisme/attachvault/pkg/internal/analyzers"
	"github.com/yeisme/attachvault/pkg/internal/handle"
	"github.com/yeisme/attachvault/pkg/internal/jobs"
	"github.com/yeisme/attachvault/pkg/internal/router"
	"github.com/yeisme/attachvault/pkg/internal/service"
	"github.com/yeisme/attachvault/pkg/internal/storage"
	"github.com/yeisme/attachvault/pkg/internal/worker"
	"github.com/yeisme/attachvault/pkg/log"
	"github.com/yeisme/attachvault/pkg/metrics"
	"github.com/yeisme/attachvault/pkg/middleware"
	"github.com/yeisme/attachvault/pkg/queue"
	"github.com/yeisme/attachvault/pkg/scheduler"
	"github.com/yeisme/attachvault/pkg/signer"
	"github.com/yeisme/attachvault/pkg/tracing"
)

// sweepJobName 孤儿Blob清扫任务在调度器里的名称.
const sweepJobName = "sweep-orphan-blobs"

// App 聚合HTTP引擎与后台组件.
type App struct {
	Engine    *gin.Engine
	config    *configs.AppConfig
	uploader  *attach.Uploader
	manager   *storage.Manager
	scheduler *scheduler.Scheduler
	cancel    contextPkg.CancelFunc
}

// NewApp 按配置装配整个应用，任何一步失败都直接退出.
func NewApp(configPath string) *App {
	ctx, cancel := contextPkg.WithCancel(contextPkg.Background())

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	log.Init()

	config := configs.GetConfig()

	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	uploader, err := buildUploader(config, manager)
	if err != nil {
		fmt.Printf("Error initializing uploader: %v\n", err)
		os.Exit(1)
	}

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
		middleware.UploaderMiddleware(uploader),
	)

	engine.GET("/healthz", handle.Healthz)
	engine.GET("/readyz", handle.Readyz)

	api := engine.Group("/api/v1")
	router.RegisterAPIRoutes(api)

	// 磁盘端点挂根路由，签发的直传/下载URL直接指向 /disk/:token
	root := engine.Group("")
	router.RegisterDiskRoutes(root)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	app := &App{
		Engine:   engine,
		config:   config,
		uploader: uploader,
		manager:  manager,
		cancel:   cancel,
	}

	app.startWorker(ctx)
	app.startScheduler(ctx)

	return app
}

// buildUploader 装配签名器、存储后端、持久化适配器与分析流水线.
func buildUploader(config *configs.AppConfig, manager *storage.Manager) (*attach.Uploader, error) {
	sig, err := signer.New(config.Upload.PrivateKey, config.Upload.SignedIDExpiry())
	if err != nil {
		return nil, err
	}

	var svc attach.Service

	switch config.Upload.Service {
	case configs.ServiceDisk:
		baseURL := fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)

		svc, err = service.NewDiskService(config.Upload.DiskRoot, baseURL, sig)
		if err != nil {
			return nil, err
		}
	case configs.ServiceS3:
		svc = service.NewS3Service(manager.GetS3Client(), config.S3)
	default:
		return nil, fmt.Errorf("unsupported upload service: %s", config.Upload.Service)
	}

	ad, err := adapter.New(manager.GetDBClient().DB)
	if err != nil {
		return nil, err
	}

	logger := log.Logger()

	return attach.New(attach.Config{
		Signer:             sig,
		Service:            svc,
		Adapter:            ad,
		DirectUploadExpiry: config.Upload.DirectUploadExpiry(),
		Logger:             logger,
	},
		attach.WithAnalyzers(
			analyzers.NewMimeType(),
			analyzers.NewImage(),
			analyzers.NewDigest(),
		),
		attach.WithAfterAttach(afterAttachHook(manager, logger)),
	)
}

// afterAttachHook 绑定成功后的处理：MQ 可用且开启异步分析时发布事件，
// 否则起协程在进程内直接跑流水线.
func afterAttachHook(manager *storage.Manager, logger *zerolog.Logger) attach.AfterAttachFunc {
	return func(ctx contextPkg.Context, blob *attach.Blob, att *attach.Attachment) error {
		cfg := configs.GetConfig()
		mq := manager.GetMQClient()

		if cfg.Upload.AnalyzeAsync && mq != nil {
			msg, err := queue.NewWatermillMessage(queue.TopicBlobAttached, queue.BlobAttachedPayload{
				Blob: queue.BlobRef{
					BlobID:      blob.ID,
					Key:         blob.Key,
					FileName:    blob.Filename,
					ContentType: blob.ContentType,
					Size:        blob.ByteSize,
					Checksum:    blob.Checksum,
					Service:     blob.ServiceName,
				},
				AttachmentID: att.ID,
				RecordType:   att.RecordType,
				RecordID:     att.RecordID,
				Name:         att.Name,
			}, queue.WithProducer("attachvault"))
			if err != nil {
				return err
			}

			return mq.Publish(ctx, queue.TopicBlobAttached, msg)
		}

		// 同步路径脱离请求上下文执行，请求返回不等分析完成
		u := context.GetUploader(ctx)
		if u == nil {
			return nil
		}

		go func(key string) {
			if _, err := u.Analyze(contextPkg.Background(), key); err != nil {
				metrics.AnalyzeRuns.WithLabelValues("failed").Inc()
				logger.Error().Err(err).Str("key", key).Msg("inline analyze failed")

				return
			}

			metrics.AnalyzeRuns.WithLabelValues("ok").Inc()
		}(blob.Key)

		return nil
	}
}

// startWorker 启动异步分析消费者，MQ 未启用时跳过.
func (a *App) startWorker(ctx contextPkg.Context) {
	mq := a.manager.GetMQClient()
	if mq == nil || !a.config.Upload.AnalyzeAsync {
		return
	}

	w := worker.NewAnalyzeWorker(a.uploader, mq, *log.Logger())
	if err := w.Start(ctx); err != nil {
		log.Logger().Error().Err(err).Msg("start analyze worker failed")
	}
}

// startScheduler 注册并启动清扫任务.
func (a *App) startScheduler(ctx contextPkg.Context) {
	sweepCfg := a.config.Upload.Sweep
	if !sweepCfg.Enabled {
		return
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		log.Logger().Error().Err(err).Msg("create scheduler failed")

		return
	}

	sweeper := jobs.NewSweeper(
		a.uploader.Adapter(),
		a.uploader.Service(),
		a.manager.GetMQClient(),
		*log.Logger(),
		time.Duration(sweepCfg.MinAgeHours)*time.Hour,
		sweepCfg.BatchSize,
	)

	err = sched.AddCron(sweepJobName, sweepCfg.Cron, func(ctx contextPkg.Context) {
		if _, err := sweeper.Run(ctx); err != nil {
			log.Logger().Error().Err(err).Msg("sweep job failed")
		}
	}, ctx)
	if err != nil {
		log.Logger().Error().Err(err).Msg("register sweep job failed")

		return
	}

	sched.Start()
	a.scheduler = sched
}

// Run 启动HTTP服务，阻塞到进程退出.
func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

// Shutdown 停止后台组件并释放存储资源.
func (a *App) Shutdown(ctx contextPkg.Context) error {
	a.cancel()

	if a.scheduler != nil {
		if err := a.scheduler.Stop(); err != nil {
			log.Logger().Warn().Err(err).Msg("stop scheduler failed")
		}
	}

	if mq := a.manager.GetMQClient(); mq != nil {
		if err := mq.Close(); err != nil {
			log.Logger().Warn().Err(err).Msg("close mq failed")
		}
	}

	if err := tracing.ShutdownTracer(ctx); err != nil {
		log.Logger().Warn().Err(err).Msg("shutdown tracer failed")
	}

	return nil
}
