package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"resume-match-go/internal/annotator"
	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/api/router"
	"resume-match-go/internal/config"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/ingest"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/outbox"
	"resume-match-go/internal/storage"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 外部语言标注服务客户端
	ann := annotator.NewHTTPAnnotator(
		cfg.Annotator.ServerURL,
		annotator.WithTimeout(time.Duration(cfg.Annotator.TimeoutSeconds)*time.Second),
		annotator.WithLanguage(cfg.Annotator.Language),
	)
	glog.Infof("标注服务客户端初始化成功: %s", cfg.Annotator.ServerURL)

	ext := extractor.New(cfg.Extractor, ann)
	glog.Infof("简历提取器初始化成功，策略: %s", ext.StrategyName())

	engine := matcher.NewEngine(ann, matcher.WithWeights(cfg.Matcher.Weights))
	glog.Info("匹配引擎初始化成功")

	scraper := ingest.NewJobScraper()

	resumeHandler := handler.NewResumeHandler(cfg, storageManager, ext)
	jobHandler := handler.NewJobHandler(cfg, storageManager, scraper)
	matchHandler := handler.NewMatchHandler(cfg, storageManager, engine)

	// 发件箱中继
	var messageRelay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(
			storageManager.MySQL.DB(),
			storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RetryInterval, 5*time.Second)),
		)
		messageRelay.Start()
		glog.Info("发件箱中继已启动")
	} else {
		glog.Warn("MySQL或RabbitMQ不可用，发件箱中继未启动")
	}

	// 匹配计算消费者
	if storageManager.RabbitMQ != nil {
		go func() {
			if err := matchHandler.StartMatchConsumer(context.Background()); err != nil {
				glog.Fatalf("启动匹配消费者失败: %v", err)
			}
		}()
	} else {
		glog.Warn("RabbitMQ不可用，匹配消费者未启动")
	}

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, resumeHandler, jobHandler, matchHandler)
	glog.Info("HTTP路由注册成功")

	go func() {
		glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog并桥接到Hertz的日志接口
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	hertzCompatibleLogger := hertzadapter.From(logger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
}
