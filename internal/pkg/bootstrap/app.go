// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/correlation"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/metrics"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/nacos"
	"github.com/aytugcavdar/e-commerce-platform-sub000/internal/pkg/tracing"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Worker 是随服务一起启动的后台任务，例如消费者与 outbox relay。
type Worker func(ctx context.Context) error

type AppCtx struct {
	Mux    *http.ServeMux
	Nacos  *nacos.Client
	Config *Config
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务注册自己的 HTTP 路由
	Workers          []Worker
	Nacos            *nacos.Client // 为空时不做服务注册
	Closers          []func() error
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑，阻塞到收到退出信号。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()
	if cfg == nil {
		log.Fatal().Msg("bootstrap.Init must be called before StartService")
	}

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.SampleRatio)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. HTTP Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", metrics.Handler())
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: info.Nacos, Config: cfg})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(info.Port),
		Handler:           correlation.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	for _, w := range info.Workers {
		w := w
		g.Go(func() error { return w(gctx) })
	}

	// 3. 服务注册
	var ip string
	if info.Nacos != nil {
		ip, err = GetOutboundIP()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := info.Nacos.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 4. 阻塞直到收到退出信号或某个 worker 失败
	<-gctx.Done()
	log.Info().Msgf("Shutting down service %s...", info.ServiceName)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	// a. 从 Nacos 注销
	if info.Nacos != nil {
		if err := info.Nacos.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			log.Error().Err(err).Msg("Error deregistering from Nacos")
		}
		info.Nacos.Close()
	}

	// b. 关闭 HTTP 服务器
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down http server")
	}

	// c. 等待 worker 退出
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
	}

	for _, closeFn := range info.Closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("error closing resource")
		}
	}

	// d. 刷新缓冲的 span
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}
