// Package http 提供证明中继服务的 HTTP API（gin）
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weisyn/zkrelay/internal/api/http/handlers"
	"github.com/weisyn/zkrelay/internal/api/http/middleware"
	apiconfig "github.com/weisyn/zkrelay/internal/config/api"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// Services 路由依赖；Events / Stats / Gatherer / Registerer 可为空
type Services struct {
	Requests   handlers.RequestAPI
	Batches    handlers.BatchAPI
	Relay      handlers.RelayAPI
	Events     handlers.EventLister
	Stats      handlers.StatsSource
	Gatherer   prometheus.Gatherer
	Registerer prometheus.Registerer
	Version    string
}

// Server HTTP服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	opts       *apiconfig.APIOptions
	logger     log.Logger
	listener   net.Listener
}

// NewServer 创建服务器并注册全部路由
func NewServer(opts *apiconfig.APIOptions, svc Services, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	router := gin.New()
	// ErrorHandler 在最内层写出错误响应，访问日志与指标才能看到最终状态码
	router.Use(middleware.RequestID(), middleware.AccessLog(logger))
	if opts.EnableMetrics {
		router.Use(middleware.NewMetrics(svc.Registerer).Middleware())
	}
	router.Use(middleware.ErrorHandler(logger))
	if opts.MaxRequestSize > 0 {
		router.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, opts.MaxRequestSize)
			c.Next()
		})
	}

	s := &Server{
		router: router,
		opts:   opts,
		logger: logger,
	}
	s.setupRoutes(svc)
	return s
}

func (s *Server) setupRoutes(svc Services) {
	handlers.NewHealthHandler(svc.Version, svc.Stats).RegisterRoutes(s.router)
	if s.opts.EnableMetrics && svc.Gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.opts.EnableDebug {
		handlers.NewDiagnosticsHandler(svc.Stats).RegisterRoutes(s.router)
	}

	v1 := s.router.Group("/v1")
	handlers.NewRequestHandlers(svc.Requests).RegisterRoutes(v1)
	handlers.NewBatchHandlers(svc.Batches).RegisterRoutes(v1)
	handlers.NewRelayHandlers(svc.Relay).RegisterRoutes(v1)
	handlers.NewEventHandlers(svc.Events).RegisterRoutes(v1)

	s.logger.Debugf("HTTP路由已注册: routes=%d", len(s.router.Routes()))
}

// Handler 返回路由（测试用）
func (s *Server) Handler() http.Handler { return s.router }

// Start 监听并在后台提供服务
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.opts.ListenAddr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP服务异常退出: %v", err)
		}
	}()
	s.logger.Infof("✅ HTTP API 已启动: addr=%s", ln.Addr())
	return nil
}

// Addr 实际监听地址（未启动时为空）
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("正在关闭HTTP API...")
	return s.httpServer.Shutdown(ctx)
}
