package http

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	inframetrics "github.com/weisyn/zkrelay/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkrelay/internal/core/prover"
	"github.com/weisyn/zkrelay/pkg/interfaces/config"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// Version 由入口在构建时注入
var Version = "dev"

// ModuleInput HTTP模块输入依赖
type ModuleInput struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Provider   config.Provider
	Logger     log.Logger
	Prover     *prover.Service
	Stats      *inframetrics.StatsCollector `optional:"true"`
	Gatherer   prometheus.Gatherer          `optional:"true"`
	Registerer prometheus.Registerer        `optional:"true"`
}

// Module 返回HTTP模块
func Module() fx.Option {
	return fx.Module("http",
		fx.Provide(NewFromModule),
	)
}

// NewFromModule 由 fx 调用：创建服务器并挂接生命周期；未启用时返回 nil
func NewFromModule(input ModuleInput) *Server {
	opts := input.Provider.GetAPI()
	logger := input.Logger.With("module", "api")
	if !opts.Enabled {
		logger.Info("HTTP API 未启用")
		return nil
	}

	svc := Services{
		Requests:   input.Prover.Registry,
		Batches:    input.Prover.Folding,
		Relay:      input.Prover.Relay,
		Gatherer:   input.Gatherer,
		Registerer: input.Registerer,
		Version:    Version,
	}
	// 接口字段只在非空时赋值，避免 typed-nil
	if input.Prover.Journal != nil {
		svc.Events = input.Prover.Journal
	}
	if input.Stats != nil {
		svc.Stats = input.Stats
	}

	server := NewServer(opts, svc, logger)
	input.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error { return server.Start() },
		OnStop:  server.Stop,
	})
	return server
}
