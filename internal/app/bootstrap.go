package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/zkrelay/internal/api"
	apihttp "github.com/weisyn/zkrelay/internal/api/http"
	"github.com/weisyn/zkrelay/internal/app/version"
	config "github.com/weisyn/zkrelay/internal/config"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/clock"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/event"
	log "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/storage"
	"github.com/weisyn/zkrelay/internal/core/prover"
	cfgiface "github.com/weisyn/zkrelay/pkg/interfaces/config"
)

// Bootstrap 应用引导程序
type Bootstrap struct {
	opts    *options
	fxApp   *fx.App
	service *prover.Service
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 基础设施层：配置、日志、时钟、指标
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func() cfgiface.AppOptions { return b.opts }),
		config.Module(),
		log.Module(),
		clock.Module(),
		metrics.Module(),
	}
}

// SetupCommunicationLayer 通信与数据层：事件总线、存储
func (b *Bootstrap) SetupCommunicationLayer() []fx.Option {
	return []fx.Option{
		event.Module(),
		storage.Module(),
	}
}

// SetupBusinessLayer 业务层：证明编排（请求登记、折叠、中继、定时任务、日志归档）
func (b *Bootstrap) SetupBusinessLayer() []fx.Option {
	return []fx.Option{
		prover.Module(),
		fx.Populate(&b.service),
	}
}

// SetupApplicationLayer 应用层：对外接口
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	if !b.opts.enableAPI {
		return nil
	}
	apihttp.Version = version.GetVersion()
	return []fx.Option{api.Module()}
}

// SetupModules 按依赖顺序组合所有层
func (b *Bootstrap) SetupModules() []fx.Option {
	var all []fx.Option
	all = append(all, b.SetupInfrastructureLayer()...)
	all = append(all, b.SetupCommunicationLayer()...)
	all = append(all, b.SetupBusinessLayer()...)
	all = append(all, b.SetupApplicationLayer()...)
	return all
}

// Options 返回完整的 fx 选项（含 fx 事件日志）
func (b *Bootstrap) Options() []fx.Option {
	return []fx.Option{
		fx.Options(b.SetupModules()...),
		// fx 自身的装配日志降到 Debug，避免刷屏
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
	}
}

// CreateFxApp 创建 fx 应用
func (b *Bootstrap) CreateFxApp() error {
	b.fxApp = fx.New(b.Options()...)
	if err := b.fxApp.Err(); err != nil {
		return fmt.Errorf("装配应用失败: %w", err)
	}
	return nil
}

// StartApp 启动应用程序
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止应用程序
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// BootstrapApp 装配并启动，返回应用实例
func BootstrapApp(opts *options) (App, error) {
	bootstrap := NewBootstrap(opts)
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, err
	}

	// 开发证明器的电路编译与可信设置在装配阶段完成，这里只覆盖各模块 OnStart
	startCtx, cancel := context.WithTimeout(context.Background(), bootstrap.fxApp.StartTimeout())
	defer cancel()
	if err := bootstrap.StartApp(startCtx); err != nil {
		return nil, err
	}

	return &internalApp{
		bootstrap: bootstrap,
		service:   bootstrap.service,
	}, nil
}
