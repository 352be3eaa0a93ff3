// Package event 提供事件管理功能
package event

import (
	"context"

	"go.uber.org/fx"

	eventconfig "github.com/weisyn/zkrelay/internal/config/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/config"
	eventInterface "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// ModuleInput 事件模块输入依赖
type ModuleInput struct {
	fx.In

	Provider  config.Provider // 配置提供者
	Logger    log.Logger      `optional:"true"` // 日志记录器（可选）
	Lifecycle fx.Lifecycle    // 生命周期管理
}

// ModuleOutput 事件模块输出服务
type ModuleOutput struct {
	fx.Out

	EventBus eventInterface.EventBus // 基础事件总线
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(
			func(input ModuleInput) (ModuleOutput, error) {
				bus := New(eventconfig.NewFromOptions(input.Provider.GetEvent()))

				input.Lifecycle.Append(fx.Hook{
					OnStop: func(context.Context) error {
						// 关闭前排空异步订阅者
						bus.WaitAsync()
						if input.Logger != nil {
							input.Logger.Info("事件总线已停止")
						}
						return nil
					},
				})

				return ModuleOutput{EventBus: bus}, nil
			},
		),
	)
}
