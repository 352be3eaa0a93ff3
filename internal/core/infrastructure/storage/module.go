// Package storage 提供存储管理功能
package storage

import (
	"context"

	badgerconfig "github.com/weisyn/zkrelay/internal/config/storage/badger"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/zkrelay/pkg/interfaces/config"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/storage"
	"go.uber.org/fx"
)

// ModuleParams 定义存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider // 配置提供者
	Logger    log.Logger      // 日志记录器
}

// ModuleOutput 定义存储模块的输出结构
type ModuleOutput struct {
	fx.Out

	BadgerStore storageInterface.BadgerStore // BadgerDB存储（必需，失败即错误）
}

// Module 返回存储模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 提供存储服务
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger := params.Logger.With("module", "storage")

	store, err := badger.New(badgerconfig.NewFromOptions(params.Provider.GetBadger()), logger)
	if err != nil {
		return ModuleOutput{}, err
	}

	// 添加生命周期钩子确保在应用停止时关闭数据库
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("正在关闭存储服务...")
			return store.Close()
		},
	})

	return ModuleOutput{BadgerStore: store}, nil
}
