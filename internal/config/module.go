// Package config 提供应用配置管理功能
package config

import (
	"github.com/weisyn/zkrelay/internal/config/api"
	"github.com/weisyn/zkrelay/internal/config/event"
	"github.com/weisyn/zkrelay/internal/config/log"
	"github.com/weisyn/zkrelay/internal/config/oracle"
	"github.com/weisyn/zkrelay/internal/config/prover"
	"github.com/weisyn/zkrelay/internal/config/relay"
	"github.com/weisyn/zkrelay/internal/config/storage/badger"
	"github.com/weisyn/zkrelay/internal/config/upkeep"
	"github.com/weisyn/zkrelay/pkg/interfaces/config"
	"github.com/weisyn/zkrelay/pkg/types"
	"go.uber.org/fx"
)

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	// 应用配置选项
	AppOptions config.AppOptions `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	// 配置提供者
	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			// 提供具体的配置类型用于依赖注入
			func(provider config.Provider) *log.LogOptions { return provider.GetLog() },
			func(provider config.Provider) *event.EventOptions { return provider.GetEvent() },
			func(provider config.Provider) *badger.BadgerOptions { return provider.GetBadger() },
			func(provider config.Provider) *api.APIOptions { return provider.GetAPI() },
			func(provider config.Provider) *prover.ProverOptions { return provider.GetProver() },
			func(provider config.Provider) *relay.RelayOptions { return provider.GetRelay() },
			func(provider config.Provider) *upkeep.UpkeepOptions { return provider.GetUpkeep() },
			func(provider config.Provider) *oracle.OracleOptions { return provider.GetOracle() },
		),
	)
}

// ProvideConfigServices 提供配置服务
//
// 启动时先做必填项校验，配置错误直接让 fx 启动失败。
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var appConfig *types.AppConfig
	if params.AppOptions != nil {
		appConfig = params.AppOptions.GetAppConfig()
	}

	if err := ValidateMandatoryConfig(appConfig); err != nil {
		return ConfigOutput{}, err
	}

	return ConfigOutput{
		Provider: NewProvider(appConfig),
	}, nil
}
