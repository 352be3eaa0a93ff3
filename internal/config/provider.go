package config

import (
	"strings"

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
)

// Provider 实现配置提供者接口
//
// 每个 GetX 都把对应的用户配置段交给 <area>.New，由其负责默认值与覆盖。
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	var userLogConfig *types.UserLogConfig
	if p.appConfig != nil {
		userLogConfig = p.appConfig.Log
	}
	opts := log.New(userLogConfig).GetOptions()

	// 未指定级别时，开发环境默认 debug
	if (userLogConfig == nil || userLogConfig.Level == nil) && p.GetEnvironment() == "dev" {
		opts.Level = "debug"
	}
	return opts
}

// GetEvent 获取事件配置
func (p *Provider) GetEvent() *event.EventOptions {
	var userEventConfig *types.UserEventConfig
	if p.appConfig != nil {
		userEventConfig = p.appConfig.Event
	}
	return event.New(userEventConfig).GetOptions()
}

// GetBadger 获取BadgerDB存储配置
func (p *Provider) GetBadger() *badger.BadgerOptions {
	var userStorageConfig *types.UserStorageConfig
	if p.appConfig != nil {
		userStorageConfig = p.appConfig.Storage
		// 未单独配置存储路径时，落在 data_dir 下
		if (userStorageConfig == nil || userStorageConfig.DataPath == nil) && p.appConfig.DataDir != nil {
			merged := types.UserStorageConfig{}
			if userStorageConfig != nil {
				merged = *userStorageConfig
			}
			merged.DataPath = p.appConfig.DataDir
			userStorageConfig = &merged
		}
	}
	return badger.New(userStorageConfig).GetOptions()
}

// GetAPI 获取API服务配置
func (p *Provider) GetAPI() *api.APIOptions {
	var userAPIConfig *types.UserAPIConfig
	if p.appConfig != nil {
		userAPIConfig = p.appConfig.API
	}
	return api.New(userAPIConfig).GetOptions()
}

// GetProver 获取证明编排配置
func (p *Provider) GetProver() *prover.ProverOptions {
	var userProverConfig *types.UserProverConfig
	if p.appConfig != nil {
		userProverConfig = p.appConfig.Prover
	}
	return prover.New(userProverConfig).GetOptions()
}

// GetRelay 获取中继配置
func (p *Provider) GetRelay() *relay.RelayOptions {
	var userRelayConfig *types.UserRelayConfig
	if p.appConfig != nil {
		userRelayConfig = p.appConfig.Relay
	}
	return relay.New(userRelayConfig).GetOptions()
}

// GetUpkeep 获取定时任务配置
func (p *Provider) GetUpkeep() *upkeep.UpkeepOptions {
	var userUpkeepConfig *types.UserUpkeepConfig
	if p.appConfig != nil {
		userUpkeepConfig = p.appConfig.Upkeep
	}
	return upkeep.New(userUpkeepConfig).GetOptions()
}

// GetOracle 获取本地预言机配置
func (p *Provider) GetOracle() *oracle.OracleOptions {
	var userOracleConfig *types.UserOracleConfig
	if p.appConfig != nil {
		userOracleConfig = p.appConfig.Oracle
	}
	return oracle.New(userOracleConfig).GetOptions()
}

// GetEnvironment 获取运行环境
//
// 只接受 dev | test | prod，未配置或无法识别时返回 prod（安全优先）。
func (p *Provider) GetEnvironment() string {
	if p.appConfig == nil || p.appConfig.Environment == nil {
		return "prod"
	}
	switch env := strings.ToLower(strings.TrimSpace(*p.appConfig.Environment)); env {
	case "dev", "test", "prod":
		return env
	default:
		return "prod"
	}
}
