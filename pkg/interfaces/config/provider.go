// Package config provides configuration provider interfaces.
package config

import (
	apiconfig "github.com/weisyn/zkrelay/internal/config/api"
	eventconfig "github.com/weisyn/zkrelay/internal/config/event"
	logconfig "github.com/weisyn/zkrelay/internal/config/log"
	oracleconfig "github.com/weisyn/zkrelay/internal/config/oracle"
	proverconfig "github.com/weisyn/zkrelay/internal/config/prover"
	relayconfig "github.com/weisyn/zkrelay/internal/config/relay"
	badgerconfig "github.com/weisyn/zkrelay/internal/config/storage/badger"
	upkeepconfig "github.com/weisyn/zkrelay/internal/config/upkeep"
)

// Provider 配置提供者接口
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetEvent 获取事件配置
	GetEvent() *eventconfig.EventOptions

	// GetBadger 获取BadgerDB存储配置
	GetBadger() *badgerconfig.BadgerOptions

	// GetAPI 获取API服务配置
	GetAPI() *apiconfig.APIOptions

	// GetProver 获取证明编排配置（批次边界、递归深度、计算脚本）
	GetProver() *proverconfig.ProverOptions

	// GetRelay 获取跨域中继配置
	GetRelay() *relayconfig.RelayOptions

	// GetUpkeep 获取定时任务配置
	GetUpkeep() *upkeepconfig.UpkeepOptions

	// GetOracle 获取本地预言机配置
	GetOracle() *oracleconfig.OracleOptions

	// GetEnvironment 获取运行环境：dev | test | prod
	GetEnvironment() string
}
