package upkeep

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/zkrelay/pkg/types"
)

// UpkeepOptions 定时任务配置选项
type UpkeepOptions struct {
	Enabled       bool           `json:"enabled"`
	Interval      time.Duration  `json:"interval"`
	PollInterval  time.Duration  `json:"poll_interval"`
	DefaultDomain string         `json:"default_domain"`
	Requester     common.Address `json:"requester"`
}

// Config 定时任务配置实现
type Config struct {
	options *UpkeepOptions
}

// New 创建定时任务配置
func New(userConfig *types.UserUpkeepConfig) *Config {
	options := &UpkeepOptions{
		Enabled:       defaultEnabled,
		Interval:      defaultInterval,
		PollInterval:  defaultPollInterval,
		DefaultDomain: defaultDomain,
	}

	if userConfig == nil {
		return &Config{options: options}
	}

	if userConfig.Enabled != nil {
		options.Enabled = *userConfig.Enabled
	}
	if userConfig.Interval != nil {
		if d, err := time.ParseDuration(*userConfig.Interval); err == nil && d > 0 {
			options.Interval = d
		}
	}
	if userConfig.PollInterval != nil {
		if d, err := time.ParseDuration(*userConfig.PollInterval); err == nil && d > 0 {
			options.PollInterval = d
		}
	}
	if userConfig.DefaultDomain != nil && *userConfig.DefaultDomain != "" {
		options.DefaultDomain = *userConfig.DefaultDomain
	}
	if userConfig.Requester != nil && common.IsHexAddress(*userConfig.Requester) {
		options.Requester = common.HexToAddress(*userConfig.Requester)
	}

	return &Config{options: options}
}

// GetOptions 获取定时任务配置选项
func (c *Config) GetOptions() *UpkeepOptions {
	return c.options
}
