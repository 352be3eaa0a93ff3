package relay

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/weisyn/zkrelay/pkg/types"
)

// SourceAllowlistEntry 来源域与发送者组合
type SourceAllowlistEntry struct {
	Selector uint64         `json:"selector"`
	Sender   common.Address `json:"sender"`
}

// RelayOptions 中继配置选项
type RelayOptions struct {
	FeeToken            common.Address         `json:"fee_token"`
	InitialFeeBalance   *uint256.Int           `json:"initial_fee_balance"`
	AllowedDestinations []uint64               `json:"allowed_destinations"`
	AllowedSources      []SourceAllowlistEntry `json:"allowed_sources"`
}

// Config 中继配置实现
type Config struct {
	options *RelayOptions
}

// New 创建中继配置
func New(userConfig *types.UserRelayConfig) *Config {
	options := &RelayOptions{
		InitialFeeBalance: uint256.MustFromDecimal(defaultInitialFeeBalance),
	}

	if userConfig == nil {
		return &Config{options: options}
	}

	if userConfig.FeeToken != nil && common.IsHexAddress(*userConfig.FeeToken) {
		options.FeeToken = common.HexToAddress(*userConfig.FeeToken)
	}
	if userConfig.InitialFeeBalance != nil {
		if v, err := uint256.FromDecimal(*userConfig.InitialFeeBalance); err == nil {
			options.InitialFeeBalance = v
		}
	}
	options.AllowedDestinations = append(options.AllowedDestinations, userConfig.AllowedDestinations...)
	for _, entry := range userConfig.AllowedSources {
		if !common.IsHexAddress(entry.Sender) {
			continue
		}
		options.AllowedSources = append(options.AllowedSources, SourceAllowlistEntry{
			Selector: entry.Selector,
			Sender:   common.HexToAddress(entry.Sender),
		})
	}

	return &Config{options: options}
}

// GetOptions 获取中继配置选项
func (c *Config) GetOptions() *RelayOptions {
	return c.options
}
