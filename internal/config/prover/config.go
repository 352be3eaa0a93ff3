package prover

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/zkrelay/pkg/types"
)

// ProverOptions 证明编排配置选项
type ProverOptions struct {
	// === 权限 ===
	Owner common.Address `json:"owner"` // 管理员地址，零地址表示不开放管理操作

	// === 计算预言机派发参数 ===
	ComputeSource  string `json:"compute_source"`
	FoldSource     string `json:"fold_source"`
	SubscriptionID uint64 `json:"subscription_id"`
	GasLimit       uint32 `json:"gas_limit"`

	// === 目标选择 ===
	SelectionWindow uint64 `json:"selection_window"`

	// === 折叠约束 ===
	MinProofsPerBatch int    `json:"min_proofs_per_batch"`
	MaxProofsPerBatch int    `json:"max_proofs_per_batch"`
	MaxRecursionDepth uint64 `json:"max_recursion_depth"`

	// === 验证 ===
	VerifyingKeyPath string `json:"verifying_key_path"` // 为空时使用本地开发证明器的验证密钥
}

// Config 证明编排配置实现
type Config struct {
	options *ProverOptions
}

// New 创建证明编排配置
//
// 非法地址字符串保持默认值，由 config.ValidateMandatoryConfig 在启动时报告。
func New(userConfig *types.UserProverConfig) *Config {
	options := &ProverOptions{
		ComputeSource:     defaultComputeSource,
		FoldSource:        defaultFoldSource,
		SubscriptionID:    defaultSubscriptionID,
		GasLimit:          defaultGasLimit,
		SelectionWindow:   defaultSelectionWindow,
		MinProofsPerBatch: defaultMinProofsPerBatch,
		MaxProofsPerBatch: defaultMaxProofsPerBatch,
		MaxRecursionDepth: defaultMaxRecursionDepth,
	}

	if userConfig == nil {
		return &Config{options: options}
	}

	if userConfig.Owner != nil && common.IsHexAddress(*userConfig.Owner) {
		options.Owner = common.HexToAddress(*userConfig.Owner)
	}
	if userConfig.ComputeSource != nil && *userConfig.ComputeSource != "" {
		options.ComputeSource = *userConfig.ComputeSource
	}
	if userConfig.FoldSource != nil && *userConfig.FoldSource != "" {
		options.FoldSource = *userConfig.FoldSource
	}
	if userConfig.SubscriptionID != nil {
		options.SubscriptionID = *userConfig.SubscriptionID
	}
	if userConfig.GasLimit != nil {
		options.GasLimit = *userConfig.GasLimit
	}
	if userConfig.SelectionWindow != nil && *userConfig.SelectionWindow > 0 {
		options.SelectionWindow = *userConfig.SelectionWindow
	}
	if userConfig.MinProofsPerBatch != nil {
		options.MinProofsPerBatch = *userConfig.MinProofsPerBatch
	}
	if userConfig.MaxProofsPerBatch != nil {
		options.MaxProofsPerBatch = *userConfig.MaxProofsPerBatch
	}
	if userConfig.MaxRecursionDepth != nil {
		options.MaxRecursionDepth = *userConfig.MaxRecursionDepth
	}
	if userConfig.VerifyingKeyPath != nil {
		options.VerifyingKeyPath = *userConfig.VerifyingKeyPath
	}

	return &Config{options: options}
}

// GetOptions 获取证明编排配置选项
func (c *Config) GetOptions() *ProverOptions {
	return c.options
}
