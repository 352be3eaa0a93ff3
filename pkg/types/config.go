// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
//
// 🔧 零值处理：所有字段均为指针
// - nil: 用户未设置，使用系统默认值
// - &value: 用户明确设置（即使是 0、false、""）
type AppConfig struct {
	AppName     *string `json:"app_name,omitempty"`    // 应用名称
	DataDir     *string `json:"data_dir,omitempty"`    // 数据目录路径
	Environment *string `json:"environment,omitempty"` // 运行环境：dev | test | prod

	Log     *UserLogConfig     `json:"log,omitempty"`
	Event   *UserEventConfig   `json:"event,omitempty"`
	Storage *UserStorageConfig `json:"storage,omitempty"`
	API     *UserAPIConfig     `json:"api,omitempty"`
	Prover  *UserProverConfig  `json:"prover,omitempty"`
	Relay   *UserRelayConfig   `json:"relay,omitempty"`
	Upkeep  *UserUpkeepConfig  `json:"upkeep,omitempty"`
	Oracle  *UserOracleConfig  `json:"oracle,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台
	Encoding  *string `json:"encoding,omitempty"`   // console | json
}

// UserEventConfig 用户事件总线配置
type UserEventConfig struct {
	Enabled     *bool `json:"enabled,omitempty"`
	HistorySize *int  `json:"history_size,omitempty"` // 每种事件保留的历史条数，0 表示不保留
}

// UserStorageConfig 用户存储配置
type UserStorageConfig struct {
	DataPath   *string `json:"data_path,omitempty"`
	InMemory   *bool   `json:"in_memory,omitempty"`
	SyncWrites *bool   `json:"sync_writes,omitempty"`
}

// UserAPIConfig 用户API配置
type UserAPIConfig struct {
	Enabled       *bool   `json:"enabled,omitempty"`
	ListenAddr    *string `json:"listen_addr,omitempty"`
	EnableMetrics *bool   `json:"enable_metrics,omitempty"`
	EnableDebug   *bool   `json:"enable_debug,omitempty"` // /debug/memory 诊断端点
}

// UserProverConfig 用户证明编排配置
type UserProverConfig struct {
	Owner             *string `json:"owner,omitempty"`                // 管理员地址（0x…）
	ComputeSource     *string `json:"compute_source,omitempty"`       // 证明请求计算脚本
	FoldSource        *string `json:"fold_source,omitempty"`          // 折叠计算脚本
	SubscriptionID    *uint64 `json:"subscription_id,omitempty"`      // 计算预言机订阅ID
	GasLimit          *uint32 `json:"gas_limit,omitempty"`            // 回调 gas 上限
	SelectionWindow   *uint64 `json:"selection_window,omitempty"`     // 随机目标窗口
	MinProofsPerBatch *int    `json:"min_proofs_per_batch,omitempty"` // 批次最少证明数
	MaxProofsPerBatch *int    `json:"max_proofs_per_batch,omitempty"` // 批次最多证明数
	MaxRecursionDepth *uint64 `json:"max_recursion_depth,omitempty"`  // 最大递归深度
	VerifyingKeyPath  *string `json:"verifying_key_path,omitempty"`   // Groth16 验证密钥文件
}

// UserSourceAllowlistEntry 来源允许列表条目
type UserSourceAllowlistEntry struct {
	Selector uint64 `json:"selector"`
	Sender   string `json:"sender"`
}

// UserRelayConfig 用户中继配置
type UserRelayConfig struct {
	FeeToken            *string                    `json:"fee_token,omitempty"`
	InitialFeeBalance   *string                    `json:"initial_fee_balance,omitempty"` // 十进制
	AllowedDestinations []uint64                   `json:"allowed_destinations,omitempty"`
	AllowedSources      []UserSourceAllowlistEntry `json:"allowed_sources,omitempty"`
}

// UserUpkeepConfig 用户定时任务配置
type UserUpkeepConfig struct {
	Enabled       *bool   `json:"enabled,omitempty"`
	Interval      *string `json:"interval,omitempty"`       // time.Duration 字符串，如 "1h"
	PollInterval  *string `json:"poll_interval,omitempty"`  // 检查周期
	DefaultDomain *string `json:"default_domain,omitempty"` // 默认源域
	Requester     *string `json:"requester,omitempty"`      // 以谁的身份发起请求
}

// UserOracleConfig 本地预言机配置
type UserOracleConfig struct {
	Workers       *int    `json:"workers,omitempty"`
	DeliveryDelay *string `json:"delivery_delay,omitempty"`
	ChainHeight   *uint64 `json:"chain_height,omitempty"`
	FeePerByte    *uint64 `json:"fee_per_byte,omitempty"`
	LocalSelector *uint64 `json:"local_selector,omitempty"`
	DevProver     *bool   `json:"dev_prover,omitempty"`
}

// BoolPtr 创建bool指针，用于明确表示用户设置了该值
func BoolPtr(v bool) *bool {
	return &v
}

// IntPtr 创建int指针，用于明确表示用户设置了该值
func IntPtr(v int) *int {
	return &v
}

// StringPtr 创建string指针，用于明确表示用户设置了该值
func StringPtr(v string) *string {
	return &v
}

// UInt64Ptr 创建uint64指针，用于明确表示用户设置了该值
func UInt64Ptr(v uint64) *uint64 {
	return &v
}
