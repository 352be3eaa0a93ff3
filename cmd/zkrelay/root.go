package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath string // 配置文件路径
	Env        string // 配置文件缺失时使用的内置环境配置
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "zkrelay",
	Short: "零知识状态证明编排与跨域中继节点",
	Long: `zkrelay - 状态证明请求、递归折叠与跨域状态根中继

子命令:
  run       启动节点（HTTP API、定时任务、本地预言机）
  config    检查并打印生效配置
  version   打印版本信息

配置文件查找顺序: ZKRELAY_CONFIG_PATH > --config > --env 内置配置 > 默认值`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "./configs/development/config.json", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Env, "env", "dev", "配置文件不存在时使用的内置配置: dev | test")

	rootCmd.AddCommand(newRunCmd(), newConfigCmd(), newVersionCmd())
}
