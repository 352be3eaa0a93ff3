package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkrelay/configs"
	"github.com/weisyn/zkrelay/internal/app"
	"github.com/weisyn/zkrelay/internal/app/version"
)

// appOptions 把全局标志转换为应用选项
func appOptions() []app.Option {
	opts := []app.Option{app.WithConfigFile(globalFlags.ConfigPath)}
	if embedded := configs.Get(globalFlags.Env); embedded != nil {
		opts = append(opts, app.WithEmbeddedConfig(embedded))
	}
	return opts
}

func newRunCmd() *cobra.Command {
	var noAPI bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "启动节点",
		RunE: func(cmd *cobra.Command, args []string) error {
			if globalFlags.Env != "" && configs.Get(globalFlags.Env) == nil {
				return fmt.Errorf("未知的内置环境: %s", globalFlags.Env)
			}

			opts := appOptions()
			if noAPI {
				opts = append(opts, app.WithoutAPI())
			}

			fmt.Printf("🚀 zkrelay %s 启动中...\n", version.GetVersion())
			nodeApp, err := app.Start(opts...)
			if err != nil {
				return err
			}
			fmt.Println("✅ 节点已启动，按 Ctrl+C 停止")
			nodeApp.Wait()
			return nil
		},
	}
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "不启动 HTTP API")
	return cmd
}
