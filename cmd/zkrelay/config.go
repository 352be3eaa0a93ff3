package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/zkrelay/internal/app"
	"github.com/weisyn/zkrelay/internal/config"
)

// effectiveConfig 合并默认值之后的配置视图
type effectiveConfig struct {
	Source      string      `json:"source"`
	Environment string      `json:"environment"`
	Log         interface{} `json:"log"`
	Event       interface{} `json:"event"`
	Storage     interface{} `json:"storage"`
	API         interface{} `json:"api"`
	Prover      interface{} `json:"prover"`
	Relay       interface{} `json:"relay"`
	Upkeep      interface{} `json:"upkeep"`
	Oracle      interface{} `json:"oracle"`
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "校验配置并打印合并默认值后的结果",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := app.LoadConfig(appOptions()...)
			if err != nil {
				return err
			}
			if err := config.ValidateMandatoryConfig(cfg); err != nil {
				return err
			}

			p := config.NewProvider(cfg)
			out, err := json.MarshalIndent(effectiveConfig{
				Source:      source,
				Environment: p.GetEnvironment(),
				Log:         p.GetLog(),
				Event:       p.GetEvent(),
				Storage:     p.GetBadger(),
				API:         p.GetAPI(),
				Prover:      p.GetProver(),
				Relay:       p.GetRelay(),
				Upkeep:      p.GetUpkeep(),
				Oracle:      p.GetOracle(),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
