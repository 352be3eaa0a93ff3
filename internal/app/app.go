package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/weisyn/zkrelay/internal/core/prover"
	"github.com/weisyn/zkrelay/pkg/types"
)

// ConfigPathEnv 覆盖配置文件路径的环境变量
const ConfigPathEnv = "ZKRELAY_CONFIG_PATH"

// stopTimeout 停止时给 badger 落盘和异步事件排空留出的时间
const stopTimeout = 30 * time.Second

// App 是 zkrelay 应用的对外接口
type App interface {
	// Stop 停止应用
	Stop() error

	// Wait 阻塞直到收到 SIGINT/SIGTERM，然后停止应用
	Wait()

	// Service 返回已装配的证明编排服务
	Service() *prover.Service
}

// internalApp App 的内部实现
type internalApp struct {
	bootstrap *Bootstrap
	service   *prover.Service
}

// Stop 停止应用
func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}

// Wait 等待退出信号
func (a *internalApp) Wait() {
	sig := WaitForSignal()
	fmt.Printf("\n🛑 收到信号 %v，正在优雅退出...\n", sig)
	if err := a.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ 停止应用时出错: %v\n", err)
	}
}

// Service 返回证明编排服务
func (a *internalApp) Service() *prover.Service {
	return a.service
}

// Start 加载配置、装配并启动应用
func Start(appOptions ...Option) (App, error) {
	opts := newOptions(appOptions...)

	cfg, source, err := loadAppConfig(opts)
	if err != nil {
		return nil, err
	}
	opts.appConfig = cfg
	fmt.Printf("🔧 配置来源: %s\n", source)

	if err := createDataDirectories(cfg); err != nil {
		// 目录创建失败时由存储模块在打开数据库时报告具体错误
		fmt.Fprintf(os.Stderr, "⚠️  创建数据目录失败: %v\n", err)
	}

	return BootstrapApp(opts)
}

// WaitForSignal 等待退出信号
func WaitForSignal() os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	return <-signals
}

// loadAppConfig 按优先级解析配置
//
// 📋 **优先级**：
//  1. WithAppConfig 直接给定的配置
//  2. 环境变量 ZKRELAY_CONFIG_PATH 或 WithConfigFile 指定的文件
//  3. WithEmbeddedConfig 嵌入的配置（文件不存在时）
//  4. 全部默认值
//
// ⚠️ 文件存在但无法解析时返回错误，不再静默回退默认配置。
func loadAppConfig(o *options) (*types.AppConfig, string, error) {
	if o.appConfig != nil {
		return o.appConfig, "内存配置", nil
	}

	path := o.configFilePath
	if env := os.Getenv(ConfigPathEnv); env != "" {
		path = env
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			cfg, perr := parseAppConfig(data)
			if perr != nil {
				return nil, "", fmt.Errorf("解析配置文件 %s 失败: %w", path, perr)
			}
			return cfg, path, nil
		case errors.Is(err, os.ErrNotExist):
			fmt.Printf("配置文件 %s 不存在\n", path)
		default:
			return nil, "", fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	}

	if len(o.embeddedConfig) > 0 {
		cfg, err := parseAppConfig(o.embeddedConfig)
		if err != nil {
			return nil, "", fmt.Errorf("解析嵌入配置失败: %w", err)
		}
		return cfg, "嵌入配置", nil
	}

	return &types.AppConfig{}, "默认配置", nil
}

func parseAppConfig(data []byte) (*types.AppConfig, error) {
	var cfg types.AppConfig
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// createDataDirectories 根据配置创建存储目录和日志目录
func createDataDirectories(cfg *types.AppConfig) error {
	if cfg == nil {
		return nil
	}

	var directories []string
	if s := cfg.Storage; s != nil && s.DataPath != nil && (s.InMemory == nil || !*s.InMemory) {
		directories = append(directories, *s.DataPath)
	}
	if l := cfg.Log; l != nil && l.FilePath != nil && *l.FilePath != "" {
		directories = append(directories, filepath.Dir(*l.FilePath))
	}

	for _, dir := range directories {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}
	return nil
}

// LoadConfig 按与 Start 相同的优先级解析配置，返回配置与来源描述
func LoadConfig(appOptions ...Option) (*types.AppConfig, string, error) {
	return loadAppConfig(newOptions(appOptions...))
}
