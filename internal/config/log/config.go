package log

import (
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/weisyn/zkrelay/pkg/types"
)

// LogOptions 日志配置选项
type LogOptions struct {
	Level     string `json:"level"`      // debug | info | warn | error | fatal
	ToConsole bool   `json:"to_console"` // 是否输出到控制台
	FilePath  string `json:"file_path"`  // 为空时不写文件；"stdout"/"stderr" 表示标准流
	Encoding  string `json:"encoding"`   // 控制台编码：console | json

	// 文件轮转（lumberjack）
	MaxSize    int  `json:"max_size"`    // MB
	MaxBackups int  `json:"max_backups"` // 保留的历史文件数
	MaxAge     int  `json:"max_age"`     // 天
	Compress   bool `json:"compress"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"` // Error 及以上附带堆栈
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 在默认值上叠加用户配置
//
// ⚠️ 指定了 file_path 而没有显式设置 to_console 时，默认不再写控制台。
func New(userConfig *types.UserLogConfig) *Config {
	options := &LogOptions{
		Level:            defaultLogLevel,
		ToConsole:        defaultToConsole,
		FilePath:         defaultFilePath,
		Encoding:         defaultEncoding,
		MaxSize:          defaultMaxSize,
		MaxBackups:       defaultMaxBackups,
		MaxAge:           defaultMaxAge,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
	}

	if userConfig != nil {
		if userConfig.Level != nil {
			options.Level = strings.ToLower(strings.TrimSpace(*userConfig.Level))
		}
		if userConfig.FilePath != nil {
			options.FilePath = *userConfig.FilePath
			options.ToConsole = false
		}
		if userConfig.ToConsole != nil {
			options.ToConsole = *userConfig.ToConsole
		}
		if userConfig.Encoding != nil {
			options.Encoding = *userConfig.Encoding
		}
	}

	return &Config{options: options}
}

// NewFromOptions 直接使用已解析的选项；nil 时使用默认值
func NewFromOptions(options *LogOptions) *Config {
	if options == nil {
		return New(nil)
	}
	return &Config{options: options}
}

// GetOptions 获取日志配置选项
func (c *Config) GetOptions() *LogOptions {
	return c.options
}

// ZapLevel 解析配置的级别，无法识别时为 info
func (c *Config) ZapLevel() zapcore.Level {
	if level, ok := levelMap[c.options.Level]; ok {
		return level
	}
	return zapcore.InfoLevel
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	}
}

// FileEncoder 文件始终写 JSON，便于按 module/request_id 检索
func (c *Config) FileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig())
}

// ConsoleEncoder 控制台编码器，encoding=json 时与文件一致
func (c *Config) ConsoleEncoder() zapcore.Encoder {
	if c.options.Encoding == "json" {
		return zapcore.NewJSONEncoder(encoderConfig())
	}
	cfg := encoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
