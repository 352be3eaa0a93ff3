package log

import "go.uber.org/zap/zapcore"

// 日志配置默认值
const (
	// defaultLogLevel info 级别记录状态迁移，调试细节走 debug
	defaultLogLevel = "info"

	// defaultToConsole 默认输出到控制台
	defaultToConsole = true

	// defaultFilePath 为空表示不写文件
	defaultFilePath = ""

	// defaultEncoding 控制台编码
	defaultEncoding = "console"

	// === 日志轮转配置 ===
	defaultMaxSize    = 100 // MB
	defaultMaxBackups = 10
	defaultMaxAge     = 30 // days
	defaultCompress   = true

	// === 调试配置 ===
	defaultEnableCaller     = true
	defaultEnableStacktrace = true
)

// levelMap 配置字符串到 zap 级别
var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}
