// Package log 基于 zap 的日志实现，文件输出经 lumberjack 轮转
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logconfig "github.com/weisyn/zkrelay/internal/config/log"
	logInterface "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// 日志级别（配置字符串）
const (
	DebugLevel = string(logInterface.DebugLevel)
	InfoLevel  = string(logInterface.InfoLevel)
	WarnLevel  = string(logInterface.WarnLevel)
	ErrorLevel = string(logInterface.ErrorLevel)
	FatalLevel = string(logInterface.FatalLevel)
)

var (
	globalMu     sync.RWMutex
	globalLogger logInterface.Logger = NewNop()
)

// Logger 实现 log.Logger
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

// New 根据配置创建日志记录器
//
// 📋 **输出规则**：
// - file_path 为 "stdout"/"stderr" 时只写对应标准流
// - file_path 为普通路径时写入轮转文件（JSON），to_console 决定是否同时写控制台
// - 没有任何输出时回落到标准输出，日志不会被静默丢弃
func New(config *logconfig.Config) (logInterface.Logger, error) {
	opts := config.GetOptions()
	level := zap.NewAtomicLevelAt(config.ZapLevel())
	console := func(w *os.File) zapcore.Core {
		return zapcore.NewCore(config.ConsoleEncoder(), zapcore.AddSync(w), level)
	}

	var cores []zapcore.Core
	switch opts.FilePath {
	case "stdout":
		cores = append(cores, console(os.Stdout))
	case "stderr":
		cores = append(cores, console(os.Stderr))
	case "":
	default:
		writer, err := rotatingWriter(opts)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(config.FileEncoder(), writer, level))
	}
	if opts.ToConsole && opts.FilePath != "stdout" && opts.FilePath != "stderr" {
		cores = append(cores, console(os.Stdout))
	}
	if len(cores) == 0 {
		cores = append(cores, console(os.Stdout))
	}

	var zapOptions []zap.Option
	if opts.EnableCaller {
		// 跳过本包的封装层
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if opts.EnableStacktrace {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return FromZap(zap.New(zapcore.NewTee(cores...), zapOptions...)), nil
}

func rotatingWriter(opts *logconfig.LogOptions) (zapcore.WriteSyncer, error) {
	path, err := filepath.Abs(opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("获取日志文件绝对路径失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("创建日志目录失败 %s: %w", filepath.Dir(path), err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}), nil
}

// FromZap 包装已有的 zap.Logger
func FromZap(zapLogger *zap.Logger) logInterface.Logger {
	return &Logger{zapLogger: zapLogger, sugar: zapLogger.Sugar()}
}

// NewNop 不输出任何内容的 Logger
func NewNop() logInterface.Logger {
	return FromZap(zap.NewNop())
}

// SetLogger 替换全局日志记录器（fx 装配完成后由日志模块调用）
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetLogger 获取全局日志记录器；装配前为 Nop
func GetLogger() logInterface.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// GetZapLogger 获取底层的 zap 日志记录器
func (l *Logger) GetZapLogger() *zap.Logger { return l.zapLogger }

func (l *Logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Fatal 记录后退出进程
func (l *Logger) Fatal(msg string) { l.sugar.Fatal(msg) }

// Fatalf 记录后退出进程
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回附带键值对字段的 Logger；奇数个参数时丢弃最后一个键
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return FromZap(l.zapLogger.With(fields...))
}

// Sync 刷新缓冲区
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}
