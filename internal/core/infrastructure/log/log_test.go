package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	logconfig "github.com/weisyn/zkrelay/internal/config/log"
)

// TestFileLog 测试文件日志为 JSON 且带结构化字段
func TestFileLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "zkrelay.log")

	cfg := logconfig.NewFromOptions(&logconfig.LogOptions{
		Level:      DebugLevel,
		FilePath:   logPath,
		ToConsole:  false,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	logger, err := New(cfg)
	require.NoError(t, err)

	logger.With("request_id", 7).Info("请求已创建")
	logger.Debug("调试日志")
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "请求已创建", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.EqualValues(t, 7, entry["request_id"])
}

// TestLevelFiltering 测试级别过滤
func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")

	cfg := logconfig.NewFromOptions(&logconfig.LogOptions{Level: WarnLevel, FilePath: logPath})
	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("不应出现")
	logger.Warn("应该出现")
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "不应出现")
	assert.Contains(t, string(content), "应该出现")
}

// TestNewModuleLogger 测试模块字段
func TestNewModuleLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := FromZap(zap.New(core))

	NewModuleLogger(base, "folding").Infof("批次 %d 已完成", 3)

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "批次 3 已完成", entries[0].Message)
	assert.Equal(t, "folding", entries[0].ContextMap()["module"])
}

func TestNewModuleLogger_NilBase(t *testing.T) {
	l := NewModuleLogger(nil, "relay")
	require.NotNil(t, l)
	l.Info("no-op")
}

func TestWith_OddArgsDropsDanglingKey(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	FromZap(zap.New(core)).With("a", 1, "dangling").Info("x")

	entries := recorded.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.EqualValues(t, 1, ctx["a"])
	assert.NotContains(t, ctx, "dangling")
}

func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	defer SetLogger(old)

	core, recorded := observer.New(zapcore.InfoLevel)
	SetLogger(FromZap(zap.New(core)))
	SetLogger(nil)

	GetLogger().Infof("hello %s", "world")
	GetLogger().With("k", "v").Info("with")

	require.Len(t, recorded.All(), 2)
	assert.Equal(t, "hello world", recorded.All()[0].Message)
}

func TestNew_ConsoleFallback(t *testing.T) {
	logger, err := New(logconfig.NewFromOptions(&logconfig.LogOptions{Level: "bogus"}))
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.False(t, logger.GetZapLogger().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.GetZapLogger().Core().Enabled(zapcore.InfoLevel))
}
