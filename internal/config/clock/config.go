package clock

import (
	"os"
	"strconv"
	"time"
)

// ClockOptions 时钟配置
type ClockOptions struct {
	Type string `json:"type"` // system | deterministic | ntp

	// Deterministic 配置
	DeterministicBaseUnix int64 `json:"deterministic_base_unix"`

	// NTP 配置
	NTPServer       string        `json:"ntp_server"`
	NTPSyncInterval time.Duration `json:"ntp_sync_interval"`
}

// Config 提供访问选项
type Config struct {
	options *ClockOptions
}

// New 创建配置，支持环境变量覆盖
// 环境变量：
//
//	CLOCK_TYPE (system|deterministic|ntp)
//	CLOCK_DETERMINISTIC_BASE_UNIX
//	CLOCK_NTP_SERVER
//	CLOCK_NTP_SYNC_INTERVAL (如 "5m")
func New() *Config {
	opts := &ClockOptions{
		Type:                  defaultType,
		DeterministicBaseUnix: defaultDeterministicBaseUnix,
		NTPServer:             defaultNTPServer,
		NTPSyncInterval:       defaultNTPSyncInterval,
	}

	if v := os.Getenv("CLOCK_TYPE"); v != "" {
		opts.Type = v
	}
	if v := os.Getenv("CLOCK_DETERMINISTIC_BASE_UNIX"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			opts.DeterministicBaseUnix = n
		}
	}
	if v := os.Getenv("CLOCK_NTP_SERVER"); v != "" {
		opts.NTPServer = v
	}
	if v := os.Getenv("CLOCK_NTP_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			opts.NTPSyncInterval = d
		}
	}

	return &Config{options: opts}
}

func (c *Config) GetOptions() *ClockOptions { return c.options }
