package clock

import (
	"time"

	clockconfig "github.com/weisyn/zkrelay/internal/config/clock"
	infraClock "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"go.uber.org/fx"
)

// New 按配置选择时钟实现
func New(options *clockconfig.ClockOptions) infraClock.Clock {
	if options == nil {
		return NewSystemClock()
	}
	switch options.Type {
	case "deterministic":
		return NewDeterministicClock(time.Unix(options.DeterministicBaseUnix, 0))
	case "ntp":
		return NewNTPClock(options.NTPServer, options.NTPSyncInterval)
	default:
		return NewSystemClock()
	}
}

// Module 时钟模块
func Module() fx.Option {
	return fx.Module("clock",
		fx.Provide(
			func() *clockconfig.ClockOptions { return clockconfig.New().GetOptions() },
			New,
		),
	)
}
