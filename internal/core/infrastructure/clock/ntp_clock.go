package clock

import (
	"sync"
	"time"

	"github.com/beevik/ntp"

	infraClock "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
)

// queryOffsetFunc 查询服务器并返回本地时钟偏移
type queryOffsetFunc func(server string) (time.Duration, error)

func queryNTPOffset(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// NTPClock 系统时间加上 NTP 偏移
//
// 📋 Now() 到期时同步校时；失败时保留上一次的偏移并按指数退避重试，
// 最长退避 backoffMax。
type NTPClock struct {
	server       string
	syncInterval time.Duration
	query        queryOffsetFunc

	mu        sync.Mutex
	offset    time.Duration
	lastSync  time.Time // 本地时间，最近一次尝试
	lastError error
	backoff   time.Duration
}

const (
	ntpBackoffInitial = 5 * time.Second
	ntpBackoffMax     = 5 * time.Minute
)

var _ infraClock.Clock = (*NTPClock)(nil)

// NewNTPClock 创建 NTP 时钟；首次校时失败不致命，偏移保持为 0
func NewNTPClock(server string, syncInterval time.Duration) *NTPClock {
	return newNTPClock(server, syncInterval, queryNTPOffset)
}

func newNTPClock(server string, syncInterval time.Duration, query queryOffsetFunc) *NTPClock {
	c := &NTPClock{server: server, syncInterval: syncInterval, query: query}
	c.mu.Lock()
	c.syncLocked(time.Now())
	c.mu.Unlock()
	return c
}

func (c *NTPClock) Now() time.Time {
	local := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	wait := c.syncInterval
	if c.backoff > 0 {
		wait = c.backoff
	}
	if local.Sub(c.lastSync) >= wait {
		c.syncLocked(local)
	}
	return local.Add(c.offset)
}

func (c *NTPClock) Since(t time.Time) time.Duration { return c.Now().Sub(t) }
func (c *NTPClock) Unix() int64                     { return c.Now().Unix() }

// Health 最近一次校时的结果
func (c *NTPClock) Health() (offset time.Duration, lastSync time.Time, lastError error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset, c.lastSync, c.lastError
}

func (c *NTPClock) syncLocked(local time.Time) {
	c.lastSync = local
	offset, err := c.query(c.server)
	if err != nil {
		c.lastError = err
		switch {
		case c.backoff == 0:
			c.backoff = ntpBackoffInitial
		case c.backoff < ntpBackoffMax:
			c.backoff *= 2
			if c.backoff > ntpBackoffMax {
				c.backoff = ntpBackoffMax
			}
		}
		return
	}
	c.offset = offset
	c.lastError = nil
	c.backoff = 0
}
