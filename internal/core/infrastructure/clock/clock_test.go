package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	clockconfig "github.com/weisyn/zkrelay/internal/config/clock"
)

func TestMockClock_Advance(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	c := NewMockClock(start)

	assert.Equal(t, start, c.Now())
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())
	assert.Equal(t, 90*time.Minute, c.Since(start))
	assert.Equal(t, start.Unix()+5400, c.Unix())

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestDeterministicClock_Monotonic(t *testing.T) {
	base := time.Unix(0, 0)
	c := NewDeterministicClock(base)

	first := c.Now()
	second := c.Now()
	assert.Equal(t, base.Add(time.Millisecond), first)
	assert.Equal(t, base.Add(2*time.Millisecond), second)
}

func TestNew_SelectsByType(t *testing.T) {
	_, ok := New(&clockconfig.ClockOptions{Type: "deterministic"}).(*DeterministicClock)
	assert.True(t, ok)

	_, ok = New(&clockconfig.ClockOptions{Type: "system"}).(*SystemClock)
	assert.True(t, ok)

	_, ok = New(nil).(*SystemClock)
	assert.True(t, ok)
}

func TestNTPClock_OffsetAndBackoff(t *testing.T) {
	var calls int
	fail := false
	query := func(server string) (time.Duration, error) {
		calls++
		assert.Equal(t, "ntp.test", server)
		if fail {
			return 0, errors.New("timeout")
		}
		return time.Hour, nil
	}

	c := newNTPClock("ntp.test", time.Hour, query)
	assert.Equal(t, 1, calls)
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Now(), time.Minute)
	assert.Equal(t, 1, calls, "同步间隔内不应再次查询")

	// 强制到期后查询失败：保留旧偏移，进入退避
	fail = true
	c.mu.Lock()
	c.lastSync = time.Now().Add(-2 * time.Hour)
	c.mu.Unlock()
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Now(), time.Minute)
	assert.Equal(t, 2, calls)

	offset, _, lastErr := c.Health()
	assert.Equal(t, time.Hour, offset)
	assert.Error(t, lastErr)
	c.mu.Lock()
	assert.Equal(t, ntpBackoffInitial, c.backoff)
	c.mu.Unlock()
}

func TestNTPClock_FirstSyncFailureIsNotFatal(t *testing.T) {
	c := newNTPClock("ntp.test", time.Hour, func(string) (time.Duration, error) {
		return 0, errors.New("unreachable")
	})
	assert.WithinDuration(t, time.Now(), c.Now(), time.Minute)
	_, _, lastErr := c.Health()
	assert.Error(t, lastErr)
}

func TestClockConfig_NTPEnv(t *testing.T) {
	t.Setenv("CLOCK_TYPE", "ntp")
	t.Setenv("CLOCK_NTP_SERVER", "time.example.org")
	t.Setenv("CLOCK_NTP_SYNC_INTERVAL", "90s")

	opts := clockconfig.New().GetOptions()
	assert.Equal(t, "ntp", opts.Type)
	assert.Equal(t, "time.example.org", opts.NTPServer)
	assert.Equal(t, 90*time.Second, opts.NTPSyncInterval)

	t.Setenv("CLOCK_NTP_SYNC_INTERVAL", "garbage")
	assert.Equal(t, 10*time.Minute, clockconfig.New().GetOptions().NTPSyncInterval)
}
