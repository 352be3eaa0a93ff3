// Package upkeep 周期性自动发起证明请求
//
// 每次到期以默认源域、随机目标高度（selector=0）调用注册表 Create。
// CheckDue/Run 可由外部驱动；Start 提供按轮询周期自驱动的循环。
package upkeep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	upkeepconfig "github.com/weisyn/zkrelay/internal/config/upkeep"
	logimpl "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/types"
)

// RequestCreator 注册表的创建入口
type RequestCreator interface {
	Create(ctx context.Context, requester common.Address, sourceDomain string, targetSelector uint64) (uint64, error)
}

// Scheduler 定时任务
type Scheduler struct {
	creator RequestCreator
	guard   *access.Guard
	clock   clock.Clock
	logger  log.Logger

	domain       string
	requester    common.Address
	pollInterval time.Duration

	mu       sync.Mutex
	interval time.Duration
	lastRun  time.Time
}

// New 创建定时任务；lastRun 初始化为当前时间，首个周期结束后才到期
func New(opts *upkeepconfig.UpkeepOptions, creator RequestCreator, guard *access.Guard, clk clock.Clock, logger log.Logger) (*Scheduler, error) {
	if opts == nil {
		opts = upkeepconfig.New(nil).GetOptions()
	}
	if creator == nil || guard == nil || clk == nil {
		return nil, fmt.Errorf("%w: upkeep dependencies incomplete", types.ErrInvalidArgument)
	}
	if opts.Interval <= 0 || opts.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: upkeep intervals must be positive", types.ErrInvalidArgument)
	}
	if logger == nil {
		logger = logimpl.NewNop()
	}
	return &Scheduler{
		creator:      creator,
		guard:        guard,
		clock:        clk,
		logger:       logger,
		domain:       opts.DefaultDomain,
		requester:    opts.Requester,
		pollInterval: opts.PollInterval,
		interval:     opts.Interval,
		lastRun:      clk.Now(),
	}, nil
}

// CheckDue 距上次运行是否已超过间隔
func (s *Scheduler) CheckDue(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastRun) > s.interval
}

// Run 到期时发起一次请求，返回请求ID
//
// 创建失败时恢复 lastRun，下次轮询会再次尝试。
func (s *Scheduler) Run(ctx context.Context, now time.Time) (uint64, error) {
	s.mu.Lock()
	if now.Sub(s.lastRun) <= s.interval {
		s.mu.Unlock()
		return 0, types.ErrUpkeepNotDue
	}
	previous := s.lastRun
	s.lastRun = now
	s.mu.Unlock()

	id, err := s.creator.Create(ctx, s.requester, s.domain, 0)
	if err != nil {
		s.mu.Lock()
		if s.lastRun.Equal(now) {
			s.lastRun = previous
		}
		s.mu.Unlock()
		return 0, err
	}

	s.logger.Infof("定时证明请求已发起: request=%d, domain=%s", id, s.domain)
	return id, nil
}

// SetInterval 设置运行间隔（管理员）
func (s *Scheduler) SetInterval(caller common.Address, interval time.Duration) error {
	if err := s.guard.Require(caller, "set_upkeep_interval"); err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", types.ErrInvalidArgument)
	}
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
	s.logger.Infof("定时任务间隔已更新: %s", interval)
	return nil
}

// Interval 当前间隔
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// LastRun 上次运行时间
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Start 按轮询周期检查并运行，直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Infof("定时任务已启动: interval=%s, poll=%s, domain=%s", s.Interval(), s.pollInterval, s.domain)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("定时任务已停止")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()
	if !s.CheckDue(now) {
		return
	}
	if _, err := s.Run(ctx, now); err != nil && !errors.Is(err, types.ErrUpkeepNotDue) {
		s.logger.Errorf("定时证明请求失败: %v", err)
	}
}
