// Package prover 证明编排子系统的装配
//
// 📋 **组成**：关联表 + 阶段分发器、注册表、折叠引擎、中继引擎、定时任务、事件归档，
// 以及进程内预言机套件（计算、随机数、环回路由、高度源）。
//
// Build 不依赖 fx，便于在测试中完整装配；Module 在其上挂接生命周期。
package prover

import (
	"context"
	"fmt"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/prometheus/client_golang/prometheus"

	oracleconfig "github.com/weisyn/zkrelay/internal/config/oracle"
	proverconfig "github.com/weisyn/zkrelay/internal/config/prover"
	relayconfig "github.com/weisyn/zkrelay/internal/config/relay"
	upkeepconfig "github.com/weisyn/zkrelay/internal/config/upkeep"
	logimpl "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/oracle/local"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/internal/core/prover/correlation"
	"github.com/weisyn/zkrelay/internal/core/prover/folding"
	"github.com/weisyn/zkrelay/internal/core/prover/journal"
	provermetrics "github.com/weisyn/zkrelay/internal/core/prover/metrics"
	"github.com/weisyn/zkrelay/internal/core/prover/registry"
	"github.com/weisyn/zkrelay/internal/core/prover/relay"
	"github.com/weisyn/zkrelay/internal/core/prover/upkeep"
	"github.com/weisyn/zkrelay/internal/core/prover/verifier"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/zkrelay/pkg/types"
)

// Options 各区域配置
type Options struct {
	Prover *proverconfig.ProverOptions
	Relay  *relayconfig.RelayOptions
	Upkeep *upkeepconfig.UpkeepOptions
	Oracle *oracleconfig.OracleOptions
}

// Dependencies 基础设施依赖；Store/Bus/Registerer 可为空
type Dependencies struct {
	Clock      clock.Clock
	Bus        event.EventBus
	Store      storage.BadgerStore
	Registerer prometheus.Registerer
	Logger     log.Logger
}

// Service 装配完成的证明编排子系统
type Service struct {
	Table      *correlation.Table
	Guard      *access.Guard
	Metrics    *provermetrics.Metrics
	Registry   *registry.Registry
	Folding    *folding.Engine
	Relay      *relay.Engine
	Upkeep     *upkeep.Scheduler
	Journal    *journal.Journal
	Compute    *local.ComputeOracle
	Randomness *local.RandomnessOracle
	Router     *local.LoopbackRouter
	Heights    *local.StaticHeight

	upkeepEnabled bool
	bus           event.EventBus
	logger        log.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	upkeepWG sync.WaitGroup
}

// Build 装配证明编排子系统
func Build(opts Options, deps Dependencies) (*Service, error) {
	if opts.Prover == nil {
		opts.Prover = proverconfig.New(nil).GetOptions()
	}
	if opts.Relay == nil {
		opts.Relay = relayconfig.New(nil).GetOptions()
	}
	if opts.Upkeep == nil {
		opts.Upkeep = upkeepconfig.New(nil).GetOptions()
	}
	if opts.Oracle == nil {
		opts.Oracle = oracleconfig.New(nil).GetOptions()
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("%w: clock is required", types.ErrInvalidArgument)
	}
	base := deps.Logger
	if base == nil {
		base = logimpl.NewNop()
	}

	s := &Service{
		Table:         correlation.New(),
		Guard:         access.NewGuard(opts.Prover.Owner),
		Metrics:       provermetrics.New(deps.Registerer),
		Heights:       local.NewStaticHeight(opts.Oracle.ChainHeight),
		upkeepEnabled: opts.Upkeep.Enabled,
		bus:           deps.Bus,
		logger:        logimpl.NewModuleLogger(base, "prover"),
	}

	// 预言机
	dispatcher := correlation.NewDispatcher(s.Table, logimpl.NewModuleLogger(base, "correlation"))
	compute, err := local.NewComputeOracle(opts.Oracle, dispatcher, logimpl.NewModuleLogger(base, "oracle"))
	if err != nil {
		return nil, err
	}
	s.Compute = compute
	s.Randomness = local.NewRandomnessOracle(opts.Oracle.DeliveryDelay, logimpl.NewModuleLogger(base, "oracle"))
	s.Router = local.NewLoopbackRouter(opts.Oracle.LocalSelector, opts.Oracle.FeePerByte, opts.Oracle.DeliveryDelay,
		logimpl.NewModuleLogger(base, "router"))

	vk, err := s.setupProvers(opts)
	if err != nil {
		return nil, err
	}
	groth, err := verifier.NewGroth16Verifier(vk, ecc.BN254, logimpl.NewModuleLogger(base, "verifier"))
	if err != nil {
		return nil, err
	}
	verified := verifier.NewResultSet()

	// 注册表
	s.Registry, err = registry.New(registry.Config{
		ComputeSource:   opts.Prover.ComputeSource,
		SubscriptionID:  opts.Prover.SubscriptionID,
		GasLimit:        opts.Prover.GasLimit,
		SelectionWindow: opts.Prover.SelectionWindow,
	}, registry.Dependencies{
		Table:      s.Table,
		Randomness: s.Randomness,
		Compute:    compute,
		Heights:    s.Heights,
		Gate:       verifier.NewGate(groth),
		Verified:   verified,
		Clock:      deps.Clock,
		Bus:        deps.Bus,
		Metrics:    s.Metrics,
		Logger:     logimpl.NewModuleLogger(base, "registry"),
	})
	if err != nil {
		return nil, fmt.Errorf("创建请求注册表失败: %w", err)
	}

	// 折叠
	s.Folding, err = folding.New(folding.Config{
		FoldSource:        opts.Prover.FoldSource,
		SubscriptionID:    opts.Prover.SubscriptionID,
		GasLimit:          opts.Prover.GasLimit,
		MinProofsPerBatch: opts.Prover.MinProofsPerBatch,
		MaxProofsPerBatch: opts.Prover.MaxProofsPerBatch,
		MaxRecursionDepth: opts.Prover.MaxRecursionDepth,
	}, folding.Dependencies{
		Requests: s.Registry,
		Table:    s.Table,
		Compute:  compute,
		Guard:    s.Guard,
		Clock:    deps.Clock,
		Bus:      deps.Bus,
		Metrics:  s.Metrics,
		Logger:   logimpl.NewModuleLogger(base, "folding"),
	})
	if err != nil {
		return nil, fmt.Errorf("创建折叠引擎失败: %w", err)
	}

	// 中继
	s.Relay, err = relay.New(opts.Relay, relay.Dependencies{
		Router:   s.Router,
		Verified: verified,
		Guard:    s.Guard,
		Clock:    deps.Clock,
		Bus:      deps.Bus,
		Metrics:  s.Metrics,
		Logger:   logimpl.NewModuleLogger(base, "relay"),
	})
	if err != nil {
		return nil, fmt.Errorf("创建中继引擎失败: %w", err)
	}

	s.Upkeep, err = upkeep.New(opts.Upkeep, s.Registry, s.Guard, deps.Clock, logimpl.NewModuleLogger(base, "upkeep"))
	if err != nil {
		return nil, fmt.Errorf("创建定时任务失败: %w", err)
	}

	if deps.Store != nil {
		s.Journal = journal.New(deps.Store, deps.Clock, logimpl.NewModuleLogger(base, "journal"))
	}

	// 回调路由
	dispatcher.Handle(types.PhaseCompute, s.Registry)
	dispatcher.Handle(types.PhaseFold, s.Folding)
	s.Randomness.Bind(s.Registry)
	s.Router.Connect(opts.Oracle.LocalSelector, s.Relay)

	return s, nil
}

// setupProvers 注册计算处理函数并确定验证密钥
func (s *Service) setupProvers(opts Options) (groth16.VerifyingKey, error) {
	var vk groth16.VerifyingKey
	if opts.Oracle.DevProver {
		dev, err := local.NewDevProver()
		if err != nil {
			return nil, fmt.Errorf("初始化本地证明器失败: %w", err)
		}
		s.Compute.Register(opts.Prover.ComputeSource, dev.ProveState)
		vk = dev.VerifyingKey()
	}
	s.Compute.Register(opts.Prover.FoldSource, local.FoldBatch)

	if opts.Prover.VerifyingKeyPath != "" {
		loaded, err := verifier.LoadVerifyingKey(opts.Prover.VerifyingKeyPath, ecc.BN254)
		if err != nil {
			return nil, err
		}
		if vk != nil {
			s.logger.Warnf("已配置验证密钥文件，本地证明器生成的证明将无法通过验证: path=%s", opts.Prover.VerifyingKeyPath)
		}
		vk = loaded
	}
	if vk == nil {
		return nil, fmt.Errorf("%w: no verifying key (set verifying_key_path or enable dev_prover)", types.ErrInvalidArgument)
	}
	return vk, nil
}

// Reporters 内存统计上报者
func (s *Service) Reporters() []metrics.MemoryReporter {
	return []metrics.MemoryReporter{s.Registry, s.Folding, s.Relay, s.Compute}
}

// Start 启动预言机、事件归档与定时任务
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	if s.Journal != nil && s.bus != nil {
		if err := s.Journal.Attach(s.bus); err != nil {
			return err
		}
	}
	s.Compute.Start()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.upkeepEnabled {
		s.upkeepWG.Add(1)
		go func() {
			defer s.upkeepWG.Done()
			s.Upkeep.Start(ctx)
		}()
	}
	s.logger.Infof("✅ 证明编排子系统已启动: owner=%s, upkeep=%t", s.Guard.Owner().Hex(), s.upkeepEnabled)
	return nil
}

// Stop 停止所有后台协程，未投递的回调被丢弃
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.upkeepWG.Wait()
		s.cancel = nil
	}

	s.Router.Stop()
	s.Randomness.Stop()
	s.Compute.Stop()
	if s.Journal != nil && s.bus != nil {
		s.Journal.Detach(s.bus)
	}
	s.logger.Info("证明编排子系统已停止")
}
