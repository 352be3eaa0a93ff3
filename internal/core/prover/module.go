package prover

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	inframetrics "github.com/weisyn/zkrelay/internal/core/infrastructure/metrics"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/internal/core/prover/folding"
	"github.com/weisyn/zkrelay/internal/core/prover/journal"
	"github.com/weisyn/zkrelay/internal/core/prover/registry"
	"github.com/weisyn/zkrelay/internal/core/prover/relay"
	"github.com/weisyn/zkrelay/internal/core/prover/upkeep"
	"github.com/weisyn/zkrelay/pkg/interfaces/config"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/storage"
	proverIface "github.com/weisyn/zkrelay/pkg/interfaces/prover"
)

// ModuleInput 证明编排模块输入依赖
type ModuleInput struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Provider   config.Provider
	Logger     log.Logger
	Clock      clock.Clock
	EventBus   event.EventBus               `optional:"true"`
	Store      storage.BadgerStore          `optional:"true"`
	Registerer prometheus.Registerer        `optional:"true"`
	Stats      *inframetrics.StatsCollector `optional:"true"`
}

// ModuleOutput 证明编排模块输出服务
type ModuleOutput struct {
	fx.Out

	Service  *Service
	Registry *registry.Registry
	Folding  *folding.Engine
	Relay    *relay.Engine
	Upkeep   *upkeep.Scheduler
	Journal  *journal.Journal
	Guard    *access.Guard

	Requests       proverIface.RequestService
	FoldingService proverIface.FoldingService
	RelayService   proverIface.RelayService
}

// Module 返回证明编排模块
func Module() fx.Option {
	return fx.Module("prover",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 装配证明编排子系统并挂接生命周期
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	svc, err := Build(Options{
		Prover: input.Provider.GetProver(),
		Relay:  input.Provider.GetRelay(),
		Upkeep: input.Provider.GetUpkeep(),
		Oracle: input.Provider.GetOracle(),
	}, Dependencies{
		Clock:      input.Clock,
		Bus:        input.EventBus,
		Store:      input.Store,
		Registerer: input.Registerer,
		Logger:     input.Logger,
	})
	if err != nil {
		return ModuleOutput{}, err
	}

	if input.Stats != nil {
		for _, r := range svc.Reporters() {
			input.Stats.Register(r)
		}
	}

	input.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error { return svc.Start() },
		OnStop: func(context.Context) error {
			svc.Stop()
			return nil
		},
	})

	return ModuleOutput{
		Service:        svc,
		Registry:       svc.Registry,
		Folding:        svc.Folding,
		Relay:          svc.Relay,
		Upkeep:         svc.Upkeep,
		Journal:        svc.Journal,
		Guard:          svc.Guard,
		Requests:       svc.Registry,
		FoldingService: svc.Folding,
		RelayService:   svc.Relay,
	}, nil
}
