// Package registry 证明请求注册表
//
// 📋 **职责**：
//   - 分配单调递增的请求ID并持有全部 ProofRequest
//   - 目标高度为 0 时先请求随机数，回调后在最近窗口内选定目标高度
//   - 派发计算任务，回调到达后经验证门得出结论，有效时写入已验证结果集合
//
// 🎯 **状态转换**：
//
//	Create ──► [等待随机数] ──► OnRandomnessFulfilled ──► [等待计算] ──► OnComputeFulfilled ──► completed
//	   └──────────────(selector≠0)─────────────────────────────┘
//
// 每个请求的 TargetSelector 至多被随机数回调写入一次，ResultRoot/Completed/Valid 只写一次。
package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	logimpl "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/correlation"
	"github.com/weisyn/zkrelay/internal/core/prover/metrics"
	"github.com/weisyn/zkrelay/internal/core/prover/verifier"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/interfaces/prover"
	"github.com/weisyn/zkrelay/pkg/types"
)

// Config 注册表参数
type Config struct {
	ComputeSource   string
	SubscriptionID  uint64
	GasLimit        uint32
	SelectionWindow uint64
}

// Dependencies 注册表协作者
type Dependencies struct {
	Table      *correlation.Table
	Randomness oracle.RandomnessOracle
	Compute    oracle.ComputeOracle
	Heights    oracle.HeightSource
	Gate       *verifier.Gate
	Verified   prover.ResultSet
	Clock      clock.Clock

	Bus     event.EventBus   // 可选
	Metrics *metrics.Metrics // 可选
	Logger  log.Logger       // 可选
}

// Registry 证明请求注册表
type Registry struct {
	cfg Config

	table      *correlation.Table
	randomness oracle.RandomnessOracle
	compute    oracle.ComputeOracle
	heights    oracle.HeightSource
	gate       *verifier.Gate
	verified   prover.ResultSet
	clock      clock.Clock
	bus        event.EventBus
	metrics    *metrics.Metrics
	logger     log.Logger

	mu       sync.Mutex
	requests map[uint64]*types.ProofRequest
	counter  uint64
}

var _ prover.RequestService = (*Registry)(nil)

// New 创建注册表
func New(cfg Config, deps Dependencies) (*Registry, error) {
	if cfg.SelectionWindow == 0 {
		return nil, fmt.Errorf("%w: selection window must be positive", types.ErrInvalidArgument)
	}
	if deps.Table == nil || deps.Randomness == nil || deps.Compute == nil || deps.Heights == nil ||
		deps.Gate == nil || deps.Verified == nil || deps.Clock == nil {
		return nil, fmt.Errorf("%w: registry dependencies incomplete", types.ErrInvalidArgument)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logimpl.NewNop()
	}
	return &Registry{
		cfg:        cfg,
		table:      deps.Table,
		randomness: deps.Randomness,
		compute:    deps.Compute,
		heights:    deps.Heights,
		gate:       deps.Gate,
		verified:   deps.Verified,
		clock:      deps.Clock,
		bus:        deps.Bus,
		metrics:    deps.Metrics,
		logger:     logger,
		requests:   make(map[uint64]*types.ProofRequest),
	}, nil
}

// Create 创建证明请求
//
// 派发与关联表写入在同一临界区内完成；派发失败时回滚计数器，不留下请求记录。
func (r *Registry) Create(ctx context.Context, requester common.Address, sourceDomain string, targetSelector uint64) (uint64, error) {
	if sourceDomain == "" {
		return 0, fmt.Errorf("%w: empty source domain", types.ErrInvalidArgument)
	}

	r.mu.Lock()
	id := r.counter + 1
	req := &types.ProofRequest{
		ID:             id,
		Requester:      requester,
		CreatedAt:      r.clock.Now(),
		SourceDomain:   sourceDomain,
		TargetSelector: targetSelector,
	}

	release := r.table.BeginDispatch()
	var (
		corrID types.CorrelationID
		phase  types.CorrelationPhase
		err    error
	)
	if targetSelector == 0 {
		phase = types.PhaseRandomness
		corrID, err = r.randomness.RequestRandomness(ctx, id)
	} else {
		phase = types.PhaseCompute
		corrID, err = r.compute.RequestCompute(ctx, r.computeRequest(req))
	}
	if err == nil {
		err = r.table.Put(corrID, types.Continuation{Phase: phase, RefID: id})
	}
	release()

	if err != nil {
		r.mu.Unlock()
		r.metrics.OracleError(string(phase))
		r.logger.Errorf("派发证明请求失败: domain=%s, phase=%s, err=%v", sourceDomain, phase, err)
		return 0, types.WrapOracleError("create."+string(phase), err)
	}

	r.counter = id
	r.requests[id] = req
	r.mu.Unlock()

	r.logger.Infof("证明请求已创建: id=%d, domain=%s, selector=%d, correlation=%s", id, sourceDomain, targetSelector, corrID)
	r.metrics.RequestCreated()
	r.publish(types.EventTypeRequested, &types.RequestedEvent{
		RequestID: id,
		Requester: requester,
		Selector:  targetSelector,
	})
	return id, nil
}

// OnRandomnessFulfilled 实现 oracle.RandomnessConsumer
func (r *Registry) OnRandomnessFulfilled(ctx context.Context, corrID types.CorrelationID, randomWord *uint256.Int) error {
	c, ok := r.table.Resolve(corrID)
	if !ok || c.Phase != types.PhaseRandomness {
		r.dropStale(types.PhaseRandomness, corrID, "unknown correlation id")
		return nil
	}
	if randomWord == nil {
		return fmt.Errorf("%w: nil random word", types.ErrInvalidArgument)
	}

	height, err := r.heights.CurrentHeight(ctx)
	if err != nil {
		// 关联项保留，等待预言机重投
		return types.WrapOracleError("current_height", err)
	}
	selector := SelectTarget(height, randomWord, r.cfg.SelectionWindow)

	r.mu.Lock()
	req := r.requests[c.RefID]
	if req == nil || req.TargetSelector != 0 || req.Completed {
		r.mu.Unlock()
		r.table.Remove(corrID)
		r.dropStale(types.PhaseRandomness, corrID, "target already selected")
		return nil
	}

	req.TargetSelector = selector
	r.table.Remove(corrID)

	release := r.table.BeginDispatch()
	computeID, err := r.compute.RequestCompute(ctx, r.computeRequest(req))
	if err == nil {
		err = r.table.Put(computeID, types.Continuation{Phase: types.PhaseCompute, RefID: req.ID})
	}
	release()

	if err != nil {
		// 派发失败对该请求是终态
		req.Completed = true
		req.Valid = false
		r.mu.Unlock()

		r.metrics.OracleError(string(types.PhaseCompute))
		r.logger.Errorf("随机数回调后派发计算失败: request=%d, err=%v", c.RefID, err)
		r.publish(types.EventTypeRandomnessReceived, &types.RandomnessReceivedEvent{
			RequestID: c.RefID, RandomWord: new(uint256.Int).Set(randomWord), SelectedTarget: selector,
		})
		r.publish(types.EventTypeVerified, &types.VerifiedEvent{RequestID: c.RefID, Valid: false})
		return types.WrapOracleError("randomness.dispatch_compute", err)
	}
	r.mu.Unlock()

	r.logger.Infof("目标高度已选定: request=%d, height=%d, selector=%d", c.RefID, height, selector)
	r.metrics.RandomnessFulfilled()
	r.publish(types.EventTypeRandomnessReceived, &types.RandomnessReceivedEvent{
		RequestID:      c.RefID,
		RandomWord:     new(uint256.Int).Set(randomWord),
		SelectedTarget: selector,
	})
	return nil
}

// OnComputeFulfilled 实现 oracle.ComputeConsumer
//
// 重复投递是空操作；errPayload 非空时请求以 valid=false 终结，不重试。
func (r *Registry) OnComputeFulfilled(ctx context.Context, corrID types.CorrelationID, response []byte, errPayload []byte) error {
	c, ok := r.table.Resolve(corrID)
	if !ok || c.Phase != types.PhaseCompute {
		r.dropStale(types.PhaseCompute, corrID, "unknown correlation id")
		return nil
	}

	r.mu.Lock()
	req := r.requests[c.RefID]
	if req == nil || req.Completed {
		r.mu.Unlock()
		r.table.Remove(corrID)
		r.dropStale(types.PhaseCompute, corrID, "request already completed")
		return nil
	}
	r.mu.Unlock()

	valid, root := r.evaluate(ctx, c.RefID, response, errPayload)

	r.mu.Lock()
	if req.Completed {
		// 并发重投已先落地
		r.mu.Unlock()
		r.dropStale(types.PhaseCompute, corrID, "request already completed")
		return nil
	}
	req.Completed = true
	req.Valid = valid
	if valid {
		req.ResultRoot = root
		r.verified.Add(root)
	}
	r.table.Remove(corrID)
	r.mu.Unlock()

	r.metrics.Verification(valid)
	r.logger.Infof("证明请求已终结: request=%d, valid=%t, root=%s", c.RefID, valid, root.Hex())
	r.publish(types.EventTypeVerified, &types.VerifiedEvent{
		RequestID:  c.RefID,
		Valid:      valid,
		ResultRoot: req.ResultRoot,
	})
	return nil
}

// evaluate 解码并验证计算结果，返回结论与（有效时的）结果根
func (r *Registry) evaluate(ctx context.Context, requestID uint64, response []byte, errPayload []byte) (bool, common.Hash) {
	if len(errPayload) > 0 {
		r.metrics.OracleError(string(types.PhaseCompute))
		r.logger.Errorf("计算预言机返回错误: request=%d, err=%v",
			requestID, types.WrapOracleError("compute", errors.New(string(errPayload))))
		return false, common.Hash{}
	}

	proof, publicInputs, err := codec.DecodeComputeResponse(response)
	if err != nil {
		r.logger.Warnf("计算响应无法解码: request=%d, err=%v", requestID, err)
		return false, common.Hash{}
	}

	valid, err := r.gate.Verify(ctx, proof, publicInputs)
	if err != nil {
		r.logger.Warnf("证明验证未完成: request=%d, err=%v", requestID, err)
		return false, common.Hash{}
	}
	if !valid {
		r.logger.Infof("证明未通过验证: request=%d, err=%v", requestID, types.ErrVerificationFailed)
		return false, common.Hash{}
	}
	return true, codec.ResultRoot(publicInputs)
}

// Get 获取请求副本
func (r *Registry) Get(id uint64) (*types.ProofRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == 0 || id > r.counter {
		return nil, types.WrapNotFound("request", id)
	}
	return r.requests[id].Clone(), nil
}

// Count 已分配的请求数量
func (r *Registry) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counter
}

// List 按ID升序分页列出请求（offset 从 0 开始）
func (r *Registry) List(offset, limit uint64) []*types.ProofRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*types.ProofRequest, 0)
	for id := offset + 1; id <= r.counter && (limit == 0 || uint64(len(out)) < limit); id++ {
		out = append(out, r.requests[id].Clone())
	}
	return out
}

func (r *Registry) computeRequest(req *types.ProofRequest) *types.ComputeRequest {
	return &types.ComputeRequest{
		Source: r.cfg.ComputeSource,
		Args: []string{
			req.SourceDomain,
			strconv.FormatUint(req.TargetSelector, 10),
			strconv.FormatUint(req.ID, 10),
		},
		SubscriptionID: r.cfg.SubscriptionID,
		GasLimit:       r.cfg.GasLimit,
	}
}

func (r *Registry) dropStale(phase types.CorrelationPhase, corrID types.CorrelationID, reason string) {
	r.metrics.StaleCallback(string(phase))
	r.logger.Warnf("丢弃过期回调: phase=%s, correlation=%s, reason=%s", phase, corrID, reason)
}

func (r *Registry) publish(t types.EventType, payload interface{}) {
	if r.bus != nil {
		r.bus.Publish(t, payload)
	}
}

// SelectTarget 在 [height-window, height) 窗口内按随机字选定目标高度
//
// 高度不足一个窗口时窗口从 0 开始；结果至少为 1，0 保留表示“未选定”。
func SelectTarget(height uint64, randomWord *uint256.Int, window uint64) uint64 {
	var base uint64
	if height >= window {
		base = height - window
	}
	offset := new(uint256.Int).Mod(randomWord, uint256.NewInt(window)).Uint64()
	if selector := base + offset; selector > 0 {
		return selector
	}
	return 1
}
