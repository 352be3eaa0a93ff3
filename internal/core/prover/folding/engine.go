// Package folding 递归折叠引擎
//
// 📋 **职责**：
//   - 把若干已完成且有效的证明请求组成批次，每个证明终生只能进入一个批次
//   - 逐轮派发折叠计算；第 N+1 轮只能在第 N 轮回调落地后派发
//   - 每轮落地生成一个 NovaInstance，以 nullifier 防止同一轮被重复应用
//
// 🎯 **轮次状态**：
//
//	CreateBatch ──► [round 0 pending] ──OnFoldFulfilled(ok)──► completed ──ContinueFolding──► [round 1 pending] ...
//	                       │
//	                       └──OnFoldFulfilled(err)──► roundFailed ──ContinueFolding──► 重新派发同一轮
//
// 引擎只通过 prover.RequestReader 读取证明请求，从不修改它们。
package folding

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	logimpl "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/correlation"
	"github.com/weisyn/zkrelay/internal/core/prover/metrics"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/interfaces/prover"
	"github.com/weisyn/zkrelay/pkg/types"
)

// Config 折叠参数
type Config struct {
	FoldSource        string
	SubscriptionID    uint64
	GasLimit          uint32
	MinProofsPerBatch int
	MaxProofsPerBatch int
	MaxRecursionDepth uint64
}

// Dependencies 折叠引擎协作者
type Dependencies struct {
	Requests prover.RequestReader
	Table    *correlation.Table
	Compute  oracle.ComputeOracle
	Guard    *access.Guard
	Clock    clock.Clock

	Bus     event.EventBus
	Metrics *metrics.Metrics
	Logger  log.Logger
}

// Engine 折叠引擎
type Engine struct {
	source         string
	subscriptionID uint64
	gasLimit       uint32

	requests prover.RequestReader
	table    *correlation.Table
	compute  oracle.ComputeOracle
	guard    *access.Guard
	clock    clock.Clock
	bus      event.EventBus
	metrics  *metrics.Metrics
	logger   log.Logger

	mu         sync.Mutex
	minProofs  int
	maxProofs  int
	maxDepth   uint64
	batches    map[uint64]*types.NovaBatch
	counter    uint64
	proofBatch map[uint64]uint64
	nullifiers map[common.Hash]uint64
}

var _ prover.FoldingService = (*Engine)(nil)

// New 创建折叠引擎
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if err := validateBounds(cfg.MinProofsPerBatch, cfg.MaxProofsPerBatch); err != nil {
		return nil, err
	}
	if deps.Requests == nil || deps.Table == nil || deps.Compute == nil || deps.Guard == nil || deps.Clock == nil {
		return nil, fmt.Errorf("%w: folding dependencies incomplete", types.ErrInvalidArgument)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logimpl.NewNop()
	}
	return &Engine{
		source:         cfg.FoldSource,
		subscriptionID: cfg.SubscriptionID,
		gasLimit:       cfg.GasLimit,
		requests:       deps.Requests,
		table:          deps.Table,
		compute:        deps.Compute,
		guard:          deps.Guard,
		clock:          deps.Clock,
		bus:            deps.Bus,
		metrics:        deps.Metrics,
		logger:         logger,
		minProofs:      cfg.MinProofsPerBatch,
		maxProofs:      cfg.MaxProofsPerBatch,
		maxDepth:       cfg.MaxRecursionDepth,
		batches:        make(map[uint64]*types.NovaBatch),
		proofBatch:     make(map[uint64]uint64),
		nullifiers:     make(map[common.Hash]uint64),
	}, nil
}

func validateBounds(minProofs, maxProofs int) error {
	if minProofs < 1 || maxProofs < minProofs {
		return fmt.Errorf("%w: batch bounds min=%d max=%d", types.ErrInvalidArgument, minProofs, maxProofs)
	}
	return nil
}

// CreateBatch 创建批次并派发第 0 轮
//
// 数量校验先于任何证明读取；任一证明不合格则整个调用失败，不写入任何状态。
func (e *Engine) CreateBatch(ctx context.Context, requester common.Address, proofIDs []uint64) (uint64, error) {
	e.mu.Lock()

	if n := len(proofIDs); n < e.minProofs || n > e.maxProofs {
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: got %d, want [%d,%d]", types.ErrCountOutOfRange, n, e.minProofs, e.maxProofs)
	}

	seen := make(map[uint64]struct{}, len(proofIDs))
	for _, pid := range proofIDs {
		if _, dup := seen[pid]; dup {
			e.mu.Unlock()
			return 0, fmt.Errorf("%w: proof %d listed twice", types.ErrInvalidArgument, pid)
		}
		seen[pid] = struct{}{}

		if owner, batched := e.proofBatch[pid]; batched {
			e.mu.Unlock()
			return 0, types.WrapAlreadyBatched(pid, owner)
		}
		req, err := e.requests.Get(pid)
		if err != nil {
			e.mu.Unlock()
			return 0, err
		}
		if !req.Completed || !req.Valid {
			e.mu.Unlock()
			return 0, fmt.Errorf("%w: proof %d", types.ErrProofNotReady, pid)
		}
	}

	batchID := e.counter + 1
	batch := &types.NovaBatch{
		ID:        batchID,
		ProofIDs:  append([]uint64(nil), proofIDs...),
		Requester: requester,
		CreatedAt: e.clock.Now(),
	}

	corrID, err := e.dispatchRound(ctx, batch, 0)
	if err != nil {
		e.mu.Unlock()
		e.metrics.OracleError(string(types.PhaseFold))
		e.logger.Errorf("派发首轮折叠失败: proofs=%v, err=%v", proofIDs, err)
		return 0, types.WrapOracleError("fold.create", err)
	}

	e.counter = batchID
	e.batches[batchID] = batch
	for _, pid := range proofIDs {
		e.proofBatch[pid] = batchID
	}
	e.mu.Unlock()

	e.metrics.FoldRound("dispatched")
	e.logger.Infof("折叠批次已创建: batch=%d, proofs=%v, correlation=%s", batchID, proofIDs, corrID)
	e.publish(types.EventTypeFoldingStarted, &types.FoldingStartedEvent{
		BatchID:   batchID,
		ProofIDs:  append([]uint64(nil), proofIDs...),
		Requester: requester,
	})
	return batchID, nil
}

// ContinueFolding 派发下一轮折叠
//
// 上一轮回调带回错误时以相同深度重新派发；否则要求上一轮已落地且深度未达上限。
func (e *Engine) ContinueFolding(ctx context.Context, batchID uint64, requester common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.batches[batchID]
	if batch == nil {
		return types.WrapNotFound("batch", batchID)
	}
	if requester != batch.Requester {
		return types.WrapUnauthorized("continue_folding")
	}

	round := batch.RecursionDepth
	if !batch.RoundFailed {
		if !batch.Completed {
			return fmt.Errorf("%w: batch=%d round=%d", types.ErrRoundPending, batchID, round)
		}
		if batch.RecursionDepth >= e.maxDepth {
			return fmt.Errorf("%w: batch=%d depth=%d max=%d", types.ErrDepthExceeded, batchID, batch.RecursionDepth, e.maxDepth)
		}
		round = batch.RecursionDepth + 1
	}

	corrID, err := e.dispatchRound(ctx, batch, round)
	if err != nil {
		e.metrics.OracleError(string(types.PhaseFold))
		e.logger.Errorf("派发折叠轮次失败: batch=%d, round=%d, err=%v", batchID, round, err)
		return types.WrapOracleError("fold.continue", err)
	}

	batch.RecursionDepth = round
	batch.Completed = false
	batch.RoundFailed = false

	e.metrics.FoldRound("dispatched")
	e.logger.Infof("折叠轮次已派发: batch=%d, round=%d, correlation=%s", batchID, round, corrID)
	return nil
}

// dispatchRound 派发一轮折叠并写入关联表，调用方持有 e.mu
func (e *Engine) dispatchRound(ctx context.Context, batch *types.NovaBatch, round uint64) (types.CorrelationID, error) {
	req := &types.ComputeRequest{
		Source: e.source,
		Args: []string{
			strconv.FormatUint(batch.ID, 10),
			strconv.Itoa(len(batch.ProofIDs)),
			strconv.FormatUint(round, 10),
		},
		SubscriptionID: e.subscriptionID,
		GasLimit:       e.gasLimit,
	}

	release := e.table.BeginDispatch()
	defer release()

	corrID, err := e.compute.RequestCompute(ctx, req)
	if err != nil {
		return "", err
	}
	if err := e.table.Put(corrID, types.Continuation{Phase: types.PhaseFold, RefID: batch.ID, Round: round}); err != nil {
		return "", err
	}
	return corrID, nil
}

// OnComputeFulfilled 实现 oracle.ComputeConsumer（折叠阶段）
func (e *Engine) OnComputeFulfilled(ctx context.Context, corrID types.CorrelationID, response []byte, errPayload []byte) error {
	return e.OnFoldFulfilled(ctx, corrID, response, errPayload)
}

// OnFoldFulfilled 折叠回调
//
// 轮次与批次当前轮次不一致、批次已落地或已失败的回调视为过期并丢弃。
func (e *Engine) OnFoldFulfilled(_ context.Context, corrID types.CorrelationID, response []byte, errPayload []byte) error {
	c, ok := e.table.Resolve(corrID)
	if !ok || c.Phase != types.PhaseFold {
		e.dropStale(corrID, "unknown correlation id")
		return nil
	}

	e.mu.Lock()
	batch := e.batches[c.RefID]
	if batch == nil || c.Round != batch.RecursionDepth || batch.Completed || batch.RoundFailed {
		e.mu.Unlock()
		e.table.Remove(corrID)
		e.dropStale(corrID, fmt.Sprintf("stale round %d", c.Round))
		return nil
	}

	if len(errPayload) > 0 {
		batch.RoundFailed = true
		e.table.Remove(corrID)
		e.mu.Unlock()

		e.metrics.FoldRound("error")
		e.logger.Errorf("折叠轮次失败: batch=%d, round=%d, reason=%s", c.RefID, c.Round, errPayload)
		e.publish(types.EventTypeFoldingError, &types.FoldingErrorEvent{
			BatchID: c.RefID,
			Round:   c.Round,
			Reason:  string(errPayload),
		})
		return nil
	}

	aggregated := codec.AggregatedHash(response)
	instance := types.NovaInstance{
		StepIn:         c.Round,
		StepOut:        c.Round + 1,
		ProgramCounter: uint64(e.clock.Now().Unix()),
		StateRootIn:    codec.ProofIDsDigest(batch.ProofIDs),
		StateRootOut:   aggregated,
		NullifierHash:  codec.Nullifier(batch.ID, batch.Requester, c.Round),
		Valid:          true,
	}
	if owner, used := e.nullifiers[instance.NullifierHash]; used {
		e.table.Remove(corrID)
		e.mu.Unlock()
		return fmt.Errorf("%w: batch=%d round=%d nullifier owned by batch %d",
			types.ErrDuplicateFold, c.RefID, c.Round, owner)
	}

	e.nullifiers[instance.NullifierHash] = batch.ID
	if batch.FoldedInstance.Valid {
		batch.History = append(batch.History, batch.FoldedInstance)
	}
	batch.FoldedInstance = instance
	batch.AggregatedHash = aggregated
	batch.Completed = true
	e.table.Remove(corrID)
	e.mu.Unlock()

	e.metrics.FoldRound("completed")
	e.logger.Infof("折叠轮次已落地: batch=%d, depth=%d, aggregated=%s", c.RefID, c.Round, aggregated.Hex())
	e.publish(types.EventTypeFoldingCompleted, &types.FoldingCompletedEvent{
		BatchID:        c.RefID,
		AggregatedHash: aggregated,
		Valid:          true,
	})
	e.publish(types.EventTypeRecursiveProofGenerated, &types.RecursiveProofGeneratedEvent{
		BatchID: c.RefID,
		Depth:   c.Round,
		Payload: append([]byte(nil), response...),
	})
	return nil
}

// VerifyFold 比较候选证明与批次聚合摘要
func (e *Engine) VerifyFold(batchID uint64, candidateProof []byte) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.batches[batchID]
	if batch == nil {
		return false, types.WrapNotFound("batch", batchID)
	}
	if !batch.Completed {
		return false, fmt.Errorf("%w: batch=%d", types.ErrBatchNotCompleted, batchID)
	}
	return codec.AggregatedHash(candidateProof) == batch.AggregatedHash, nil
}

// GetBatch 获取批次副本
func (e *Engine) GetBatch(batchID uint64) (*types.NovaBatch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := e.batches[batchID]
	if batch == nil {
		return nil, types.WrapNotFound("batch", batchID)
	}
	return batch.Clone(), nil
}

// BatchOf 证明所属批次
func (e *Engine) BatchOf(proofID uint64) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.proofBatch[proofID]
	return id, ok
}

// Count 已创建的批次数量
func (e *Engine) Count() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counter
}

// SetBatchBounds 设置批次证明数量范围（管理员）
func (e *Engine) SetBatchBounds(caller common.Address, minProofs, maxProofs int) error {
	if err := e.guard.Require(caller, "set_batch_bounds"); err != nil {
		return err
	}
	if err := validateBounds(minProofs, maxProofs); err != nil {
		return err
	}
	e.mu.Lock()
	e.minProofs, e.maxProofs = minProofs, maxProofs
	e.mu.Unlock()
	e.logger.Infof("批次数量范围已更新: min=%d, max=%d", minProofs, maxProofs)
	return nil
}

// SetMaxRecursionDepth 设置最大递归深度（管理员）
func (e *Engine) SetMaxRecursionDepth(caller common.Address, depth uint64) error {
	if err := e.guard.Require(caller, "set_max_recursion_depth"); err != nil {
		return err
	}
	e.mu.Lock()
	e.maxDepth = depth
	e.mu.Unlock()
	e.logger.Infof("最大递归深度已更新: %d", depth)
	return nil
}

// Bounds 当前批次数量范围与最大深度
func (e *Engine) Bounds() (minProofs, maxProofs int, maxDepth uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.minProofs, e.maxProofs, e.maxDepth
}

func (e *Engine) dropStale(corrID types.CorrelationID, reason string) {
	e.metrics.StaleCallback(string(types.PhaseFold))
	e.logger.Warnf("丢弃过期折叠回调: correlation=%s, reason=%s", corrID, reason)
}

func (e *Engine) publish(t types.EventType, payload interface{}) {
	if e.bus != nil {
		e.bus.Publish(t, payload)
	}
}
