package folding

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkrelay/internal/core/infrastructure/clock"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/correlation"
	"github.com/weisyn/zkrelay/internal/core/prover/testutil"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/types"
)

var (
	owner     = common.HexToAddress("0xaaaa")
	requester = common.HexToAddress("0x1111")
	stranger  = common.HexToAddress("0x2222")
)

// requestBook 只读请求视图
type requestBook map[uint64]*types.ProofRequest

func (b requestBook) Get(id uint64) (*types.ProofRequest, error) {
	req, ok := b[id]
	if !ok {
		return nil, types.WrapNotFound("request", id)
	}
	return req.Clone(), nil
}

type fixture struct {
	engine *Engine
	table  *correlation.Table
	cmp    *testutil.FakeCompute
	bus    event.EventBus
	clk    *clock.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	book := requestBook{
		1: {ID: 1, Completed: true, Valid: true},
		2: {ID: 2, Completed: true, Valid: true},
		3: {ID: 3, Completed: true, Valid: true},
		4: {ID: 4, Completed: true, Valid: false},
		5: {ID: 5, Completed: false},
	}
	f := &fixture{
		table: correlation.New(),
		cmp:   &testutil.FakeCompute{},
		bus:   testutil.NewEventBus(),
		clk:   clock.NewMockClock(time.Unix(1700000000, 0)),
	}
	engine, err := New(Config{
		FoldSource:        "nova-fold-v1",
		SubscriptionID:    1,
		GasLimit:          300000,
		MinProofsPerBatch: 2,
		MaxProofsPerBatch: 3,
		MaxRecursionDepth: 2,
	}, Dependencies{
		Requests: book,
		Table:    f.table,
		Compute:  f.cmp,
		Guard:    access.NewGuard(owner),
		Clock:    f.clk,
		Bus:      f.bus,
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

// fulfill 投递最近一次派发的回调
func (f *fixture) fulfill(t *testing.T, response []byte) {
	t.Helper()
	require.NoError(t, f.engine.OnFoldFulfilled(context.Background(), f.cmp.Last().ID, response, nil))
}

func TestScenarioB_CreateBatchAndRejectReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), batchID)

	require.Equal(t, 1, f.cmp.Len())
	call := f.cmp.Last()
	assert.Equal(t, "nova-fold-v1", call.Request.Source)
	assert.Equal(t, []string{"1", "2", "0"}, call.Request.Args)

	_, err = f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	assert.ErrorIs(t, err, types.ErrAlreadyBatched)

	// 与已入批证明部分重叠同样失败，且不留下部分写入
	_, err = f.engine.CreateBatch(ctx, requester, []uint64{3, 2})
	assert.ErrorIs(t, err, types.ErrAlreadyBatched)
	_, batched := f.engine.BatchOf(3)
	assert.False(t, batched)
	assert.Equal(t, uint64(1), f.engine.Count())

	owner, ok := f.engine.BatchOf(2)
	require.True(t, ok)
	assert.Equal(t, batchID, owner)

	started := f.bus.GetEventHistory(types.EventTypeFoldingStarted)
	require.Len(t, started, 1)
	assert.Equal(t, []uint64{1, 2}, started[0].(*types.FoldingStartedEvent).ProofIDs)
}

func TestScenarioC_CountCheckedBeforeProofs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 99 不存在，但数量校验先失败
	_, err := f.engine.CreateBatch(ctx, requester, []uint64{99})
	assert.ErrorIs(t, err, types.ErrCountOutOfRange)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = f.engine.CreateBatch(ctx, requester, []uint64{1, 2, 3, 99})
	assert.ErrorIs(t, err, types.ErrCountOutOfRange)
	assert.Equal(t, 0, f.cmp.Len())
}

func TestCreateBatch_ProofPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 4})
	assert.ErrorIs(t, err, types.ErrProofNotReady)
	_, err = f.engine.CreateBatch(ctx, requester, []uint64{1, 5})
	assert.ErrorIs(t, err, types.ErrProofNotReady)
	_, err = f.engine.CreateBatch(ctx, requester, []uint64{1, 42})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = f.engine.CreateBatch(ctx, requester, []uint64{1, 1})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, ok := f.engine.BatchOf(1)
	assert.False(t, ok)
	assert.Equal(t, 0, f.cmp.Len())
}

func TestCreateBatch_DispatchFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.cmp.Err = errors.New("no subscription")

	_, err := f.engine.CreateBatch(context.Background(), requester, []uint64{1, 2})
	assert.ErrorIs(t, err, types.ErrOracleError)
	_, ok := f.engine.BatchOf(1)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), f.engine.Count())
}

func TestScenarioD_ContinueRequiresCompletedRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)

	err = f.engine.ContinueFolding(ctx, batchID, requester)
	assert.ErrorIs(t, err, types.ErrRoundPending)
	assert.Equal(t, 1, f.cmp.Len())
}

func TestFoldLifecycle_DepthMonotonicAndBounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)

	f.fulfill(t, []byte("round-0"))
	batch, err := f.engine.GetBatch(batchID)
	require.NoError(t, err)
	assert.True(t, batch.Completed)
	assert.Equal(t, uint64(0), batch.RecursionDepth)
	assert.Equal(t, codec.AggregatedHash([]byte("round-0")), batch.AggregatedHash)
	assert.Equal(t, uint64(0), batch.FoldedInstance.StepIn)
	assert.Equal(t, uint64(1), batch.FoldedInstance.StepOut)
	assert.Equal(t, uint64(1700000000), batch.FoldedInstance.ProgramCounter)
	assert.Equal(t, codec.ProofIDsDigest([]uint64{1, 2}), batch.FoldedInstance.StateRootIn)
	assert.Empty(t, batch.History)

	depths := []uint64{batch.RecursionDepth}
	for round := uint64(1); round <= 2; round++ {
		require.NoError(t, f.engine.ContinueFolding(ctx, batchID, requester))
		assert.Equal(t, []string{"1", "2", strconv.FormatUint(round, 10)}, f.cmp.Last().Request.Args)

		pending, _ := f.engine.GetBatch(batchID)
		assert.False(t, pending.Completed)
		_, err := f.engine.VerifyFold(batchID, []byte("round-0"))
		assert.ErrorIs(t, err, types.ErrBatchNotCompleted)

		f.fulfill(t, []byte{byte(round)})
		batch, _ = f.engine.GetBatch(batchID)
		depths = append(depths, batch.RecursionDepth)
	}
	assert.Equal(t, []uint64{0, 1, 2}, depths)
	assert.Len(t, batch.History, 2)
	assert.Equal(t, uint64(2), batch.FoldedInstance.StepIn)

	err = f.engine.ContinueFolding(ctx, batchID, requester)
	assert.ErrorIs(t, err, types.ErrDepthExceeded)

	// 每轮 nullifier 互不相同
	seen := map[common.Hash]bool{batch.FoldedInstance.NullifierHash: true}
	for _, inst := range batch.History {
		assert.False(t, seen[inst.NullifierHash])
		seen[inst.NullifierHash] = true
	}

	assert.Len(t, f.bus.GetEventHistory(types.EventTypeFoldingCompleted), 3)
	generated := f.bus.GetEventHistory(types.EventTypeRecursiveProofGenerated)
	require.Len(t, generated, 3)
	assert.Equal(t, uint64(2), generated[2].(*types.RecursiveProofGeneratedEvent).Depth)
}

func TestContinueFolding_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.engine.ContinueFolding(ctx, 9, requester), types.ErrNotFound)

	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)
	f.fulfill(t, []byte("r0"))

	assert.ErrorIs(t, f.engine.ContinueFolding(ctx, batchID, stranger), types.ErrUnauthorized)

	f.cmp.Err = errors.New("down")
	assert.ErrorIs(t, f.engine.ContinueFolding(ctx, batchID, requester), types.ErrOracleError)
	batch, _ := f.engine.GetBatch(batchID)
	assert.True(t, batch.Completed, "failed dispatch leaves state unchanged")
	assert.Equal(t, uint64(0), batch.RecursionDepth)
}

func TestFoldError_RetriesSameRound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)
	failedCorr := f.cmp.Last().ID

	require.NoError(t, f.engine.OnFoldFulfilled(ctx, failedCorr, nil, []byte("prover crashed")))
	batch, _ := f.engine.GetBatch(batchID)
	assert.False(t, batch.Completed)
	assert.True(t, batch.RoundFailed)

	errs := f.bus.GetEventHistory(types.EventTypeFoldingError)
	require.Len(t, errs, 1)
	assert.Equal(t, "prover crashed", errs[0].(*types.FoldingErrorEvent).Reason)

	require.NoError(t, f.engine.ContinueFolding(ctx, batchID, requester))
	assert.Equal(t, []string{"1", "2", "0"}, f.cmp.Last().Request.Args)
	batch, _ = f.engine.GetBatch(batchID)
	assert.Equal(t, uint64(0), batch.RecursionDepth)
	assert.False(t, batch.RoundFailed)

	// 失败轮次的回调重投被丢弃
	require.NoError(t, f.engine.OnFoldFulfilled(ctx, failedCorr, []byte("late"), nil))
	batch, _ = f.engine.GetBatch(batchID)
	assert.False(t, batch.Completed)

	f.fulfill(t, []byte("retry-ok"))
	ok, err := f.engine.VerifyFold(batchID, []byte("retry-ok"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStaleRoundIsDropped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)
	round0 := f.cmp.Last().ID
	f.fulfill(t, []byte("r0"))

	// 已落地轮次的重投
	require.NoError(t, f.engine.OnFoldFulfilled(ctx, round0, []byte("again"), nil))
	batch, _ := f.engine.GetBatch(batchID)
	assert.Equal(t, codec.AggregatedHash([]byte("r0")), batch.AggregatedHash)

	// 手工构造一个指向旧轮次的关联项
	require.NoError(t, f.engine.ContinueFolding(ctx, batchID, requester))
	require.NoError(t, f.table.Put("old-round", types.Continuation{Phase: types.PhaseFold, RefID: batchID, Round: 0}))
	require.NoError(t, f.engine.OnFoldFulfilled(ctx, "old-round", []byte("stale"), nil))
	batch, _ = f.engine.GetBatch(batchID)
	assert.False(t, batch.Completed)
	assert.Equal(t, uint64(1), batch.RecursionDepth)

	assert.NoError(t, f.engine.OnFoldFulfilled(ctx, "unknown", []byte("x"), nil))
}

func TestDuplicateNullifierRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batchID, err := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	require.NoError(t, err)

	f.engine.mu.Lock()
	f.engine.nullifiers[codec.Nullifier(batchID, requester, 0)] = 77
	f.engine.mu.Unlock()

	err = f.engine.OnFoldFulfilled(ctx, f.cmp.Last().ID, []byte("r0"), nil)
	assert.ErrorIs(t, err, types.ErrDuplicateFold)

	batch, _ := f.engine.GetBatch(batchID)
	assert.False(t, batch.Completed)
	assert.Equal(t, types.NovaInstance{}, batch.FoldedInstance)
	assert.Empty(t, f.bus.GetEventHistory(types.EventTypeFoldingCompleted))
}

func TestVerifyFold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.VerifyFold(1, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)

	batchID, _ := f.engine.CreateBatch(ctx, requester, []uint64{1, 2})
	_, err = f.engine.VerifyFold(batchID, []byte("x"))
	assert.ErrorIs(t, err, types.ErrBatchNotCompleted)

	f.fulfill(t, []byte("aggregate"))
	ok, err := f.engine.VerifyFold(batchID, []byte("aggregate"))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.engine.VerifyFold(batchID, []byte("other"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminSetters(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.engine.SetBatchBounds(stranger, 1, 5), types.ErrUnauthorized)
	assert.ErrorIs(t, f.engine.SetBatchBounds(owner, 3, 2), types.ErrInvalidArgument)
	assert.ErrorIs(t, f.engine.SetBatchBounds(owner, 0, 2), types.ErrInvalidArgument)
	require.NoError(t, f.engine.SetBatchBounds(owner, 1, 5))

	assert.ErrorIs(t, f.engine.SetMaxRecursionDepth(stranger, 9), types.ErrUnauthorized)
	require.NoError(t, f.engine.SetMaxRecursionDepth(owner, 9))

	minProofs, maxProofs, maxDepth := f.engine.Bounds()
	assert.Equal(t, 1, minProofs)
	assert.Equal(t, 5, maxProofs)
	assert.Equal(t, uint64(9), maxDepth)

	// 新下限生效：单个证明即可成批
	_, err := f.engine.CreateBatch(context.Background(), requester, []uint64{3})
	assert.NoError(t, err)
}

func TestNew_InvalidBounds(t *testing.T) {
	_, err := New(Config{MinProofsPerBatch: 0, MaxProofsPerBatch: 1}, Dependencies{})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCollectMemoryStats(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateBatch(context.Background(), requester, []uint64{1, 2})
	require.NoError(t, err)

	stats := f.engine.CollectMemoryStats()
	assert.Equal(t, int64(1), stats.Objects)
	assert.Equal(t, int64(2), stats.CacheItems)
	assert.Equal(t, int64(1), stats.QueueLength)

	f.fulfill(t, []byte("r0"))
	stats = f.engine.CollectMemoryStats()
	assert.Equal(t, int64(3), stats.CacheItems)
	assert.Equal(t, int64(0), stats.QueueLength)
}
