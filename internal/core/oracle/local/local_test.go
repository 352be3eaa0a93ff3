package local

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oracleconfig "github.com/weisyn/zkrelay/internal/config/oracle"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/verifier"
	"github.com/weisyn/zkrelay/pkg/types"
)

const waitFor = 5 * time.Second

type computeResult struct {
	id         types.CorrelationID
	response   []byte
	errPayload []byte
}

type computeSink chan computeResult

func (s computeSink) OnComputeFulfilled(_ context.Context, id types.CorrelationID, response []byte, errPayload []byte) error {
	s <- computeResult{id: id, response: response, errPayload: errPayload}
	return nil
}

func (s computeSink) next(t *testing.T) computeResult {
	t.Helper()
	select {
	case r := <-s:
		return r
	case <-time.After(waitFor):
		t.Fatal("compute callback not delivered")
		return computeResult{}
	}
}

func testOptions(queue int) *oracleconfig.OracleOptions {
	return &oracleconfig.OracleOptions{Workers: 2, QueueSize: queue, DeliveryDelay: time.Millisecond}
}

func TestComputeOracle_DeliversThroughHandler(t *testing.T) {
	sink := make(computeSink, 4)
	o, err := NewComputeOracle(testOptions(4), sink, nil)
	require.NoError(t, err)
	o.Register("echo", func(_ context.Context, req *types.ComputeRequest) ([]byte, error) {
		return []byte(req.Args[0]), nil
	})
	o.Register("boom", func(context.Context, *types.ComputeRequest) ([]byte, error) {
		return nil, errors.New("boom")
	})
	o.Start()
	defer o.Stop()

	ctx := context.Background()
	id, err := o.RequestCompute(ctx, &types.ComputeRequest{Source: "echo", Args: []string{"hello"}})
	require.NoError(t, err)
	got := sink.next(t)
	assert.Equal(t, id, got.id)
	assert.Equal(t, []byte("hello"), got.response)
	assert.Empty(t, got.errPayload)

	_, err = o.RequestCompute(ctx, &types.ComputeRequest{Source: "boom"})
	require.NoError(t, err)
	got = sink.next(t)
	assert.Nil(t, got.response)
	assert.Equal(t, "boom", string(got.errPayload))

	_, err = o.RequestCompute(ctx, &types.ComputeRequest{Source: "missing"})
	require.NoError(t, err)
	got = sink.next(t)
	assert.Contains(t, string(got.errPayload), "unknown compute source")

	processed, succeeded, failed := o.Stats()
	assert.Equal(t, int64(3), processed)
	assert.Equal(t, int64(1), succeeded)
	assert.Equal(t, int64(2), failed)
	assert.Equal(t, "oracle.compute", o.CollectMemoryStats().Module)
}

func TestComputeOracle_QueueFullAndNoSyncDelivery(t *testing.T) {
	sink := make(computeSink, 4)
	o, err := NewComputeOracle(testOptions(1), sink, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = o.RequestCompute(ctx, &types.ComputeRequest{Source: "x"})
	require.NoError(t, err)
	_, err = o.RequestCompute(ctx, &types.ComputeRequest{Source: "x"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Len(t, sink, 0)
	assert.Equal(t, int64(1), o.CollectMemoryStats().QueueLength)

	_, err = o.RequestCompute(ctx, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	o.Stop()
	_, err = o.RequestCompute(ctx, &types.ComputeRequest{Source: "x"})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestNewComputeOracle_RequiresConsumer(t *testing.T) {
	_, err := NewComputeOracle(nil, nil, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

type randomnessSink struct {
	mu    sync.Mutex
	ids   []types.CorrelationID
	words []*uint256.Int
	done  chan struct{}
}

func (s *randomnessSink) OnRandomnessFulfilled(_ context.Context, id types.CorrelationID, word *uint256.Int) error {
	s.mu.Lock()
	s.ids = append(s.ids, id)
	s.words = append(s.words, word)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func TestRandomnessOracle(t *testing.T) {
	o := NewRandomnessOracle(time.Millisecond, nil)
	defer o.Stop()

	_, err := o.RequestRandomness(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	sink := &randomnessSink{done: make(chan struct{}, 1)}
	o.Bind(sink)
	id, err := o.RequestRandomness(context.Background(), 1)
	require.NoError(t, err)

	select {
	case <-sink.done:
	case <-time.After(waitFor):
		t.Fatal("randomness not delivered")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.ids, 1)
	assert.Equal(t, id, sink.ids[0])
	assert.NotNil(t, sink.words[0])
}

type inbox chan *types.InboundMessage

func (i inbox) OnReceive(_ context.Context, msg *types.InboundMessage) error {
	i <- msg
	return nil
}

func TestLoopbackRouter(t *testing.T) {
	r := NewLoopbackRouter(7, 2, time.Millisecond, nil)
	defer r.Stop()
	ctx := context.Background()
	receiver := common.HexToAddress("0xbeef")
	msg := &types.OutboundMessage{Receiver: receiver, Data: []byte("12345")}

	_, err := r.Quote(ctx, 9, msg)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = r.Send(ctx, 9, msg)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	box := make(inbox, 1)
	r.Connect(9, box)
	fee, err := r.Quote(ctx, 9, msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), fee.Uint64())

	id, err := r.Send(ctx, 9, msg)
	require.NoError(t, err)
	select {
	case in := <-box:
		assert.Equal(t, id, in.MessageID)
		assert.Equal(t, uint64(7), in.SourceSelector)
		assert.Equal(t, receiver, in.Sender)
		assert.Equal(t, msg.Data, in.Data)
	case <-time.After(waitFor):
		t.Fatal("message not delivered")
	}
}

func TestStaticHeight(t *testing.T) {
	h := NewStaticHeight(2000)
	got, err := h.CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), got)

	h.SetHeight(3000)
	got, _ = h.CurrentHeight(context.Background())
	assert.Equal(t, uint64(3000), got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.CurrentHeight(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDevProver_ProofVerifies(t *testing.T) {
	p, err := NewDevProver()
	require.NoError(t, err)
	v, err := verifier.NewGroth16Verifier(p.VerifyingKey(), p.Curve(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	resp, err := p.ProveState(ctx, &types.ComputeRequest{Source: ProveStateSource, Args: []string{"ethereum", "1500", "1"}})
	require.NoError(t, err)

	proof, pub, err := codec.DecodeComputeResponse(resp)
	require.NoError(t, err)
	values, err := verifier.SplitPublicInputs(pub, p.Curve())
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, uint64(1500), values[0].Uint64())

	ok, err := v.Verify(ctx, proof, pub)
	require.NoError(t, err)
	assert.True(t, ok)

	values[0].SetUint64(1501)
	ok, err = v.Verify(ctx, proof, verifier.EncodePublicInputs(values...))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.ProveState(ctx, &types.ComputeRequest{Args: []string{"ethereum", "x", "1"}})
	assert.Error(t, err)
}

func TestFoldBatch(t *testing.T) {
	ctx := context.Background()
	req := &types.ComputeRequest{Source: NovaFoldSource, Args: []string{"1", "2", "0"}}
	a, err := FoldBatch(ctx, req)
	require.NoError(t, err)
	b, err := FoldBatch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 4*32)

	next, err := FoldBatch(ctx, &types.ComputeRequest{Args: []string{"1", "2", "1"}})
	require.NoError(t, err)
	assert.NotEqual(t, a, next)

	_, err = FoldBatch(ctx, &types.ComputeRequest{Args: []string{"1", "2"}})
	assert.Error(t, err)
}
