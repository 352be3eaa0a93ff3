package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relayconfig "github.com/weisyn/zkrelay/internal/config/relay"
	"github.com/weisyn/zkrelay/internal/core/infrastructure/clock"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/correlation"
	"github.com/weisyn/zkrelay/internal/core/prover/registry"
	"github.com/weisyn/zkrelay/internal/core/prover/testutil"
	"github.com/weisyn/zkrelay/internal/core/prover/verifier"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/types"
)

const (
	destSelector   uint64 = 5009297550715157269
	sourceSelector uint64 = 16015286601757825753
)

var (
	owner      = common.HexToAddress("0xaaaa")
	stranger   = common.HexToAddress("0xbbbb")
	receiver   = common.HexToAddress("0xcccc")
	peerSender = common.HexToAddress("0xdddd")
)

type fixture struct {
	engine   *Engine
	router   *testutil.FakeRouter
	verified *verifier.ResultSet
	bus      event.EventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		router:   &testutil.FakeRouter{Fee: uint256.NewInt(40)},
		verified: verifier.NewResultSet(),
		bus:      testutil.NewEventBus(),
	}
	engine, err := New(&relayconfig.RelayOptions{
		FeeToken:            common.HexToAddress("0xfee"),
		InitialFeeBalance:   uint256.NewInt(100),
		AllowedDestinations: []uint64{destSelector},
		AllowedSources:      []relayconfig.SourceAllowlistEntry{{Selector: sourceSelector, Sender: peerSender}},
	}, Dependencies{
		Router:   f.router,
		Verified: f.verified,
		Guard:    access.NewGuard(owner),
		Clock:    clock.NewMockClock(time.Unix(1700000000, 0)),
		Bus:      f.bus,
	})
	require.NoError(t, err)
	f.engine = engine
	return f
}

func sendRequest(root common.Hash) *types.SendRequest {
	return &types.SendRequest{
		Destination:         destSelector,
		Receiver:            receiver,
		ResultRoot:          root,
		ProofPayload:        []byte("proof"),
		PublicInputsPayload: []byte("pub"),
		TargetSelector:      1007,
		SourceDomain:        "ethereum",
	}
}

func inbound(t *testing.T, p *types.CrossChainProof) *types.InboundMessage {
	t.Helper()
	data, err := codec.EncodeCrossChainProof(p)
	require.NoError(t, err)
	return &types.InboundMessage{MessageID: "m-1", SourceSelector: sourceSelector, Sender: peerSender, Data: data}
}

func TestScenarioE_SendRequiresLocallyVerifiedRoot(t *testing.T) {
	ctx := context.Background()
	table := correlation.New()
	cmp := &testutil.FakeCompute{}
	verified := verifier.NewResultSet()
	reg, err := registry.New(registry.Config{ComputeSource: "prove-state-v1", SelectionWindow: 1000}, registry.Dependencies{
		Table:      table,
		Randomness: &testutil.FakeRandomness{},
		Compute:    cmp,
		Heights:    &testutil.StaticHeight{Height: 2000},
		Gate:       verifier.NewGate(&testutil.FakeVerifier{Result: true}),
		Verified:   verified,
		Clock:      clock.NewMockClock(time.Unix(1700000000, 0)),
	})
	require.NoError(t, err)

	router := &testutil.FakeRouter{Fee: uint256.NewInt(1)}
	engine, err := New(&relayconfig.RelayOptions{
		InitialFeeBalance:   uint256.NewInt(10),
		AllowedDestinations: []uint64{destSelector},
	}, Dependencies{Router: router, Verified: verified, Guard: access.NewGuard(owner), Clock: clock.NewSystemClock()})
	require.NoError(t, err)

	pub := []byte("state-root-inputs")
	root := codec.ResultRoot(pub)

	_, err = engine.Send(ctx, sendRequest(root))
	assert.ErrorIs(t, err, types.ErrNotLocallyVerified)

	id, err := reg.Create(ctx, owner, "ethereum", 1007)
	require.NoError(t, err)
	require.NoError(t, reg.OnComputeFulfilled(ctx, cmp.Last().ID, testutil.ComputeResponse([]byte("proof"), pub), nil))
	req, _ := reg.Get(id)
	require.True(t, req.Valid)

	msgID, err := engine.Send(ctx, sendRequest(root))
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)
	assert.Equal(t, "9", engine.FeeBalance().Dec())
}

func TestSend_Success(t *testing.T) {
	f := newFixture(t)
	root := common.HexToHash("0x01")
	f.verified.Add(root)

	msgID, err := f.engine.Send(context.Background(), sendRequest(root))
	require.NoError(t, err)
	assert.Equal(t, types.MessageID("msg-1"), msgID)
	assert.Equal(t, uint64(60), f.engine.FeeBalance().Uint64())

	sent := f.router.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, destSelector, sent[0].Destination)
	assert.Equal(t, receiver, sent[0].Message.Receiver)
	assert.Equal(t, common.HexToAddress("0xfee"), sent[0].Message.FeeToken)

	decoded, err := codec.DecodeCrossChainProof(sent[0].Message.Data)
	require.NoError(t, err)
	assert.Equal(t, root, decoded.ResultRoot)
	assert.Equal(t, uint64(1007), decoded.TargetSelector)
	assert.Equal(t, uint64(1700000000), decoded.CreatedAt)

	events := f.bus.GetEventHistory(types.EventTypeSent)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(40), events[0].(*types.SentEvent).Fee.Uint64())
}

func TestSend_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := common.HexToHash("0x01")
	f.verified.Add(root)

	req := sendRequest(root)
	req.Destination = 1
	_, err := f.engine.Send(ctx, req)
	assert.ErrorIs(t, err, types.ErrDestinationNotAllowlisted)

	f.router.Fee = uint256.NewInt(101)
	_, err = f.engine.Send(ctx, sendRequest(root))
	assert.ErrorIs(t, err, types.ErrInsufficientBalance)
	assert.Equal(t, uint64(100), f.engine.FeeBalance().Uint64())

	f.router.Fee = uint256.NewInt(10)
	f.router.QuoteErr = errors.New("quote down")
	_, err = f.engine.Send(ctx, sendRequest(root))
	assert.ErrorIs(t, err, types.ErrOracleError)

	f.router.QuoteErr = nil
	f.router.SendErr = errors.New("send down")
	_, err = f.engine.Send(ctx, sendRequest(root))
	assert.ErrorIs(t, err, types.ErrOracleError)
	assert.Equal(t, uint64(100), f.engine.FeeBalance().Uint64(), "reserved fee refunded")

	assert.Empty(t, f.bus.GetEventHistory(types.EventTypeSent))
}

func TestOnReceive_Success(t *testing.T) {
	f := newFixture(t)
	p := &types.CrossChainProof{
		ResultRoot:          common.HexToHash("0xabc"),
		TargetSelector:      1007,
		SourceDomain:        "ethereum",
		ProofPayload:        []byte("proof"),
		PublicInputsPayload: []byte("pub"),
		CreatedAt:           1,
	}
	require.NoError(t, f.engine.OnReceive(context.Background(), inbound(t, p)))

	assert.True(t, f.engine.IsCrossDomainVerified(p.ResultRoot))
	stored, ok := f.engine.Received(codec.MessageKey(p.ResultRoot, p.TargetSelector, p.SourceDomain))
	require.True(t, ok)
	assert.Equal(t, p, stored)

	received := f.bus.GetEventHistory(types.EventTypeReceived)
	require.Len(t, received, 1)
	assert.Equal(t, sourceSelector, received[0].(*types.ReceivedEvent).SourceDomain)

	verified := f.bus.GetEventHistory(types.EventTypeStateRootVerified)
	require.Len(t, verified, 1)
	assert.True(t, verified[0].(*types.StateRootVerifiedEvent).Valid)
	assert.Equal(t, "ethereum", verified[0].(*types.StateRootVerifiedEvent).SourceDomain)
}

func TestOnReceive_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	good := &types.CrossChainProof{
		ResultRoot:          common.HexToHash("0xabc"),
		ProofPayload:        []byte("proof"),
		PublicInputsPayload: []byte("pub"),
		SourceDomain:        "ethereum",
	}

	msg := inbound(t, good)
	msg.Sender = stranger
	assert.ErrorIs(t, f.engine.OnReceive(ctx, msg), types.ErrSourceNotAllowlisted)

	msg = inbound(t, good)
	msg.SourceSelector = 1
	assert.ErrorIs(t, f.engine.OnReceive(ctx, msg), types.ErrSourceNotAllowlisted)

	msg = inbound(t, good)
	msg.Data = []byte("garbage")
	assert.ErrorIs(t, f.engine.OnReceive(ctx, msg), types.ErrInvalidProofData)

	zeroRoot := *good
	zeroRoot.ResultRoot = common.Hash{}
	assert.ErrorIs(t, f.engine.OnReceive(ctx, inbound(t, &zeroRoot)), types.ErrInvalidProofData)

	noProof := *good
	noProof.ProofPayload = nil
	assert.ErrorIs(t, f.engine.OnReceive(ctx, inbound(t, &noProof)), types.ErrInvalidProofData)

	assert.False(t, f.engine.IsCrossDomainVerified(good.ResultRoot))

	require.NoError(t, f.engine.OnReceive(ctx, inbound(t, good)))
	assert.ErrorIs(t, f.engine.OnReceive(ctx, inbound(t, good)), types.ErrDuplicateMessage)
	assert.Len(t, f.bus.GetEventHistory(types.EventTypeReceived), 1)
}

func TestOnReceive_EmptyPublicInputsStoredButNotVerified(t *testing.T) {
	f := newFixture(t)
	p := &types.CrossChainProof{
		ResultRoot:   common.HexToHash("0xabc"),
		ProofPayload: []byte("proof"),
		SourceDomain: "ethereum",
	}
	require.NoError(t, f.engine.OnReceive(context.Background(), inbound(t, p)))
	assert.False(t, f.engine.IsCrossDomainVerified(p.ResultRoot))

	verified := f.bus.GetEventHistory(types.EventTypeStateRootVerified)
	require.Len(t, verified, 1)
	assert.False(t, verified[0].(*types.StateRootVerifiedEvent).Valid)
}

func TestAdminSurface(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := common.HexToHash("0x01")
	f.verified.Add(root)

	assert.ErrorIs(t, f.engine.AllowlistDestination(stranger, destSelector, false), types.ErrUnauthorized)
	require.NoError(t, f.engine.AllowlistDestination(owner, destSelector, false))
	_, err := f.engine.Send(ctx, sendRequest(root))
	assert.ErrorIs(t, err, types.ErrDestinationNotAllowlisted)
	require.NoError(t, f.engine.AllowlistDestination(owner, destSelector, true))

	assert.ErrorIs(t, f.engine.FundFees(stranger, uint256.NewInt(1)), types.ErrUnauthorized)
	require.NoError(t, f.engine.FundFees(owner, uint256.NewInt(50)))
	assert.Equal(t, uint64(150), f.engine.FeeBalance().Uint64())

	huge := new(uint256.Int).SetAllOne()
	assert.ErrorIs(t, f.engine.FundFees(owner, huge), types.ErrInvalidArgument)
	assert.Equal(t, uint64(150), f.engine.FeeBalance().Uint64())

	other := common.HexToAddress("0xeeee")
	assert.ErrorIs(t, f.engine.AllowlistSource(stranger, 7, other, true), types.ErrUnauthorized)
	require.NoError(t, f.engine.AllowlistSource(owner, 7, other, true))
	p := &types.CrossChainProof{ResultRoot: common.HexToHash("0x02"), ProofPayload: []byte{1}, PublicInputsPayload: []byte{2}}
	data, err := codec.EncodeCrossChainProof(p)
	require.NoError(t, err)
	require.NoError(t, f.engine.OnReceive(ctx, &types.InboundMessage{MessageID: "x", SourceSelector: 7, Sender: other, Data: data}))

	require.NoError(t, f.engine.AllowlistSource(owner, sourceSelector, peerSender, false))
	p2 := *p
	p2.ResultRoot = common.HexToHash("0x03")
	assert.ErrorIs(t, f.engine.OnReceive(ctx, inbound(t, &p2)), types.ErrSourceNotAllowlisted)
}

func TestNew_DefaultOptions(t *testing.T) {
	engine, err := New(nil, Dependencies{
		Router:   &testutil.FakeRouter{},
		Verified: verifier.NewResultSet(),
		Guard:    access.NewGuard(owner),
		Clock:    clock.NewSystemClock(),
	})
	require.NoError(t, err)
	assert.True(t, engine.FeeBalance().IsZero())

	_, err = New(nil, Dependencies{})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
