// Package relay 跨域状态根中继
//
// 📋 **职责**：
//   - 出站：只转发本地已验证的结果根，目标域须在允许列表中，费用以费用代币余额支付
//   - 入站：来源域与发送者须联合在允许列表中，解码并去重后记录为跨域已验证
//
// 入站只做结构校验；密码学验证已在来源域完成，不再重复执行。
package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	relayconfig "github.com/weisyn/zkrelay/internal/config/relay"
	logimpl "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/prover/access"
	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/metrics"
	"github.com/weisyn/zkrelay/internal/core/prover/verifier"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/interfaces/prover"
	"github.com/weisyn/zkrelay/pkg/types"
)

// Dependencies 中继协作者
type Dependencies struct {
	Router   oracle.Router
	Verified prover.ResultSet // 本地已验证集合（只读）
	Guard    *access.Guard
	Clock    clock.Clock

	Bus     event.EventBus
	Metrics *metrics.Metrics
	Logger  log.Logger
}

type sourceKey struct {
	selector uint64
	sender   common.Address
}

// Engine 中继引擎
type Engine struct {
	router   oracle.Router
	verified prover.ResultSet
	guard    *access.Guard
	clock    clock.Clock
	bus      event.EventBus
	metrics  *metrics.Metrics
	logger   log.Logger

	crossVerified *verifier.ResultSet

	mu           sync.Mutex
	feeToken     common.Address
	feeBalance   *uint256.Int
	destinations map[uint64]bool
	sources      map[sourceKey]bool
	received     map[common.Hash]*types.CrossChainProof
}

var _ prover.RelayService = (*Engine)(nil)

// New 创建中继引擎；opts 为空时使用默认配置
func New(opts *relayconfig.RelayOptions, deps Dependencies) (*Engine, error) {
	if deps.Router == nil || deps.Verified == nil || deps.Guard == nil || deps.Clock == nil {
		return nil, fmt.Errorf("%w: relay dependencies incomplete", types.ErrInvalidArgument)
	}
	if opts == nil {
		opts = relayconfig.New(nil).GetOptions()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logimpl.NewNop()
	}

	e := &Engine{
		router:        deps.Router,
		verified:      deps.Verified,
		guard:         deps.Guard,
		clock:         deps.Clock,
		bus:           deps.Bus,
		metrics:       deps.Metrics,
		logger:        logger,
		crossVerified: verifier.NewResultSet(),
		feeToken:      opts.FeeToken,
		feeBalance:    uint256.NewInt(0),
		destinations:  make(map[uint64]bool),
		sources:       make(map[sourceKey]bool),
		received:      make(map[common.Hash]*types.CrossChainProof),
	}
	if opts.InitialFeeBalance != nil {
		e.feeBalance.Set(opts.InitialFeeBalance)
	}
	for _, d := range opts.AllowedDestinations {
		e.destinations[d] = true
	}
	for _, s := range opts.AllowedSources {
		e.sources[sourceKey{selector: s.Selector, sender: s.Sender}] = true
	}
	return e, nil
}

// Send 发送已验证的结果根
//
// 费用在发送前预扣，路由发送失败时退回；报价与发送期间不持有引擎锁。
func (e *Engine) Send(ctx context.Context, req *types.SendRequest) (types.MessageID, error) {
	if req == nil {
		return "", fmt.Errorf("%w: nil send request", types.ErrInvalidArgument)
	}
	if !e.verified.Contains(req.ResultRoot) {
		return "", fmt.Errorf("%w: root=%s", types.ErrNotLocallyVerified, req.ResultRoot.Hex())
	}

	e.mu.Lock()
	allowed := e.destinations[req.Destination]
	feeToken := e.feeToken
	e.mu.Unlock()
	if !allowed {
		return "", fmt.Errorf("%w: destination=%d", types.ErrDestinationNotAllowlisted, req.Destination)
	}

	payload, err := codec.EncodeCrossChainProof(&types.CrossChainProof{
		ResultRoot:          req.ResultRoot,
		TargetSelector:      req.TargetSelector,
		SourceDomain:        req.SourceDomain,
		ProofPayload:        req.ProofPayload,
		PublicInputsPayload: req.PublicInputsPayload,
		CreatedAt:           uint64(e.clock.Now().Unix()),
	})
	if err != nil {
		return "", fmt.Errorf("encode message payload: %w", err)
	}
	msg := &types.OutboundMessage{Receiver: req.Receiver, Data: payload, FeeToken: feeToken}

	fee, err := e.router.Quote(ctx, req.Destination, msg)
	if err != nil {
		e.metrics.OracleError("router")
		return "", types.WrapOracleError("router.quote", err)
	}

	e.mu.Lock()
	if e.feeBalance.Lt(fee) {
		have := e.feeBalance.Dec()
		e.mu.Unlock()
		return "", fmt.Errorf("%w: have=%s need=%s", types.ErrInsufficientBalance, have, fee.Dec())
	}
	e.feeBalance.Sub(e.feeBalance, fee)
	e.mu.Unlock()

	msgID, err := e.router.Send(ctx, req.Destination, msg)
	if err != nil {
		e.mu.Lock()
		e.feeBalance.Add(e.feeBalance, fee)
		e.mu.Unlock()
		e.metrics.OracleError("router")
		e.logger.Errorf("跨域消息发送失败: destination=%d, err=%v", req.Destination, err)
		return "", types.WrapOracleError("router.send", err)
	}

	e.metrics.RelayMessage("outbound", float64(fee.Uint64()))
	e.logger.Infof("跨域消息已发送: id=%s, destination=%d, root=%s, fee=%s",
		msgID, req.Destination, req.ResultRoot.Hex(), fee.Dec())
	e.publish(types.EventTypeSent, &types.SentEvent{
		MessageID:   msgID,
		Destination: req.Destination,
		Receiver:    req.Receiver,
		ResultRoot:  req.ResultRoot,
		Fee:         fee,
	})
	return msgID, nil
}

// OnReceive 实现 oracle.MessageReceiver
func (e *Engine) OnReceive(_ context.Context, msg *types.InboundMessage) error {
	if msg == nil {
		return fmt.Errorf("%w: nil inbound message", types.ErrInvalidArgument)
	}

	e.mu.Lock()
	allowed := e.sources[sourceKey{selector: msg.SourceSelector, sender: msg.Sender}]
	e.mu.Unlock()
	if !allowed {
		e.logger.Warnf("拒绝未授权来源的消息: id=%s, source=%d, sender=%s", msg.MessageID, msg.SourceSelector, msg.Sender.Hex())
		return fmt.Errorf("%w: source=%d sender=%s", types.ErrSourceNotAllowlisted, msg.SourceSelector, msg.Sender.Hex())
	}

	proof, err := codec.DecodeCrossChainProof(msg.Data)
	if err != nil {
		return err
	}
	if err := verifier.ValidateCrossChainProof(proof); err != nil {
		return err
	}

	key := codec.MessageKey(proof.ResultRoot, proof.TargetSelector, proof.SourceDomain)
	valid := verifier.StructurallyValid(proof)

	e.mu.Lock()
	if _, dup := e.received[key]; dup {
		e.mu.Unlock()
		return fmt.Errorf("%w: id=%s key=%s", types.ErrDuplicateMessage, msg.MessageID, key.Hex())
	}
	e.received[key] = proof
	if valid {
		e.crossVerified.Add(proof.ResultRoot)
	}
	e.mu.Unlock()

	e.metrics.RelayMessage("inbound", 0)
	e.logger.Infof("跨域消息已接收: id=%s, source=%d, root=%s, valid=%t",
		msg.MessageID, msg.SourceSelector, proof.ResultRoot.Hex(), valid)
	e.publish(types.EventTypeReceived, &types.ReceivedEvent{
		MessageID:    msg.MessageID,
		SourceDomain: msg.SourceSelector,
		Sender:       msg.Sender,
		ResultRoot:   proof.ResultRoot,
	})
	e.publish(types.EventTypeStateRootVerified, &types.StateRootVerifiedEvent{
		ResultRoot:   proof.ResultRoot,
		SourceDomain: proof.SourceDomain,
		Valid:        valid,
	})
	return nil
}

// IsCrossDomainVerified 结果根是否已作为跨域状态根记录
func (e *Engine) IsCrossDomainVerified(root common.Hash) bool {
	return e.crossVerified.Contains(root)
}

// Received 按消息标识查询已接收的载荷
func (e *Engine) Received(key common.Hash) (*types.CrossChainProof, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.received[key]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// FeeBalance 当前费用代币余额
func (e *Engine) FeeBalance() *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return new(uint256.Int).Set(e.feeBalance)
}

// FeeToken 费用代币地址
func (e *Engine) FeeToken() common.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeToken
}

// AllowlistDestination 设置目标域允许状态（管理员）
func (e *Engine) AllowlistDestination(caller common.Address, selector uint64, allowed bool) error {
	if err := e.guard.Require(caller, "allowlist_destination"); err != nil {
		return err
	}
	e.mu.Lock()
	if allowed {
		e.destinations[selector] = true
	} else {
		delete(e.destinations, selector)
	}
	e.mu.Unlock()
	e.logger.Infof("目标域允许列表已更新: selector=%d, allowed=%t", selector, allowed)
	return nil
}

// AllowlistSource 设置来源域与发送者组合的允许状态（管理员）
func (e *Engine) AllowlistSource(caller common.Address, selector uint64, sender common.Address, allowed bool) error {
	if err := e.guard.Require(caller, "allowlist_source"); err != nil {
		return err
	}
	key := sourceKey{selector: selector, sender: sender}
	e.mu.Lock()
	if allowed {
		e.sources[key] = true
	} else {
		delete(e.sources, key)
	}
	e.mu.Unlock()
	e.logger.Infof("来源允许列表已更新: selector=%d, sender=%s, allowed=%t", selector, sender.Hex(), allowed)
	return nil
}

// FundFees 增加费用代币余额（管理员）
func (e *Engine) FundFees(caller common.Address, amount *uint256.Int) error {
	if err := e.guard.Require(caller, "fund_fees"); err != nil {
		return err
	}
	if amount == nil {
		return fmt.Errorf("%w: nil amount", types.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, overflow := e.feeBalance.AddOverflow(e.feeBalance, amount); overflow {
		e.feeBalance.Sub(e.feeBalance, amount)
		return fmt.Errorf("%w: fee balance overflow", types.ErrInvalidArgument)
	}
	return nil
}

func (e *Engine) publish(t types.EventType, payload interface{}) {
	if e.bus != nil {
		e.bus.Publish(t, payload)
	}
}
