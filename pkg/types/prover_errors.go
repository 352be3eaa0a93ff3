package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                            证明编排错误定义
// ============================================================================

var (
	// ErrInvalidArgument 参数无效（空域名、零ID等）
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound 请求/批次/关联ID不存在
	ErrNotFound = errors.New("not found")

	// ErrOracleError 预言机返回错误（对该请求是终态，不自动重试）
	ErrOracleError = errors.New("oracle error")

	// ErrVerificationFailed 验证预言机返回 false
	ErrVerificationFailed = errors.New("verification failed")

	// ErrAlreadyBatched 证明已属于某个批次
	ErrAlreadyBatched = errors.New("proof already batched")

	// ErrDuplicateFold 折叠轮次的 nullifier 已被使用
	ErrDuplicateFold = errors.New("duplicate fold")

	// ErrDepthExceeded 递归深度已达上限
	ErrDepthExceeded = errors.New("recursion depth exceeded")

	// ErrUnauthorized 调用者无权限
	ErrUnauthorized = errors.New("unauthorized")

	// ErrDestinationNotAllowlisted 目标域未在允许列表中
	ErrDestinationNotAllowlisted = errors.New("destination not allowlisted")

	// ErrSourceNotAllowlisted 来源域与发送者组合未在允许列表中
	ErrSourceNotAllowlisted = errors.New("source not allowlisted")

	// ErrInsufficientBalance 费用代币余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidProofData 证明数据为空或无法解码
	ErrInvalidProofData = errors.New("invalid proof data")

	// ErrNotLocallyVerified 结果根未在本地验证集合中
	ErrNotLocallyVerified = errors.New("result root not locally verified")

	// ErrCountOutOfRange 批次证明数量超出范围
	ErrCountOutOfRange = fmt.Errorf("%w: proof count out of range", ErrInvalidArgument)

	// ErrProofNotReady 引用的证明未完成或无效
	ErrProofNotReady = fmt.Errorf("%w: proof not completed and valid", ErrInvalidArgument)

	// ErrRoundPending 上一轮折叠尚未落地
	ErrRoundPending = errors.New("previous fold round still pending")

	// ErrBatchNotCompleted 批次没有可比较的折叠结果
	ErrBatchNotCompleted = errors.New("batch not completed")

	// ErrDuplicateMessage 跨域消息已处理过
	ErrDuplicateMessage = errors.New("duplicate message")

	// ErrUpkeepNotDue 定时任务尚未到期
	ErrUpkeepNotDue = errors.New("upkeep not due")
)

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapNotFound 包装不存在错误
func WrapNotFound(kind string, id uint64) error {
	return fmt.Errorf("%w: %s id=%d", ErrNotFound, kind, id)
}

// WrapOracleError 包装预言机错误
func WrapOracleError(op string, cause error) error {
	return fmt.Errorf("%w: op=%s, cause=%v", ErrOracleError, op, cause)
}

// WrapAlreadyBatched 包装重复入批错误
func WrapAlreadyBatched(proofID, batchID uint64) error {
	return fmt.Errorf("%w: proofID=%d, batchID=%d", ErrAlreadyBatched, proofID, batchID)
}

// WrapUnauthorized 包装无权限错误
func WrapUnauthorized(op string) error {
	return fmt.Errorf("%w: op=%s", ErrUnauthorized, op)
}

// WrapInvalidProofData 包装证明数据错误
func WrapInvalidProofData(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidProofData, reason)
}
