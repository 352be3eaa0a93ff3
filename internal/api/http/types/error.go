// Package types provides HTTP error type definitions.
package types

import (
	"errors"
	"net/http"

	domain "github.com/weisyn/zkrelay/pkg/types"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail 错误详情
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

// 错误码
const (
	// 请求错误
	ErrInvalidArgument  = "INVALID_ARGUMENT"
	ErrInvalidProofData = "INVALID_PROOF_DATA"
	ErrPermissionDenied = "PERMISSION_DENIED"
	ErrNotFound         = "NOT_FOUND"

	// 状态冲突
	ErrAlreadyBatched   = "ALREADY_BATCHED"
	ErrDuplicateFold    = "DUPLICATE_FOLD"
	ErrDuplicateMessage = "DUPLICATE_MESSAGE"
	ErrRoundPending     = "ROUND_PENDING"
	ErrDepthExceeded    = "DEPTH_EXCEEDED"
	ErrBatchNotReady    = "BATCH_NOT_COMPLETED"

	// 中继
	ErrNotLocallyVerified  = "NOT_LOCALLY_VERIFIED"
	ErrNotAllowlisted      = "NOT_ALLOWLISTED"
	ErrInsufficientBalance = "INSUFFICIENT_BALANCE"

	// 服务端
	ErrOracle   = "ORACLE_ERROR"
	ErrInternal = "INTERNAL"
)

// NewErrorResponse 创建错误响应
func NewErrorResponse(code, message string, details interface{}) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// WithRequestID 添加请求ID
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.Error.RequestID = requestID
	return e
}

// Classify 把领域错误映射为 HTTP 状态码与错误码
//
// ⚠️ 顺序有意义：ErrCountOutOfRange / ErrProofNotReady 包装了 ErrInvalidArgument。
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidProofData):
		return http.StatusBadRequest, ErrInvalidProofData
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, ErrInvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, ErrPermissionDenied
	case errors.Is(err, domain.ErrAlreadyBatched):
		return http.StatusConflict, ErrAlreadyBatched
	case errors.Is(err, domain.ErrDuplicateFold):
		return http.StatusConflict, ErrDuplicateFold
	case errors.Is(err, domain.ErrDuplicateMessage):
		return http.StatusConflict, ErrDuplicateMessage
	case errors.Is(err, domain.ErrRoundPending):
		return http.StatusConflict, ErrRoundPending
	case errors.Is(err, domain.ErrDepthExceeded):
		return http.StatusConflict, ErrDepthExceeded
	case errors.Is(err, domain.ErrBatchNotCompleted):
		return http.StatusConflict, ErrBatchNotReady
	case errors.Is(err, domain.ErrNotLocallyVerified):
		return http.StatusUnprocessableEntity, ErrNotLocallyVerified
	case errors.Is(err, domain.ErrDestinationNotAllowlisted), errors.Is(err, domain.ErrSourceNotAllowlisted):
		return http.StatusUnprocessableEntity, ErrNotAllowlisted
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, ErrInsufficientBalance
	case errors.Is(err, domain.ErrOracleError):
		return http.StatusBadGateway, ErrOracle
	default:
		return http.StatusInternalServerError, ErrInternal
	}
}
