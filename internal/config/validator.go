package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/weisyn/zkrelay/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "配置验证失败，发现以下问题：\n"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidateMandatoryConfig 验证配置项
//
// 🎯 **配置验证职责**：各 <area>.New 对非法值静默回退默认值，
// 这里在启动时把这些非法值显式报告出来，避免“写了配置却没生效”。
//
// 📋 **检查项**：
// - 所有地址字段必须是 0x 开头的 20 字节十六进制
// - 所有时长字段必须能被 time.ParseDuration 解析且为正
// - 批次大小上下界：1 <= min <= max
// - 初始费用余额必须是十进制整数
func ValidateMandatoryConfig(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errs []error

	checkAddress := func(field string, v *string) {
		if v != nil && !common.IsHexAddress(strings.TrimSpace(*v)) {
			errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf("无效地址: %q", *v)})
		}
	}
	checkDuration := func(field string, v *string, allowZero bool) {
		if v == nil {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(*v))
		if err != nil || d < 0 || (!allowZero && d == 0) {
			errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf("时长格式无效: %q（期望类似 \"30s\"）", *v)})
		}
	}

	if p := appConfig.Prover; p != nil {
		checkAddress("prover.owner", p.Owner)

		minProofs, maxProofs := 2, 10
		if p.MinProofsPerBatch != nil {
			minProofs = *p.MinProofsPerBatch
		}
		if p.MaxProofsPerBatch != nil {
			maxProofs = *p.MaxProofsPerBatch
		}
		if minProofs < 1 || minProofs > maxProofs {
			errs = append(errs, &ValidationError{
				Field:   "prover.min_proofs_per_batch",
				Message: fmt.Sprintf("批次大小范围无效: min=%d, max=%d", minProofs, maxProofs),
			})
		}
		if p.SelectionWindow != nil && *p.SelectionWindow == 0 {
			errs = append(errs, &ValidationError{Field: "prover.selection_window", Message: "随机窗口不能为0"})
		}
	}

	if r := appConfig.Relay; r != nil {
		checkAddress("relay.fee_token", r.FeeToken)
		if r.InitialFeeBalance != nil {
			if _, err := uint256.FromDecimal(*r.InitialFeeBalance); err != nil {
				errs = append(errs, &ValidationError{Field: "relay.initial_fee_balance", Message: err.Error()})
			}
		}
		for i, src := range r.AllowedSources {
			s := src.Sender
			checkAddress(fmt.Sprintf("relay.allowed_sources[%d].sender", i), &s)
		}
	}

	if u := appConfig.Upkeep; u != nil {
		checkAddress("upkeep.requester", u.Requester)
		checkDuration("upkeep.interval", u.Interval, false)
		checkDuration("upkeep.poll_interval", u.PollInterval, false)
	}

	if o := appConfig.Oracle; o != nil {
		checkDuration("oracle.delivery_delay", o.DeliveryDelay, true)
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}
