package verifier

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/weisyn/zkrelay/pkg/types"
)

// ValidateCrossChainProof 入站载荷的准入校验：结果根非零、证明非空
func ValidateCrossChainProof(p *types.CrossChainProof) error {
	if p == nil {
		return types.WrapInvalidProofData("nil payload")
	}
	if p.ResultRoot == (common.Hash{}) {
		return types.WrapInvalidProofData("zero result root")
	}
	if len(p.ProofPayload) == 0 {
		return types.WrapInvalidProofData("empty proof payload")
	}
	return nil
}

// StructurallyValid 本地结构有效性（不做密码学验证）
//
// 已通过准入校验的载荷，只要公共输入非空即视为结构有效。
func StructurallyValid(p *types.CrossChainProof) bool {
	return ValidateCrossChainProof(p) == nil && len(p.PublicInputsPayload) > 0
}
