// Package verifier 证明验证门与已验证结果集合
//
// 📋 **组成**：
//   - Gate: 空数据快速失败，其余转交验证预言机
//   - ResultSet: 已验证结果根集合（只增不减）
//   - Groth16Verifier: 基于 gnark 的 Groth16 验证预言机实现
//   - ValidateCrossChainProof / StructurallyValid: 跨域载荷的本地结构校验
package verifier

import (
	"context"

	"github.com/weisyn/zkrelay/pkg/interfaces/oracle"
	"github.com/weisyn/zkrelay/pkg/types"
)

// Gate 验证门
type Gate struct {
	verifier oracle.ProofVerifier
}

// NewGate 创建验证门
func NewGate(v oracle.ProofVerifier) *Gate {
	return &Gate{verifier: v}
}

// Verify 验证证明
//
// 任一载荷为空时直接返回 ErrInvalidProofData，不调用预言机。
func (g *Gate) Verify(ctx context.Context, proof []byte, publicInputs []byte) (bool, error) {
	if len(proof) == 0 {
		return false, types.WrapInvalidProofData("empty proof")
	}
	if len(publicInputs) == 0 {
		return false, types.WrapInvalidProofData("empty public inputs")
	}
	return g.verifier.Verify(ctx, proof, publicInputs)
}
