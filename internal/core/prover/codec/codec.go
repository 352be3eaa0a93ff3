// Package codec 证明编排的载荷编解码与摘要计算
//
// 📋 **载荷格式**（以太坊 ABI 编码，与链上合约互通）：
//   - 计算回调响应：abi.encode(bytes proof, bytes publicInputs)
//   - 跨域消息：abi.encode(bytes32 resultRoot, uint256 targetSelector, string sourceDomain,
//     bytes proof, bytes publicInputs, uint256 createdAt)
//
// 📋 **摘要**（均为 keccak256）：
//   - ResultRoot     = keccak(publicInputs)
//   - AggregatedHash = keccak(foldResponse)
//   - StateRootIn    = keccak(abi.encode(uint256[] proofIds))
//   - Nullifier      = keccak(abi.encode(uint256 batchId, address requester, uint256 round))
//   - MessageKey     = keccak(abi.encode(bytes32 resultRoot, uint256 targetSelector, string sourceDomain))
package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/zkrelay/pkg/types"
)

var (
	bytesType   = mustType("bytes")
	bytes32Type = mustType("bytes32")
	uint256Type = mustType("uint256")
	stringType  = mustType("string")
	addressType = mustType("address")
	uintsType   = mustType("uint256[]")

	computeResponseArgs = abi.Arguments{
		{Name: "proof", Type: bytesType},
		{Name: "publicInputs", Type: bytesType},
	}

	crossChainArgs = abi.Arguments{
		{Name: "resultRoot", Type: bytes32Type},
		{Name: "targetSelector", Type: uint256Type},
		{Name: "sourceDomain", Type: stringType},
		{Name: "proof", Type: bytesType},
		{Name: "publicInputs", Type: bytesType},
		{Name: "createdAt", Type: uint256Type},
	}

	proofIDsArgs  = abi.Arguments{{Type: uintsType}}
	nullifierArgs = abi.Arguments{{Type: uint256Type}, {Type: addressType}, {Type: uint256Type}}
	messageArgs   = abi.Arguments{{Type: bytes32Type}, {Type: uint256Type}, {Type: stringType}}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("codec: abi type %s: %v", t, err))
	}
	return typ
}

// EncodeComputeResponse 编码计算回调响应
func EncodeComputeResponse(proof, publicInputs []byte) ([]byte, error) {
	return computeResponseArgs.Pack(nonNil(proof), nonNil(publicInputs))
}

// DecodeComputeResponse 解码计算回调响应
func DecodeComputeResponse(data []byte) (proof []byte, publicInputs []byte, err error) {
	if len(data) == 0 {
		return nil, nil, types.WrapInvalidProofData("empty compute response")
	}
	values, err := computeResponseArgs.Unpack(data)
	if err != nil {
		return nil, nil, types.WrapInvalidProofData(fmt.Sprintf("decode compute response: %v", err))
	}
	proof, ok1 := values[0].([]byte)
	publicInputs, ok2 := values[1].([]byte)
	if !ok1 || !ok2 {
		return nil, nil, types.WrapInvalidProofData("unexpected compute response layout")
	}
	return proof, publicInputs, nil
}

// EncodeCrossChainProof 编码跨域消息载荷
func EncodeCrossChainProof(p *types.CrossChainProof) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil cross-chain proof", types.ErrInvalidArgument)
	}
	return crossChainArgs.Pack(
		[32]byte(p.ResultRoot),
		new(big.Int).SetUint64(p.TargetSelector),
		p.SourceDomain,
		nonNil(p.ProofPayload),
		nonNil(p.PublicInputsPayload),
		new(big.Int).SetUint64(p.CreatedAt),
	)
}

// DecodeCrossChainProof 解码跨域消息载荷
//
// 任何解码失败都归类为 ErrInvalidProofData。
func DecodeCrossChainProof(data []byte) (*types.CrossChainProof, error) {
	if len(data) == 0 {
		return nil, types.WrapInvalidProofData("empty message payload")
	}
	values, err := crossChainArgs.Unpack(data)
	if err != nil {
		return nil, types.WrapInvalidProofData(fmt.Sprintf("decode message payload: %v", err))
	}

	root, ok0 := values[0].([32]byte)
	selector, ok1 := values[1].(*big.Int)
	domain, ok2 := values[2].(string)
	proof, ok3 := values[3].([]byte)
	publicInputs, ok4 := values[4].([]byte)
	createdAt, ok5 := values[5].(*big.Int)
	if !(ok0 && ok1 && ok2 && ok3 && ok4 && ok5) {
		return nil, types.WrapInvalidProofData("unexpected message payload layout")
	}
	if !selector.IsUint64() || !createdAt.IsUint64() {
		return nil, types.WrapInvalidProofData("selector or timestamp overflows uint64")
	}

	return &types.CrossChainProof{
		ResultRoot:          common.Hash(root),
		TargetSelector:      selector.Uint64(),
		SourceDomain:        domain,
		ProofPayload:        proof,
		PublicInputsPayload: publicInputs,
		CreatedAt:           createdAt.Uint64(),
	}, nil
}

// ResultRoot 公共输入的结果根
func ResultRoot(publicInputs []byte) common.Hash {
	return crypto.Keccak256Hash(publicInputs)
}

// AggregatedHash 折叠响应的聚合摘要
func AggregatedHash(response []byte) common.Hash {
	return crypto.Keccak256Hash(response)
}

// ProofIDsDigest 批次证明ID列表的摘要（折叠实例的 StateRootIn）
func ProofIDsDigest(proofIDs []uint64) common.Hash {
	ids := make([]*big.Int, len(proofIDs))
	for i, id := range proofIDs {
		ids[i] = new(big.Int).SetUint64(id)
	}
	packed, err := proofIDsArgs.Pack(ids)
	if err != nil {
		// uint256[] 打包只会因类型不匹配失败
		panic(fmt.Sprintf("codec: pack proof ids: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}

// Nullifier 折叠轮次的一次性标记
func Nullifier(batchID uint64, requester common.Address, round uint64) common.Hash {
	packed, err := nullifierArgs.Pack(
		new(big.Int).SetUint64(batchID),
		requester,
		new(big.Int).SetUint64(round),
	)
	if err != nil {
		panic(fmt.Sprintf("codec: pack nullifier: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}

// MessageKey 跨域消息的去重标识
func MessageKey(resultRoot common.Hash, targetSelector uint64, sourceDomain string) common.Hash {
	packed, err := messageArgs.Pack(
		[32]byte(resultRoot),
		new(big.Int).SetUint64(targetSelector),
		sourceDomain,
	)
	if err != nil {
		panic(fmt.Sprintf("codec: pack message key: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
