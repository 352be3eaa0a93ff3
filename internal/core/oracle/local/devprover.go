package local

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/weisyn/zkrelay/internal/core/prover/codec"
	"github.com/weisyn/zkrelay/internal/core/prover/verifier"
	"github.com/weisyn/zkrelay/pkg/types"
)

// 本地处理函数对应的计算脚本名
const (
	ProveStateSource = "prove-state-v1"
	NovaFoldSource   = "nova-fold-v1"
)

// StateCircuit 状态承诺电路：Secret² + Selector == StateRoot
type StateCircuit struct {
	Secret    frontend.Variable
	Selector  frontend.Variable `gnark:",public"`
	StateRoot frontend.Variable `gnark:",public"`
}

// Define 实现 frontend.Circuit
func (c *StateCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Add(api.Mul(c.Secret, c.Secret), c.Selector), c.StateRoot)
	return nil
}

// DevProver 本地 Groth16 证明器
//
// 启动时做一次可信设置，验证密钥交给 Groth16Verifier，使 Create → 回调 → 验证在单进程内闭环。
// ⚠️ 仅用于开发与集成测试，密钥不持久化。
type DevProver struct {
	curve ecc.ID
	ccs   constraint.ConstraintSystem
	pk    groth16.ProvingKey
	vk    groth16.VerifyingKey
}

// NewDevProver 编译电路并完成设置
func NewDevProver() (*DevProver, error) {
	p := &DevProver{curve: ecc.BN254}
	err := verifier.RunQuiet(func() error {
		ccs, err := frontend.Compile(p.curve.ScalarField(), r1cs.NewBuilder, &StateCircuit{})
		if err != nil {
			return fmt.Errorf("编译状态电路失败: %w", err)
		}
		pk, vk, err := groth16.Setup(ccs)
		if err != nil {
			return fmt.Errorf("Groth16 设置失败: %w", err)
		}
		p.ccs, p.pk, p.vk = ccs, pk, vk
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// VerifyingKey 验证密钥
func (p *DevProver) VerifyingKey() groth16.VerifyingKey { return p.vk }

// Curve 曲线
func (p *DevProver) Curve() ecc.ID { return p.curve }

// ProveState prove-state-v1 处理函数
//
// 参数：[sourceDomain, targetSelector, requestID]。
// 响应：abi(bytes proof, bytes publicInputs)，公共输入依次为 Selector 与 StateRoot。
func (p *DevProver) ProveState(ctx context.Context, req *types.ComputeRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Args) != 3 || req.Args[0] == "" {
		return nil, fmt.Errorf("prove-state expects [domain, selector, id], got %d args", len(req.Args))
	}
	selector, err := strconv.ParseUint(req.Args[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", req.Args[1], err)
	}
	if _, err := strconv.ParseUint(req.Args[2], 10, 64); err != nil {
		return nil, fmt.Errorf("invalid request id %q: %w", req.Args[2], err)
	}

	modulus := p.curve.ScalarField()
	secret := new(big.Int).SetBytes(crypto.Keccak256([]byte(req.Args[0]), []byte(req.Args[2])))
	secret.Mod(secret, modulus)
	sel := new(big.Int).SetUint64(selector)
	root := new(big.Int).Mul(secret, secret)
	root.Add(root, sel).Mod(root, modulus)

	assignment := &StateCircuit{Secret: secret, Selector: sel, StateRoot: root}
	var proofBytes bytes.Buffer
	err = verifier.RunQuiet(func() error {
		w, err := frontend.NewWitness(assignment, modulus)
		if err != nil {
			return fmt.Errorf("构建witness失败: %w", err)
		}
		proof, err := groth16.Prove(p.ccs, p.pk, w)
		if err != nil {
			return fmt.Errorf("生成证明失败: %w", err)
		}
		_, err = proof.WriteTo(&proofBytes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return codec.EncodeComputeResponse(proofBytes.Bytes(), verifier.EncodePublicInputs(sel, root))
}

var foldResponseArgs = func() abi.Arguments {
	u256, _ := abi.NewType("uint256", "", nil)
	b32, _ := abi.NewType("bytes32", "", nil)
	return abi.Arguments{{Type: u256}, {Type: u256}, {Type: u256}, {Type: b32}}
}()

// FoldBatch nova-fold-v1 处理函数
//
// 参数：[batchID, proofCount, round]。
// 响应：abi(uint256 batchId, uint256 count, uint256 round, bytes32 digest)，相同参数得到相同响应。
func FoldBatch(ctx context.Context, req *types.ComputeRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Args) != 3 {
		return nil, fmt.Errorf("nova-fold expects [batch, count, round], got %d args", len(req.Args))
	}
	values := make([]*big.Int, len(req.Args))
	for i, arg := range req.Args {
		v, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid fold argument %d %q: %w", i, arg, err)
		}
		values[i] = new(big.Int).SetUint64(v)
	}
	digest := crypto.Keccak256Hash([]byte(NovaFoldSource), []byte(req.Args[0]), []byte(req.Args[1]), []byte(req.Args[2]))
	return foldResponseArgs.Pack(values[0], values[1], values[2], [32]byte(digest))
}
