package verifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/log"
)

// FieldElementSize 公共输入中每个域元素的字节数（大端）
const FieldElementSize = 32

// GenericCircuit 只声明公共输入的通用电路，用于构建仅含公共部分的 witness
type GenericCircuit struct {
	PublicInputs []frontend.Variable `gnark:",public"`
}

// Define 实现 frontend.Circuit
func (c *GenericCircuit) Define(api frontend.API) error {
	for _, in := range c.PublicInputs {
		api.AssertIsEqual(in, in)
	}
	return nil
}

// gnark 的全局日志替换不是并发安全的
var gnarkLogMu sync.Mutex

// RunQuiet 在关闭 gnark 调试输出的情况下执行 fn
//
// ⚠️ 调用之间互斥，证明生成与验证共用同一把锁。
func RunQuiet(fn func() error) error {
	gnarkLogMu.Lock()
	defer gnarkLogMu.Unlock()

	old := gnarklogger.Logger()
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	defer gnarklogger.Set(old)
	return fn()
}

// Groth16Verifier 基于 gnark 的验证预言机
//
// 📋 **载荷约定**：
//   - proof: groth16.Proof 的 WriteTo 序列化结果
//   - publicInputs: 按电路声明顺序拼接的 32 字节大端域元素
//
// 载荷格式错误与验证不通过都返回 (false, nil)；只有上下文取消返回错误。
type Groth16Verifier struct {
	vk     groth16.VerifyingKey
	curve  ecc.ID
	logger log.Logger
}

// NewGroth16Verifier 创建验证器
func NewGroth16Verifier(vk groth16.VerifyingKey, curve ecc.ID, logger log.Logger) (*Groth16Verifier, error) {
	if vk == nil {
		return nil, fmt.Errorf("verifying key is nil")
	}
	return &Groth16Verifier{vk: vk, curve: curve, logger: logger}, nil
}

// LoadVerifyingKey 从文件加载验证密钥
func LoadVerifyingKey(path string, curve ecc.ID) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开验证密钥失败: %w", err)
	}
	defer f.Close()

	vk := groth16.NewVerifyingKey(curve)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("读取验证密钥失败: %w", err)
	}
	return vk, nil
}

// Verify 实现 oracle.ProofVerifier
func (v *Groth16Verifier) Verify(ctx context.Context, proof []byte, publicInputs []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var ok bool
	_ = RunQuiet(func() error {
		ok = v.verify(proof, publicInputs)
		return nil
	})
	return ok, nil
}

func (v *Groth16Verifier) verify(proof []byte, publicInputs []byte) bool {
	proofObj := groth16.NewProof(v.curve)
	if _, err := proofObj.ReadFrom(bytes.NewReader(proof)); err != nil {
		v.debugf("反序列化证明失败: %v", err)
		return false
	}

	values, err := SplitPublicInputs(publicInputs, v.curve)
	if err != nil {
		v.debugf("解析公共输入失败: %v", err)
		return false
	}

	publicWitness, err := buildPublicWitness(values, v.curve)
	if err != nil {
		v.debugf("构建公开输入witness失败: %v", err)
		return false
	}

	if err := groth16.Verify(proofObj, v.vk, publicWitness); err != nil {
		v.debugf("Groth16 验证未通过: %v", err)
		return false
	}
	return true
}

func (v *Groth16Verifier) debugf(format string, args ...interface{}) {
	if v.logger != nil {
		v.logger.Debugf(format, args...)
	}
}

func buildPublicWitness(values []*big.Int, curve ecc.ID) (witness.Witness, error) {
	inputs := make([]frontend.Variable, len(values))
	for i, value := range values {
		inputs[i] = value
	}
	circuit := GenericCircuit{PublicInputs: inputs}
	return frontend.NewWitness(&circuit, curve.ScalarField(), frontend.PublicOnly())
}

// EncodePublicInputs 把域元素编码为公共输入载荷
func EncodePublicInputs(values ...*big.Int) []byte {
	out := make([]byte, 0, len(values)*FieldElementSize)
	for _, value := range values {
		var chunk [FieldElementSize]byte
		value.FillBytes(chunk[:])
		out = append(out, chunk[:]...)
	}
	return out
}

// SplitPublicInputs 把公共输入载荷拆分为域元素
//
// 拒绝长度不是 32 整数倍的载荷与不小于标量域模数的元素（非规范编码）。
func SplitPublicInputs(data []byte, curve ecc.ID) ([]*big.Int, error) {
	if len(data) == 0 || len(data)%FieldElementSize != 0 {
		return nil, fmt.Errorf("public inputs length %d is not a positive multiple of %d", len(data), FieldElementSize)
	}
	modulus := curve.ScalarField()
	values := make([]*big.Int, 0, len(data)/FieldElementSize)
	for off := 0; off < len(data); off += FieldElementSize {
		value := new(big.Int).SetBytes(data[off : off+FieldElementSize])
		if value.Cmp(modulus) >= 0 {
			return nil, fmt.Errorf("public input %d is not a canonical field element", off/FieldElementSize)
		}
		values = append(values, value)
	}
	return values, nil
}
