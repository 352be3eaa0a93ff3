package codec

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkrelay/pkg/types"
)

func TestComputeResponse(t *testing.T) {
	data, err := EncodeComputeResponse([]byte{0xaa, 0xbb}, []byte("inputs"))
	require.NoError(t, err)

	proof, pub, err := DecodeComputeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, proof)
	assert.Equal(t, []byte("inputs"), pub)
}

func TestComputeResponse_EmptyFields(t *testing.T) {
	data, err := EncodeComputeResponse(nil, nil)
	require.NoError(t, err)

	proof, pub, err := DecodeComputeResponse(data)
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.Empty(t, pub)
}

func TestDecodeComputeResponse_Garbage(t *testing.T) {
	_, _, err := DecodeComputeResponse(nil)
	assert.ErrorIs(t, err, types.ErrInvalidProofData)

	_, _, err = DecodeComputeResponse([]byte{0x01, 0x02, 0x03})
	assert.ErrorIs(t, err, types.ErrInvalidProofData)
}

func TestCrossChainProof(t *testing.T) {
	in := &types.CrossChainProof{
		ResultRoot:          common.HexToHash("0x1234"),
		TargetSelector:      1007,
		SourceDomain:        "ethereum",
		ProofPayload:        []byte("proof"),
		PublicInputsPayload: []byte("public"),
		CreatedAt:           1700000000,
	}
	data, err := EncodeCrossChainProof(in)
	require.NoError(t, err)

	out, err := DecodeCrossChainProof(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeCrossChainProof_Garbage(t *testing.T) {
	_, err := DecodeCrossChainProof([]byte("not abi"))
	assert.ErrorIs(t, err, types.ErrInvalidProofData)
}

func TestDigests(t *testing.T) {
	assert.Equal(t, crypto.Keccak256Hash([]byte("x")), ResultRoot([]byte("x")))
	assert.Equal(t, crypto.Keccak256Hash([]byte("y")), AggregatedHash([]byte("y")))

	assert.Equal(t, ProofIDsDigest([]uint64{1, 2}), ProofIDsDigest([]uint64{1, 2}))
	assert.NotEqual(t, ProofIDsDigest([]uint64{1, 2}), ProofIDsDigest([]uint64{2, 1}))

	requester := common.HexToAddress("0x01")
	n0 := Nullifier(1, requester, 0)
	assert.NotEqual(t, n0, Nullifier(1, requester, 1))
	assert.NotEqual(t, n0, Nullifier(2, requester, 0))
	assert.NotEqual(t, n0, Nullifier(1, common.HexToAddress("0x02"), 0))

	root := common.HexToHash("0xab")
	assert.NotEqual(t, MessageKey(root, 1, "ethereum"), MessageKey(root, 1, "polygon"))
	assert.Equal(t, MessageKey(root, 1, "ethereum"), MessageKey(root, 1, "ethereum"))
}
