package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/zkrelay/pkg/types"
)

// TestGetEnvironment 测试 GetEnvironment() 方法
func TestGetEnvironment(t *testing.T) {
	t.Run("显式配置 dev", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: types.StringPtr("dev")})
		assert.Equal(t, "dev", provider.GetEnvironment())
	})

	t.Run("未配置时默认为 prod（安全优先）", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{})
		assert.Equal(t, "prod", provider.GetEnvironment())
	})

	t.Run("无效值默认为 prod", func(t *testing.T) {
		provider := NewProvider(&types.AppConfig{Environment: types.StringPtr("invalid")})
		assert.Equal(t, "prod", provider.GetEnvironment())
	})
}

func TestProvider_Defaults(t *testing.T) {
	provider := NewProvider(nil)

	p := provider.GetProver()
	assert.Equal(t, uint64(1000), p.SelectionWindow)
	assert.Equal(t, 2, p.MinProofsPerBatch)
	assert.Equal(t, 10, p.MaxProofsPerBatch)
	assert.Equal(t, uint64(5), p.MaxRecursionDepth)
	assert.Equal(t, common.Address{}, p.Owner)

	u := provider.GetUpkeep()
	assert.False(t, u.Enabled)
	assert.Equal(t, "ethereum", u.DefaultDomain)
	assert.Equal(t, time.Hour, u.Interval)

	r := provider.GetRelay()
	assert.True(t, r.InitialFeeBalance.IsZero())
	assert.Empty(t, r.AllowedDestinations)

	assert.Equal(t, "info", provider.GetLog().Level)
	assert.Equal(t, 256, provider.GetEvent().HistorySize)
}

func TestProvider_UserOverrides(t *testing.T) {
	owner := "0x00000000000000000000000000000000000000a1"
	provider := NewProvider(&types.AppConfig{
		Environment: types.StringPtr("dev"),
		DataDir:     types.StringPtr("/tmp/zkrelay"),
		Prover: &types.UserProverConfig{
			Owner:             types.StringPtr(owner),
			MinProofsPerBatch: types.IntPtr(3),
			MaxRecursionDepth: types.UInt64Ptr(2),
		},
		Relay: &types.UserRelayConfig{
			InitialFeeBalance:   types.StringPtr("1000000"),
			AllowedDestinations: []uint64{42},
			AllowedSources:      []types.UserSourceAllowlistEntry{{Selector: 7, Sender: owner}, {Selector: 8, Sender: "bogus"}},
		},
		Upkeep: &types.UserUpkeepConfig{Interval: types.StringPtr("10m")},
	})

	p := provider.GetProver()
	assert.Equal(t, common.HexToAddress(owner), p.Owner)
	assert.Equal(t, 3, p.MinProofsPerBatch)
	assert.Equal(t, uint64(2), p.MaxRecursionDepth)

	r := provider.GetRelay()
	assert.Equal(t, uint64(1_000_000), r.InitialFeeBalance.Uint64())
	assert.Equal(t, []uint64{42}, r.AllowedDestinations)
	require.Len(t, r.AllowedSources, 1)
	assert.Equal(t, uint64(7), r.AllowedSources[0].Selector)

	assert.Equal(t, 10*time.Minute, provider.GetUpkeep().Interval)
	assert.Equal(t, "debug", provider.GetLog().Level)
	assert.Equal(t, "/tmp/zkrelay/badger", provider.GetBadger().Path)
}

func TestValidateMandatoryConfig(t *testing.T) {
	require.NoError(t, ValidateMandatoryConfig(nil))
	require.NoError(t, ValidateMandatoryConfig(&types.AppConfig{}))

	err := ValidateMandatoryConfig(&types.AppConfig{
		Prover: &types.UserProverConfig{
			Owner:             types.StringPtr("not-an-address"),
			MinProofsPerBatch: types.IntPtr(5),
			MaxProofsPerBatch: types.IntPtr(3),
		},
		Upkeep: &types.UserUpkeepConfig{Interval: types.StringPtr("soon")},
		Relay:  &types.UserRelayConfig{InitialFeeBalance: types.StringPtr("-1")},
	})
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs.Errors, 4)
}
