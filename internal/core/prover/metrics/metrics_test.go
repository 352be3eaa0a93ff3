package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue 从注册表中读取计数器值；label 为空时读取无标签计数器
func counterValue(t *testing.T, reg *prometheus.Registry, name, labelValue string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelValue == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == labelValue {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestCreated()
	m.RequestCreated()
	m.Verification(true)
	m.Verification(false)
	m.Verification(false)
	m.FoldRound("completed")
	m.RelayMessage("outbound", 12)
	m.StaleCallback("fold")
	m.OracleError("compute")

	assert.Equal(t, 2.0, counterValue(t, reg, "zkrelay_prover_requests_created_total", ""))
	assert.Equal(t, 1.0, counterValue(t, reg, "zkrelay_prover_verifications_total", "valid"))
	assert.Equal(t, 2.0, counterValue(t, reg, "zkrelay_prover_verifications_total", "invalid"))
	assert.Equal(t, 1.0, counterValue(t, reg, "zkrelay_folding_rounds_total", "completed"))
	assert.Equal(t, 12.0, counterValue(t, reg, "zkrelay_relay_fees_spent_total", ""))
	assert.Equal(t, 1.0, counterValue(t, reg, "zkrelay_prover_stale_callbacks_total", "fold"))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestCreated()
		m.RandomnessFulfilled()
		m.Verification(true)
		m.FoldRound("error")
		m.RelayMessage("inbound", 0)
		m.StaleCallback("compute")
		m.OracleError("randomness")
	})
}
