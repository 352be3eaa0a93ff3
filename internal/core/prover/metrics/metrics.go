// Package metrics 证明编排子系统的 Prometheus 指标
//
// 指标注册到调用方给定的 Registerer（通常是应用级 Registry），不使用全局默认注册表，
// 便于测试中多次创建。所有方法对 nil 接收者安全。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zkrelay"

// Metrics 证明编排指标
type Metrics struct {
	requestsCreated     prometheus.Counter
	randomnessFulfilled prometheus.Counter
	verifications       *prometheus.CounterVec
	foldRounds          *prometheus.CounterVec
	relayMessages       *prometheus.CounterVec
	relayFees           prometheus.Counter
	staleCallbacks      *prometheus.CounterVec
	oracleErrors        *prometheus.CounterVec
}

// New 创建并注册指标
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "requests_created_total",
			Help:      "Total number of proof requests created.",
		}),
		randomnessFulfilled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "randomness_fulfilled_total",
			Help:      "Total number of randomness callbacks that selected a target.",
		}),
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "verifications_total",
			Help:      "Proof request outcomes by result.",
		}, []string{"result"}),
		foldRounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "folding",
			Name:      "rounds_total",
			Help:      "Fold rounds by outcome (dispatched, completed, error).",
		}, []string{"outcome"}),
		relayMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Cross-domain messages by direction.",
		}, []string{"direction"}),
		relayFees: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "fees_spent_total",
			Help:      "Fee token units spent on outbound messages.",
		}),
		staleCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "stale_callbacks_total",
			Help:      "Oracle callbacks dropped as unknown or stale, by phase.",
		}, []string{"phase"}),
		oracleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "oracle_errors_total",
			Help:      "Oracle dispatch failures and error callbacks, by oracle.",
		}, []string{"oracle"}),
	}
}

// RequestCreated 请求已创建
func (m *Metrics) RequestCreated() {
	if m != nil {
		m.requestsCreated.Inc()
	}
}

// RandomnessFulfilled 随机数已落地
func (m *Metrics) RandomnessFulfilled() {
	if m != nil {
		m.randomnessFulfilled.Inc()
	}
}

// Verification 记录验证结论
func (m *Metrics) Verification(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.verifications.WithLabelValues(result).Inc()
}

// FoldRound 记录折叠轮次事件
func (m *Metrics) FoldRound(outcome string) {
	if m != nil {
		m.foldRounds.WithLabelValues(outcome).Inc()
	}
}

// RelayMessage 记录跨域消息；fee 仅对出站有意义
func (m *Metrics) RelayMessage(direction string, fee float64) {
	if m == nil {
		return
	}
	m.relayMessages.WithLabelValues(direction).Inc()
	if fee > 0 {
		m.relayFees.Add(fee)
	}
}

// StaleCallback 记录被丢弃的回调
func (m *Metrics) StaleCallback(phase string) {
	if m != nil {
		m.staleCallbacks.WithLabelValues(phase).Inc()
	}
}

// OracleError 记录预言机失败
func (m *Metrics) OracleError(oracleName string) {
	if m != nil {
		m.oracleErrors.WithLabelValues(oracleName).Inc()
	}
}
