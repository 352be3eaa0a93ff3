package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitypes "github.com/weisyn/zkrelay/internal/api/http/types"
	apiconfig "github.com/weisyn/zkrelay/internal/config/api"
	logimpl "github.com/weisyn/zkrelay/internal/core/infrastructure/log"
	"github.com/weisyn/zkrelay/internal/core/prover/journal"
	metricsiface "github.com/weisyn/zkrelay/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/zkrelay/pkg/types"
)

const requesterHex = "0x0000000000000000000000000000000000001111"

type fakeRequests struct {
	created []string
	items   map[uint64]*types.ProofRequest
	err     error
}

func (f *fakeRequests) Create(_ context.Context, _ common.Address, domain string, _ uint64) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, domain)
	return uint64(len(f.created)), nil
}

func (f *fakeRequests) Get(id uint64) (*types.ProofRequest, error) {
	if req, ok := f.items[id]; ok {
		return req, nil
	}
	return nil, types.WrapNotFound("request", id)
}

func (f *fakeRequests) Count() uint64 { return uint64(len(f.items)) }

func (f *fakeRequests) List(offset, limit uint64) []*types.ProofRequest {
	var out []*types.ProofRequest
	for id := offset + 1; id <= offset+limit; id++ {
		if req, ok := f.items[id]; ok {
			out = append(out, req)
		}
	}
	return out
}

type fakeBatches struct {
	createErr   error
	continueErr error
}

func (f *fakeBatches) CreateBatch(context.Context, common.Address, []uint64) (uint64, error) {
	return 1, f.createErr
}

func (f *fakeBatches) ContinueFolding(context.Context, uint64, common.Address) error {
	return f.continueErr
}

func (f *fakeBatches) VerifyFold(_ uint64, candidate []byte) (bool, error) {
	return bytes.Equal(candidate, []byte{0xab}), nil
}

func (f *fakeBatches) GetBatch(id uint64) (*types.NovaBatch, error) {
	return &types.NovaBatch{ID: id, ProofIDs: []uint64{1, 2}}, nil
}

type fakeRelay struct {
	sendErr error
}

func (f *fakeRelay) Send(context.Context, *types.SendRequest) (types.MessageID, error) {
	return "msg-1", f.sendErr
}

func (f *fakeRelay) IsCrossDomainVerified(root common.Hash) bool { return root == common.HexToHash("0x01") }
func (f *fakeRelay) FeeBalance() *uint256.Int                    { return uint256.NewInt(42) }
func (f *fakeRelay) FeeToken() common.Address                    { return common.HexToAddress("0xfee") }

type fakeJournal struct{}

func (fakeJournal) List(_ context.Context, t types.EventType, _ int) ([]journal.Record, error) {
	return []journal.Record{{Seq: 1, Type: t, Timestamp: time.Unix(0, 0), Payload: json.RawMessage(`{}`)}}, nil
}

type harness struct {
	requests *fakeRequests
	batches  *fakeBatches
	relay    *fakeRelay
	handler  http.Handler
}

func newHarness(t *testing.T, withJournal bool) *harness {
	t.Helper()
	h := &harness{
		requests: &fakeRequests{items: map[uint64]*types.ProofRequest{
			1: {ID: 1, SourceDomain: "ethereum", Completed: true, Valid: true},
			2: {ID: 2, SourceDomain: "polygon"},
		}},
		batches: &fakeBatches{},
		relay:   &fakeRelay{},
	}
	reg := prometheus.NewRegistry()
	svc := Services{
		Requests:   h.requests,
		Batches:    h.batches,
		Relay:      h.relay,
		Gatherer:   reg,
		Registerer: reg,
		Version:    "test",
	}
	if withJournal {
		svc.Events = fakeJournal{}
	}
	opts := apiconfig.New(nil).GetOptions()
	h.handler = NewServer(opts, svc, logimpl.NewNop()).Handler()
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	detail, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error object: %v", body)
	return detail["code"].(string)
}

func TestRequests(t *testing.T) {
	h := newHarness(t, false)

	rec, body := h.do(t, http.MethodPost, "/v1/requests",
		`{"requester":"`+requesterHex+`","source_domain":"ethereum","target_selector":5}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["request_id"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, body = h.do(t, http.MethodPost, "/v1/requests", `{"requester":"nope","source_domain":"ethereum"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apitypes.ErrInvalidArgument, errorCode(t, body))

	h.requests.err = types.WrapOracleError("create.randomness", assert.AnError)
	rec, body = h.do(t, http.MethodPost, "/v1/requests", `{"requester":"`+requesterHex+`","source_domain":"ethereum"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, apitypes.ErrOracle, errorCode(t, body))

	rec, body = h.do(t, http.MethodGet, "/v1/requests/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ethereum", body["data"].(map[string]interface{})["source_domain"])

	rec, body = h.do(t, http.MethodGet, "/v1/requests/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apitypes.ErrNotFound, errorCode(t, body))

	rec, _ = h.do(t, http.MethodGet, "/v1/requests/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = h.do(t, http.MethodGet, "/v1/requests?offset=0&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := body["data"].(map[string]interface{})
	assert.Len(t, page["items"], 2)
	assert.Equal(t, float64(2), page["page"].(map[string]interface{})["total"])
}

func TestBatches(t *testing.T) {
	h := newHarness(t, false)

	rec, _ := h.do(t, http.MethodPost, "/v1/batches", `{"requester":"`+requesterHex+`","proof_ids":[1,2]}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	h.batches.createErr = types.WrapAlreadyBatched(1, 3)
	rec, body := h.do(t, http.MethodPost, "/v1/batches", `{"requester":"`+requesterHex+`","proof_ids":[1,2]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apitypes.ErrAlreadyBatched, errorCode(t, body))

	h.batches.createErr = types.ErrCountOutOfRange
	rec, _ = h.do(t, http.MethodPost, "/v1/batches", `{"requester":"`+requesterHex+`","proof_ids":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.batches.continueErr = types.WrapUnauthorized("continue_folding")
	rec, body = h.do(t, http.MethodPost, "/v1/batches/1/continue", `{"requester":"`+requesterHex+`"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apitypes.ErrPermissionDenied, errorCode(t, body))

	rec, body = h.do(t, http.MethodPost, "/v1/batches/1/verify", `{"proof":"0xab"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["data"].(map[string]interface{})["match"])

	rec, _ = h.do(t, http.MethodGet, "/v1/batches/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRelay(t *testing.T) {
	h := newHarness(t, false)
	send := `{"destination":2,"receiver":"` + requesterHex + `","result_root":"0x` + strings.Repeat("0", 63) + `1","proof":"0x01","public_inputs":"0x02"}`

	rec, body := h.do(t, http.MethodPost, "/v1/relay/send", send)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "msg-1", body["data"].(map[string]interface{})["message_id"])

	h.relay.sendErr = types.ErrNotLocallyVerified
	rec, body = h.do(t, http.MethodPost, "/v1/relay/send", send)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apitypes.ErrNotLocallyVerified, errorCode(t, body))

	h.relay.sendErr = types.ErrInsufficientBalance
	rec, _ = h.do(t, http.MethodPost, "/v1/relay/send", send)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec, body = h.do(t, http.MethodGet, "/v1/relay/fees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", body["data"].(map[string]interface{})["balance"])

	rec, body = h.do(t, http.MethodGet, "/v1/relay/verified/0x"+strings.Repeat("0", 63)+"1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["data"].(map[string]interface{})["cross_domain_verified"])

	rec, _ = h.do(t, http.MethodGet, "/v1/relay/verified/0x1234", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents(t *testing.T) {
	h := newHarness(t, false)
	rec, _ := h.do(t, http.MethodGet, "/v1/events/prover.verified", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h = newHarness(t, true)
	rec, _ = h.do(t, http.MethodGet, "/v1/events/bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := h.do(t, http.MethodGet, "/v1/events/prover.verified?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, false)

	rec, body := h.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])

	_, _ = h.do(t, http.MethodGet, "/v1/requests/1", "")
	rec, _ = h.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `zkrelay_api_requests_total{method="GET",route="/v1/requests/:id",status="200"}`)
}

type fakeStats struct{}

func (fakeStats) CollectAll() []metricsiface.ModuleMemoryStats {
	return []metricsiface.ModuleMemoryStats{{Module: "prover.registry", Objects: 3, QueueLength: 1}}
}

func TestDiagnostics(t *testing.T) {
	opts := apiconfig.New(nil).GetOptions()
	h := &harness{}
	h.handler = NewServer(opts, Services{Version: "test", Stats: fakeStats{}}, logimpl.NewNop()).Handler()

	rec, _ := h.do(t, http.MethodGet, "/debug/memory", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	opts.EnableDebug = true
	h.handler = NewServer(opts, Services{Version: "test", Stats: fakeStats{}}, logimpl.NewNop()).Handler()

	rec, body := h.do(t, http.MethodGet, "/debug/memory", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	modules := data["modules"].([]interface{})
	require.Len(t, modules, 1)
	assert.Equal(t, "prover.registry", modules[0].(map[string]interface{})["module"])
	assert.Greater(t, data["process"].(map[string]interface{})["goroutines"].(float64), float64(0))

	rec, body = h.do(t, http.MethodPost, "/debug/memory/gc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["data"], "freed_mb")

	// 健康检查同样带出模块统计
	_, body = h.do(t, http.MethodGet, "/healthz", "")
	assert.Contains(t, body["components"], "prover.registry")
}
