package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := m.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func counterWithLabels(mf *dto.MetricFamily, labels map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		match := true
		for _, lp := range metric.GetLabel() {
			if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
				match = false
			}
		}
		if match {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}

func TestMetrics_Operations(t *testing.T) {
	m := New()
	m.ObserveOp("stake", ResultOK, time.Millisecond)
	m.ObserveOp("stake", ResultOK, time.Millisecond)
	m.ObserveOp("unstake", ResultRejected, time.Millisecond)
	m.AddClaimed(40)
	m.AddClaimed(2)
	m.SetAccounts(3)
	m.IncAccounts()

	mfs := gather(t, m)

	ops := mfs[namespace+"_operations_total"]
	if ops == nil {
		t.Fatal("operations_total not registered")
	}
	if v := counterWithLabels(ops, map[string]string{"op": "stake", "result": "ok"}); v != 2 {
		t.Errorf("stake ok = %v, want 2", v)
	}
	if v := counterWithLabels(ops, map[string]string{"op": "unstake", "result": "rejected"}); v != 1 {
		t.Errorf("unstake rejected = %v, want 1", v)
	}

	hist := mfs[namespace+"_operation_duration_seconds"]
	if hist == nil {
		t.Fatal("operation_duration_seconds not registered")
	}
	var samples uint64
	for _, metric := range hist.GetMetric() {
		samples += metric.GetHistogram().GetSampleCount()
	}
	if samples != 3 {
		t.Errorf("histogram samples = %d, want 3", samples)
	}

	if v := mfs[namespace+"_points_claimed_total"].GetMetric()[0].GetCounter().GetValue(); v != 42 {
		t.Errorf("points_claimed_total = %v, want 42", v)
	}
	if v := mfs[namespace+"_accounts"].GetMetric()[0].GetGauge().GetValue(); v != 4 {
		t.Errorf("accounts = %v, want 4", v)
	}
}

func TestMetrics_RPCCodes(t *testing.T) {
	m := New()
	m.ObserveRPC("stake_deposit", 0)
	m.ObserveRPC("stake_deposit", -32003)

	rpc := gather(t, m)[namespace+"_rpc_requests_total"]
	if v := counterWithLabels(rpc, map[string]string{"method": "stake_deposit", "code": "ok"}); v != 1 {
		t.Errorf("ok = %v, want 1", v)
	}
	if v := counterWithLabels(rpc, map[string]string{"method": "stake_deposit", "code": "-32003"}); v != 1 {
		t.Errorf("-32003 = %v, want 1", v)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOp("stake", ResultOK, time.Second)
	m.AddClaimed(1)
	m.SetAccounts(1)
	m.IncAccounts()
	m.ObserveRPC("x", 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler status = %d, want 404", rec.Code)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveOp("claim", ResultOK, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), namespace+`_operations_total{op="claim",result="ok"} 1`) {
		t.Errorf("exposition missing claim counter:\n%s", body)
	}
}
