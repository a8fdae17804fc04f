package observability

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSettlement(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordSettlement("MintA", "buy", true, 0.5)
	m.RecordSettlement("MintA", "buy", false, 1.5)
	m.RecordSettlement("MintA", "buy", true, 0.2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SettlementsTotal.WithLabelValues("MintA", "buy", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SettlementsTotal.WithLabelValues("MintA", "buy", "failed")))
}

func TestRecordMarket_OnePhaseActive(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordMarket("MintA", "markup", 1e-6, 50_000, 100, 2)
	m.RecordMarket("MintA", "euphoria", 2e-6, 90_000, 100, 2)

	if v := testutil.ToFloat64(m.Phase.WithLabelValues("MintA", "markup")); v != 0 {
		t.Errorf("expected previous phase cleared, got %v", v)
	}
	if v := testutil.ToFloat64(m.Phase.WithLabelValues("MintA", "euphoria")); v != 1 {
		t.Errorf("expected current phase set, got %v", v)
	}
	assert.Equal(t, 90_000.0, testutil.ToFloat64(m.MarketCapUSD.WithLabelValues("MintA")))
}

func TestRecordSignal_HoldHasNoConfidence(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordSignal("MintA", "hold", "default_hold", 0)
	m.RecordSignal("MintA", "sell", "stop_loss", 95)

	assert.Equal(t, 1, testutil.CollectAndCount(m.SignalConfidence))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsGenerated.WithLabelValues("MintA", "hold", "default_hold")))
}

func TestRecordDBQuery_Errors(t *testing.T) {
	m := NewMetricsWith("test", prometheus.NewRegistry())

	m.RecordDBQuery("postgres", "insert_execution", 0.01, nil)
	m.RecordDBQuery("postgres", "insert_execution", 0.02, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBQueryErrors.WithLabelValues("postgres", "insert_execution")))
}

func TestHandlerFor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsWith("test", reg)
	m.RecordSkip("MintA", "cooldown")

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_engine_cycle_skips_total{mint="MintA",reason="cooldown"} 1`) {
		t.Errorf("skip counter missing from exposition:\n%s", body)
	}
}
