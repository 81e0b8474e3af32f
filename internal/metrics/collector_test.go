package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.httpRequestsTotal)
	assert.NotNil(t, collector.httpRequestDuration)
	assert.NotNil(t, collector.llmRequestsTotal)
	assert.NotNil(t, collector.llmRequestDuration)
	assert.NotNil(t, collector.llmTokensUsed)
	assert.NotNil(t, collector.llmCost)
	assert.NotNil(t, collector.domainSearchesTotal)
	assert.NotNil(t, collector.domainAgentConfidence)
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)

	collector.RecordHTTPRequest("GET", "/test", 200, 50*time.Millisecond, 512, 1024)

	newCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.GreaterOrEqual(t, newCount, count)
}

func TestCollector_RecordLLMRequest(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordLLMRequest(
		"deterministic",
		"naming-assistant",
		"success",
		500*time.Millisecond,
		100, // prompt tokens
		50,  // completion tokens
		0.01,
	)

	count := testutil.CollectAndCount(collector.llmRequestsTotal)
	assert.Greater(t, count, 0)

	tokensCount := testutil.CollectAndCount(collector.llmTokensUsed)
	assert.Greater(t, tokensCount, 0)

	costCount := testutil.CollectAndCount(collector.llmCost)
	assert.Greater(t, costCount, 0)
}

func TestCollector_RecordDomainSearch(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDomainSearch("domain-civil-001", "success", 250*time.Millisecond, 0.82)

	count := testutil.CollectAndCount(collector.domainSearchesTotal)
	assert.Greater(t, count, 0)

	confidenceCount := testutil.CollectAndCount(collector.domainAgentConfidence)
	assert.Greater(t, confidenceCount, 0)
}

func TestCollector_RecordDomainRebalance(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDomainRebalance("split")
	collector.RecordDomainRebalance("merge")

	count := testutil.CollectAndCount(collector.domainRebalanceTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordA2AConsultation(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordA2AConsultation("domain-civil-001", "answered")

	count := testutil.CollectAndCount(collector.a2aConsultationsTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordCoordinatorQuery(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordCoordinatorQuery("success")

	count := testutil.CollectAndCount(collector.coordinatorQueriesTotal)
	assert.Greater(t, count, 0)
}

func TestCollector_RecordCacheOperation(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordCacheHit("embedding")
	collector.RecordCacheMiss("embedding")

	hitCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, hitCount, 0)

	missCount := testutil.CollectAndCount(collector.cacheMisses)
	assert.Greater(t, missCount, 0)
}

func TestCollector_RecordDatabaseQuery(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDBQuery("postgres", "SELECT", 20*time.Millisecond)

	count := testutil.CollectAndCount(collector.dbQueryDuration)
	assert.Greater(t, count, 0)
}

func TestCollector_UpdateConnectionPool(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	collector.RecordDBConnections("postgres", 10, 5)

	openCount := testutil.CollectAndCount(collector.dbConnectionsOpen)
	assert.Greater(t, openCount, 0)

	idleCount := testutil.CollectAndCount(collector.dbConnectionsIdle)
	assert.Greater(t, idleCount, 0)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	logger := zap.NewNop()
	collector := NewCollector(nextTestNamespace(), logger)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 1024, 2048)
			collector.RecordLLMRequest("deterministic", "naming-assistant", "success", 500*time.Millisecond, 100, 50, 0.01)
			collector.RecordDomainSearch("domain-civil-001", "success", 10*time.Millisecond, 0.7)
			collector.RecordCacheHit("embedding")
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	httpCount := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, httpCount, 0)

	llmCount := testutil.CollectAndCount(collector.llmRequestsTotal)
	assert.Greater(t, llmCount, 0)

	cacheCount := testutil.CollectAndCount(collector.cacheHits)
	assert.Greater(t, cacheCount, 0)
}

func TestCollector_MetricsRegistration(t *testing.T) {
	logger := zap.NewNop()

	registry := prometheus.NewRegistry()

	collector := NewCollector(nextTestNamespace(), logger)

	registry.MustRegister(collector.httpRequestsTotal)
	registry.MustRegister(collector.httpRequestDuration)

	collector.RecordHTTPRequest("GET", "/test", 200, 100*time.Millisecond, 0, 0)

	count := testutil.CollectAndCount(collector.httpRequestsTotal)
	assert.Greater(t, count, 0)
}
