package service

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceStoreAndImportCounters(t *testing.T) {
	m := NewMetricsService()

	m.ObserveStoreCall("create", nil, 5*time.Millisecond)
	m.ObserveStoreCall("create", errors.New("down"), 5*time.Millisecond)
	m.RecordImportRecord(true)
	m.RecordImportRecord(true)
	m.RecordImportRecord(false)
	m.RecordImportBatch(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.importRecords.WithLabelValues(ImportOutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importRecords.WithLabelValues(ImportOutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.importBatches.WithLabelValues(ImportOutcomeSuccess)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.storeDuration))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/students", 200, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveStoreCall("list", nil, time.Millisecond)
		m.RecordImportRecord(false)
		m.RecordImportBatch(false)
	})
	assert.Nil(t, m.Registry())
}
