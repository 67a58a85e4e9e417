package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector("orders.csv")

	for i := 0; i < 3; i++ {
		c.RecordIndexed()
	}
	c.RecordBlankLines(2)
	c.RecordBlankLines(0)
	c.RecordBytesScanned(120)
	c.RecordBytesWritten(300)

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.RecordsIndexed)
	assert.Equal(t, int64(2), snap.BlankLinesSkipped)
	assert.Equal(t, int64(120), snap.BytesScanned)
	assert.Equal(t, int64(300), snap.IndexBytesWritten)
	assert.Zero(t, snap.Runs)
}

func TestCollector_ObserveRun(t *testing.T) {
	c := NewCollector("orders.csv")
	for i := 0; i < 10; i++ {
		c.RecordIndexed()
	}

	c.ObserveRun(2 * time.Second)

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Runs)
	assert.InDelta(t, 2.0, snap.DurationSeconds, 1e-9)
	assert.InDelta(t, 5.0, snap.Throughput, 1e-9)
}

func TestCollector_PrivateRegistries(t *testing.T) {
	a := NewCollector("a.csv")
	b := NewCollector("b.csv")
	a.RecordIndexed()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.recordsIndexed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.recordsIndexed))

	n, err := testutil.GatherAndCount(a.Registry(), fqName(RecordsIndexedName))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	first := timer.Stop()
	assert.GreaterOrEqual(t, first, time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), first)
}
