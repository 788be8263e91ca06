package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RiyadMehdi7/churnvision-cache/logger"
)

func snapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache-snapshot.json")
}

func TestFileRoundTrip(t *testing.T) {
	type report struct {
		Summary string `json:"summary"`
	}
	path := snapshotPath(t)
	adapter := NewFileAdapter(path)
	clock := newFakeClock()

	c1 := New(context.Background(), Config{EnablePersistence: true},
		WithClock(clock), WithAdapter(adapter), WithLogger(logger.NewTestLogger()))
	c1.Set("analysis", report{Summary: "stable"}, time.Hour, PriorityHigh)
	c1.Set("insight", report{Summary: "risk up"}, 30*time.Minute, PriorityLow)
	expiresAt := clock.Now().Add(time.Hour)
	c1.saveSnapshot()
	c1.Destroy()

	// Reconstruct at the same instant: every non-expired entry survives.
	c2 := New(context.Background(), Config{EnablePersistence: true},
		WithClock(clock), WithAdapter(adapter), WithLogger(logger.NewTestLogger()))
	defer c2.Destroy()

	got, ok := Get[report](c2, "analysis")
	require.True(t, ok)
	assert.Equal(t, "stable", got.Summary)

	info, ok := c2.EntryInfo("analysis")
	require.True(t, ok)
	assert.Equal(t, PriorityHigh, info.Priority)
	assert.True(t, expiresAt.Equal(info.ExpiresAt))

	info, ok = c2.EntryInfo("insight")
	require.True(t, ok)
	assert.Equal(t, PriorityLow, info.Priority)
}

func TestLoadDropsExpiredRecords(t *testing.T) {
	path := snapshotPath(t)
	adapter := NewFileAdapter(path)
	clock := newFakeClock()

	c1 := New(context.Background(), Config{EnablePersistence: true},
		WithClock(clock), WithAdapter(adapter), WithLogger(logger.NewTestLogger()))
	c1.Set("short", 1, time.Minute, PriorityMedium)
	c1.Set("long", 2, time.Hour, PriorityMedium)
	c1.saveSnapshot()
	c1.Destroy()

	clock.Advance(30 * time.Minute)
	c2 := New(context.Background(), Config{EnablePersistence: true},
		WithClock(clock), WithAdapter(adapter), WithLogger(logger.NewTestLogger()))
	defer c2.Destroy()

	_, ok := c2.Get("short")
	assert.False(t, ok)
	_, ok = c2.Get("long")
	assert.True(t, ok)
	assert.Equal(t, 1, c2.Stats().TotalEntries)
}

func TestCorruptSnapshotDegradesToEmpty(t *testing.T) {
	path := snapshotPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	log := logger.NewTestLogger()
	c := New(context.Background(), Config{EnablePersistence: true},
		WithClock(newFakeClock()), WithAdapter(NewFileAdapter(path)), WithLogger(log))
	defer c.Destroy()

	assert.Zero(t, c.Stats().TotalEntries)
	var warned bool
	for _, e := range log.Logs() {
		if e.Severity == "WARNING" {
			warned = true
		}
	}
	assert.True(t, warned, "load failure is logged, never surfaced")
}

func TestMissingSnapshotIsEmptyCache(t *testing.T) {
	c := New(context.Background(), Config{EnablePersistence: true},
		WithClock(newFakeClock()),
		WithAdapter(NewFileAdapter(filepath.Join(t.TempDir(), "absent.json"))),
		WithLogger(logger.NewTestLogger()))
	defer c.Destroy()
	assert.Zero(t, c.Stats().TotalEntries)
}

func TestDisabledPersistenceDoesNotLeakAcrossInstances(t *testing.T) {
	path := snapshotPath(t)
	adapter := NewFileAdapter(path)
	clock := newFakeClock()

	c1 := New(context.Background(), Config{EnablePersistence: false},
		WithClock(clock), WithAdapter(adapter), WithLogger(logger.NewTestLogger()))
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		c1.Set(key, key, time.Hour, PriorityMedium)
	}
	c1.Destroy()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "disabled persistence must never write")

	c2 := New(context.Background(), Config{EnablePersistence: false},
		WithClock(clock), WithAdapter(adapter), WithLogger(logger.NewTestLogger()))
	defer c2.Destroy()
	assert.Zero(t, c2.Stats().TotalEntries)
}

func TestAsyncSaveAfterMutation(t *testing.T) {
	path := snapshotPath(t)
	c := New(context.Background(), Config{EnablePersistence: true},
		WithAdapter(NewFileAdapter(path)), WithLogger(logger.NewTestLogger()))
	defer c.Destroy()

	c.Set("k", "v", time.Hour, PriorityMedium)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

func TestSnapshotSkipsUnserializableEntries(t *testing.T) {
	c, _ := newTestCache(t, Config{})
	c.Set("fn", func() {}, time.Hour, PriorityMedium)
	c.Set("ok", "v", time.Hour, PriorityMedium)

	records := c.snapshot()
	require.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].Key)
}

func TestRecordWireFormat(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := Record{
		Key:          "employee-analysis-emp-1",
		Data:         json.RawMessage(`{"score":1}`),
		Timestamp:    ts,
		ExpiresAt:    ts.Add(time.Hour),
		AccessCount:  3,
		LastAccessed: ts.Add(time.Minute),
		Priority:     PriorityHigh,
	}
	buf, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"key": "employee-analysis-emp-1",
		"data": {"score": 1},
		"timestamp": "2025-06-01T12:00:00Z",
		"expiresAt": "2025-06-01T13:00:00Z",
		"accessCount": 3,
		"lastAccessed": "2025-06-01T12:01:00Z",
		"priority": "high"
	}`, string(buf))
}

func TestSQLiteAdapterRoundTrip(t *testing.T) {
	adapter, err := NewSQLiteAdapter(filepath.Join(t.TempDir(), "cache.db"), "insights")
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()
	records, err := adapter.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, records, "fresh namespace has no snapshot")

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	in := []Record{{
		Key:          "k",
		Data:         json.RawMessage(`"v"`),
		Timestamp:    ts,
		ExpiresAt:    ts.Add(time.Hour),
		AccessCount:  1,
		LastAccessed: ts,
		Priority:     PriorityMedium,
	}}
	require.NoError(t, adapter.Save(ctx, in))

	// Saves replace the previous snapshot wholesale.
	in[0].AccessCount = 2
	require.NoError(t, adapter.Save(ctx, in))

	out, err := adapter.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "k", out[0].Key)
	assert.Equal(t, 2, out[0].AccessCount)
	assert.True(t, in[0].ExpiresAt.Equal(out[0].ExpiresAt))
}
