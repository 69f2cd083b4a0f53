package jobstore

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(slog.New(slog.DiscardHandler))
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	s := newTestStore()

	a := s.Enqueue("add", "111")
	b := s.Enqueue("add", "222")
	c := s.Enqueue("remove", "333")

	assert.Less(t, a, b)
	assert.Less(t, b, c)

	for _, want := range []int64{a, b, c} {
		got, ok := s.Dequeue()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := s.Dequeue()
	assert.False(t, ok, "drained queue must report empty")
}

func TestEnqueueDefaults(t *testing.T) {
	s := newTestStore()

	id := s.Enqueue("add", "123")
	job, ok := s.Get(id)
	require.True(t, ok)

	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, "add", job.Operation)
	assert.Equal(t, "123", job.Subject)
	assert.Empty(t, job.Logs)
	assert.Nil(t, job.Result)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	s := newTestStore()

	assert.False(t, s.UpdateStatus(42, StatusRunning))
	assert.False(t, s.SetResult(42, "x"))
	assert.False(t, s.AppendLog(42, "hello"))
}

func TestStatusAndLogs(t *testing.T) {
	s := newTestStore()
	id := s.Enqueue("add", "123")

	require.True(t, s.UpdateStatus(id, StatusRunning))
	require.True(t, s.AppendLog(id, "first"))
	require.True(t, s.AppendLog(id, "second"))
	require.True(t, s.SetResult(id, map[string]any{"ok": true}))
	require.True(t, s.UpdateStatus(id, StatusCompleted))

	job, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Equal(t, []string{"first", "second"}, job.Logs)
	assert.NotNil(t, job.Result)
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := newTestStore()
	id := s.Enqueue("add", "123")
	s.AppendLog(id, "first")

	snap, ok := s.Get(id)
	require.True(t, ok)

	s.AppendLog(id, "second")
	assert.Len(t, snap.Logs, 1, "snapshot must not see later appends")
}

func TestRecentItemCapacity(t *testing.T) {
	s := newTestStore()

	for i := 1; i <= 4; i++ {
		s.PushRecentItem(RecentItem{ProductID: int64(i), Name: fmt.Sprintf("p%d", i)})
	}

	items := s.RecentItems()
	require.Len(t, items, RecentItemCapacity)
	assert.Equal(t, int64(4), items[0].ProductID, "most recent first")
	assert.Equal(t, int64(2), items[2].ProductID, "oldest beyond capacity evicted")
}

func TestUpdateRecentItem(t *testing.T) {
	s := newTestStore()
	s.PushRecentItem(RecentItem{ProductID: 7, Name: "old name"})

	found := s.UpdateRecentItem(7, RecentItem{Name: "new name", BookingID: "b-1"})
	require.True(t, found)

	items := s.RecentItems()
	assert.Equal(t, "new name", items[0].Name)
	assert.Equal(t, "b-1", items[0].BookingID)

	assert.False(t, s.UpdateRecentItem(99, RecentItem{Name: "x"}))
}

func TestActivityCapacity(t *testing.T) {
	s := newTestStore()

	for i := 1; i <= 60; i++ {
		s.LogActivity(fmt.Sprintf("entry %d", i))
	}

	entries := s.Activity()
	require.Len(t, entries, ActivityCapacity)
	assert.Equal(t, "entry 60", entries[0])
	assert.Equal(t, "entry 11", entries[len(entries)-1])
}

func TestDrainGuard(t *testing.T) {
	s := newTestStore()

	require.True(t, s.TryAcquireDrain())
	assert.False(t, s.TryAcquireDrain(), "second lane must be refused")

	s.ReleaseDrain()
	assert.True(t, s.TryAcquireDrain())
}

func TestReset(t *testing.T) {
	s := newTestStore()

	first := s.Enqueue("add", "111")
	s.PushRecentItem(RecentItem{ProductID: 1})
	s.LogActivity("something")

	s.Reset()

	_, ok := s.Get(first)
	assert.False(t, ok)
	_, ok = s.Dequeue()
	assert.False(t, ok)
	assert.Empty(t, s.RecentItems())
	assert.Empty(t, s.Activity())

	second := s.Enqueue("add", "222")
	assert.Greater(t, second, first, "ids keep increasing across resets")
}
