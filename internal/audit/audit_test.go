package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogKeepsNewestFirst(t *testing.T) {
	l := New(DefaultCapacity)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Append(Entry{Action: "first", Timestamp: base})
	l.Append(Entry{Action: "second", Timestamp: base.Add(time.Second)})

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Action)
	assert.Equal(t, "first", entries[1].Action)
}

func TestLogEvictsOldest(t *testing.T) {
	l := New(DefaultCapacity)
	for i := 1; i <= 10; i++ {
		l.Append(Entry{Action: fmt.Sprintf("action-%d", i)})
	}
	require.Equal(t, 10, l.Len())
	assert.Equal(t, "action-1", l.Entries()[9].Action)

	l.Append(Entry{Action: "action-11"})

	entries := l.Entries()
	require.Len(t, entries, 10)
	assert.Equal(t, "action-11", entries[0].Action)
	assert.Equal(t, "action-2", entries[9].Action, "only the oldest entry is evicted")
	for _, e := range entries {
		assert.NotEqual(t, "action-1", e.Action)
	}
}

func TestLogEntriesIsCopy(t *testing.T) {
	l := New(0)
	l.Append(Entry{Action: "kept"})

	entries := l.Entries()
	entries[0].Action = "mutated"

	assert.Equal(t, "kept", l.Entries()[0].Action)
}
