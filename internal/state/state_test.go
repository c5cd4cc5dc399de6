package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRoundTrip(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	t0 := time.Now().Add(-time.Minute)
	require.NoError(t, db.RecordExecution(ctx, ExecutionRow{MappingID: "m1", FileName: "in.json", FileSize: 10, Status: StatusRejected, Error: "No file selected.", StartedAt: t0}))
	id := NewExecutionID()
	require.NoError(t, db.RecordExecution(ctx, ExecutionRow{ID: id, MappingID: "m1", FileName: "in.json", Status: StatusFailed, HTTPStatus: 500, StartedAt: t0.Add(time.Second), Duration: 1500 * time.Millisecond}))
	// Updating the same id replaces the outcome.
	require.NoError(t, db.RecordExecution(ctx, ExecutionRow{ID: id, MappingID: "m1", Status: StatusSucceeded, HTTPStatus: 200, ResultPath: "/tmp/result.json", StartedAt: t0.Add(time.Second), Duration: 2 * time.Second}))

	rows, err := db.ListExecutions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, StatusSucceeded, rows[0].Status)
	assert.Equal(t, "/tmp/result.json", rows[0].ResultPath)
	assert.Equal(t, 2*time.Second, rows[0].Duration)
	assert.Equal(t, StatusRejected, rows[1].Status)

	sum, err := db.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{StatusSucceeded: 1, StatusRejected: 1}, sum)
}

func TestNilJournal(t *testing.T) {
	var db *DB
	assert.NoError(t, db.RecordExecution(context.Background(), ExecutionRow{}))
	rows, err := db.ListExecutions(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, rows)
	assert.NoError(t, db.Close())
}
