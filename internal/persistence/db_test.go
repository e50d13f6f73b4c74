package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/chainflow/internal/agent"
	"github.com/talgya/chainflow/internal/recorder"
)

func testRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()
	cfg := agent.Defaults()
	ret, err := agent.New(1, agent.Retailer, cfg)
	require.NoError(t, err)
	man, err := agent.New(2, agent.Manufacturer, cfg)
	require.NoError(t, err)
	agents := []*agent.Agent{ret, man}

	rec := recorder.New(agents)
	ret.WorkingCapital = 90
	man.WorkingCapital = 115
	rec.Append(1, agents, map[agent.ID]float64{2: 10})
	ret.WorkingCapital = 85
	rec.Append(2, agents, nil)

	rec.OrdersCreated = 4
	rec.OrdersCompleted = 2
	rec.OrdersInfeasible = 1
	return rec
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveRunRoundTrip(t *testing.T) {
	db := openTestDB(t)
	rec := testRecorder(t)

	require.NoError(t, db.SaveRun("run-1", 42, rec))

	n, err := db.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	path, err := db.WorkingCapitalPath("run-1", 1)
	require.NoError(t, err)
	series, _ := rec.SeriesFor(1)
	assert.Equal(t, series.WorkingCapital, path)
}

func TestSaveRunRejectsDuplicateID(t *testing.T) {
	db := openTestDB(t)
	rec := testRecorder(t)

	require.NoError(t, db.SaveRun("run-1", 42, rec))
	assert.Error(t, db.SaveRun("run-1", 42, rec))

	// The failed write must not leave partial series behind.
	path, err := db.WorkingCapitalPath("run-1", 1)
	require.NoError(t, err)
	assert.Len(t, path, 3)
}

func TestSaveMultipleRuns(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveRun("run-1", 42, testRecorder(t)))
	require.NoError(t, db.SaveRun("run-2", 43, testRecorder(t)))

	n, err := db.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWorkingCapitalPathUnknownAgent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveRun("run-1", 42, testRecorder(t)))

	path, err := db.WorkingCapitalPath("run-1", 99)
	require.NoError(t, err)
	assert.Empty(t, path)
}
