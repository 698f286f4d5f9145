package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"opsdeck/internal/contract"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func report(id string, at time.Time, workerPassed bool) *contract.Report {
	worker := contract.Assertion{Name: "worker entrypoint", Kind: contract.KindFile, Target: contract.DefaultWorkerEntrypoint, Passed: workerPassed}
	if !workerPassed {
		worker.Message = "entrypoint file src/start-worker.js does not exist"
	}
	return &contract.Report{
		ID:        id,
		Root:      "/srv/app",
		Contract:  contract.DefaultContract(),
		CheckedAt: at,
		Duration:  3 * time.Millisecond,
		Assertions: []contract.Assertion{
			{Name: "api entrypoint", Kind: contract.KindFile, Target: contract.DefaultAPIEntrypoint, Passed: true},
			worker,
			{Name: "script dev:api", Kind: contract.KindScript, Target: "dev:api", Passed: true},
		},
	}
}

func TestHistoryStore_RecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := report("run-1", time.Unix(1700000000, 42), false)
	require.NoError(t, s.Record(ctx, want))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.IgnoreFields(contract.Assertion{}, "Err"),
		cmpopts.EquateApproxTime(0),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryStore_RecordIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := report("run-1", time.Now(), true)
	require.NoError(t, s.Record(ctx, r))
	require.NoError(t, s.Record(ctx, r))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Assertions, 3)
}

func TestHistoryStore_RecentNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.Record(ctx, report("old", base.Add(-time.Hour), true)))
	require.NoError(t, s.Record(ctx, report("new", base, false)))

	runs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.False(t, runs[0].Passed)
	assert.Equal(t, 1, runs[0].Failed)
	assert.Equal(t, 3, runs[0].Total)
	assert.Equal(t, "old", runs[1].ID)
	assert.True(t, runs[1].Passed)

	runs, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHistoryStore_GetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestHistoryStore_PruneAndPurge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Record(ctx, report("a", now.Add(-48*time.Hour), true)))
	require.NoError(t, s.Record(ctx, report("b", now.Add(-time.Hour), true)))
	require.NoError(t, s.Record(ctx, report("c", now, true)))

	n, err := s.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrRunNotFound)

	n, err = s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	var orphans int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM check_assertions`).Scan(&orphans))
	assert.Zero(t, orphans)
}
