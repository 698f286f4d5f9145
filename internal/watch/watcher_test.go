package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"opsdeck/internal/contract"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type result struct {
	report *contract.Report
	err    error
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func next(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for check")
		return result{}
	}
}

func TestWatcher_RechecksWhenWorkerAppears(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, contract.DefaultAPIEntrypoint), "// api\n")
	writeFile(t, filepath.Join(root, contract.DefaultManifest), `{"scripts":{
		"dev:api":"a","dev:worker":"b","start:api":"c","start:worker":"d"}}`)

	checker, err := contract.NewChecker(contract.DefaultContract())
	require.NoError(t, err)

	results := make(chan result, 64)
	w, err := New(root, checker, 20*time.Millisecond, func(r *contract.Report, err error) {
		results <- result{r, err}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	first := next(t, results)
	require.NoError(t, first.err)
	require.False(t, first.report.Passed())
	require.Len(t, first.report.Failed(), 1)

	writeFile(t, filepath.Join(root, contract.DefaultWorkerEntrypoint), "// worker\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if r.err == nil && r.report.Passed() {
				w.Stop()
				require.GreaterOrEqual(t, w.Stats().Checks, 2)
				return
			}
		case <-deadline:
			w.Stop()
			t.Fatal("watcher never reported a passing check")
		}
	}
}

func TestWatcher_CreatesMissingSourceDir(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeFile(t, filepath.Join(root, contract.DefaultManifest), `{"scripts":{}}`)

	checker, err := contract.NewChecker(contract.DefaultContract())
	require.NoError(t, err)

	results := make(chan result, 64)
	w, err := New(root, checker, 20*time.Millisecond, func(r *contract.Report, err error) {
		results <- result{r, err}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	first := next(t, results)
	require.Len(t, first.report.Failed(), 6)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	// give the watcher a moment to register the new directory
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, contract.DefaultAPIEntrypoint), "// api\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if a, ok := r.report.Assertion("api entrypoint"); ok && a.Passed {
				return
			}
		case <-deadline:
			t.Fatal("api entrypoint never observed")
		}
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	checker, err := contract.NewChecker(contract.DefaultContract())
	require.NoError(t, err)
	w, err := New(t.TempDir(), checker, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_FailedStartDoesNotBlockStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	checker, err := contract.NewChecker(contract.DefaultContract())
	require.NoError(t, err)
	w, err := New(filepath.Join(t.TempDir(), "missing"), checker, 0, nil)
	require.NoError(t, err)

	err = w.Start(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}
