package contract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullManifest = `{
  "scripts": {
    "dev:api": "node --watch src/start-api.js",
    "dev:worker": "node --watch src/start-worker.js",
    "start:api": "node src/start-api.js",
    "start:worker": "node src/start-worker.js"
  }
}`

type fixture struct {
	api, worker bool
	manifest    string
	manifestAt  string
}

func buildServer(t *testing.T, f fixture) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	if f.api {
		require.NoError(t, os.WriteFile(filepath.Join(root, DefaultAPIEntrypoint), []byte("// api\n"), 0644))
	}
	if f.worker {
		require.NoError(t, os.WriteFile(filepath.Join(root, DefaultWorkerEntrypoint), []byte("// worker\n"), 0644))
	}
	if f.manifest != "" {
		name := f.manifestAt
		if name == "" {
			name = DefaultManifest
		}
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(f.manifest), 0644))
	}
	return root
}

func check(t *testing.T, root string) (*Report, error) {
	t.Helper()
	checker, err := NewChecker(DefaultContract())
	require.NoError(t, err)
	return checker.Check(context.Background(), root)
}

type outcome struct {
	Name   string
	Passed bool
}

func outcomes(r *Report) []outcome {
	out := make([]outcome, len(r.Assertions))
	for i, a := range r.Assertions {
		out[i] = outcome{a.Name, a.Passed}
	}
	return out
}

func TestCheck_CompleteServerPasses(t *testing.T) {
	root := buildServer(t, fixture{api: true, worker: true, manifest: fullManifest})

	report, err := check(t, root)
	require.NoError(t, err)

	want := []outcome{
		{"api entrypoint", true},
		{"worker entrypoint", true},
		{"script dev:api", true},
		{"script dev:worker", true},
		{"script start:api", true},
		{"script start:worker", true},
	}
	if diff := cmp.Diff(want, outcomes(report)); diff != "" {
		t.Errorf("assertions mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, report.Passed())
	assert.Empty(t, report.Failed())
	assert.NotEmpty(t, report.ID)
}

func TestCheck_MissingWorkerFailsOnlyWorkerAssertion(t *testing.T) {
	root := buildServer(t, fixture{api: true, manifest: fullManifest})

	report, err := check(t, root)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "worker entrypoint", failed[0].Name)
	assert.Contains(t, failed[0].Message, DefaultWorkerEntrypoint)

	var mf *MissingFileError
	require.True(t, errors.As(failed[0].Err, &mf))
	assert.Equal(t, DefaultWorkerEntrypoint, mf.Path)
	assert.ErrorIs(t, failed[0].Err, ErrMissingFile)
}

func TestCheck_MissingAndEmptyScriptsReportedIndependently(t *testing.T) {
	root := buildServer(t, fixture{api: true, worker: true, manifest: `{
  "scripts": {
    "dev:api": "node src/start-api.js",
    "start:api": "   ",
    "start:worker": "node src/start-worker.js"
  }
}`})

	report, err := check(t, root)
	require.NoError(t, err)

	want := []outcome{
		{"api entrypoint", true},
		{"worker entrypoint", true},
		{"script dev:api", true},
		{"script dev:worker", false},
		{"script start:api", false},
		{"script start:worker", true},
	}
	if diff := cmp.Diff(want, outcomes(report)); diff != "" {
		t.Errorf("assertions mismatch (-want +got):\n%s", diff)
	}

	a, ok := report.Assertion("script start:api")
	require.True(t, ok)
	assert.ErrorIs(t, a.Err, ErrMissingScript)
	assert.Contains(t, a.Message, `"start:api"`)
}

func TestCheck_FileAndScriptFailuresDoNotMask(t *testing.T) {
	root := buildServer(t, fixture{manifest: `{"scripts": {}}`})

	report, err := check(t, root)
	require.NoError(t, err)
	assert.Len(t, report.Failed(), 6)
}

func TestCheck_MalformedManifestFailsFast(t *testing.T) {
	root := buildServer(t, fixture{api: true, worker: true, manifest: `{"scripts": {"dev:api": `})

	report, err := check(t, root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestParse)
	require.NotNil(t, report)

	for _, a := range report.Assertions {
		switch a.Kind {
		case KindFile:
			assert.True(t, a.Passed, a.Name)
		case KindScript:
			assert.False(t, a.Passed, a.Name)
			assert.ErrorIs(t, a.Err, ErrManifestParse)
			assert.NotErrorIs(t, a.Err, ErrMissingScript)
		}
	}
}

func TestCheck_NonStringScriptIsParseError(t *testing.T) {
	root := buildServer(t, fixture{api: true, worker: true, manifest: `{"scripts": {"dev:api": 42}}`})

	_, err := check(t, root)
	assert.ErrorIs(t, err, ErrManifestParse)
}

func TestCheck_UnrelatedManifestFieldsAreIgnored(t *testing.T) {
	manifest := `{
  "name": 1,
  "scripts": {
    "lint": ["eslint", "."],
    "dev:api": "a", "dev:worker": "b", "start:api": "c", "start:worker": "d"
  }
}`
	root := buildServer(t, fixture{api: true, worker: true, manifest: manifest})

	report, err := check(t, root)
	require.NoError(t, err)
	assert.True(t, report.Passed())
}

func TestCheck_NullManifestIsParseError(t *testing.T) {
	root := buildServer(t, fixture{api: true, worker: true, manifest: `null`})

	report, err := check(t, root)
	assert.ErrorIs(t, err, ErrManifestParse)
	require.NotNil(t, report)
	for _, a := range report.Failed() {
		assert.NotErrorIs(t, a.Err, ErrMissingScript, a.Name)
	}
	assert.Len(t, report.Failed(), 4)
}

func TestCheck_MissingManifestIsParseError(t *testing.T) {
	root := buildServer(t, fixture{api: true, worker: true})

	report, err := check(t, root)
	assert.ErrorIs(t, err, ErrManifestParse)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Len(t, report.Failed(), 4)
}

func TestCheck_DirectoryIsNotAnEntrypoint(t *testing.T) {
	root := buildServer(t, fixture{worker: true, manifest: fullManifest})
	require.NoError(t, os.MkdirAll(filepath.Join(root, DefaultAPIEntrypoint), 0755))

	report, err := check(t, root)
	require.NoError(t, err)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "api entrypoint", failed[0].Name)
}

func TestCheck_YAMLManifest(t *testing.T) {
	c := DefaultContract()
	c.Manifest = "package.yaml"
	root := buildServer(t, fixture{api: true, worker: true, manifestAt: "package.yaml", manifest: `
name: server
scripts:
  dev:api: node --watch src/start-api.js
  dev:worker: node --watch src/start-worker.js
  start:api: node src/start-api.js
  start:worker: node src/start-worker.js
`})

	checker, err := NewChecker(c)
	require.NoError(t, err)
	report, err := checker.Check(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, report.Passed())
}

func TestCheck_RequiresRoot(t *testing.T) {
	_, err := check(t, "")
	assert.Error(t, err)
}

func TestCheck_CancelledContext(t *testing.T) {
	checker, err := NewChecker(DefaultContract())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = checker.Check(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewChecker_RejectsMalformedContract(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Contract)
	}{
		{"empty manifest", func(c *Contract) { c.Manifest = "" }},
		{"absolute entrypoint", func(c *Contract) { c.APIEntrypoint = "/srv/start-api.js" }},
		{"duplicate script", func(c *Contract) { c.Scripts = append(c.Scripts, "dev:api") }},
		{"blank script", func(c *Contract) { c.Scripts = append(c.Scripts, " ") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultContract()
			tt.mutate(&c)
			_, err := NewChecker(c)
			assert.Error(t, err)
		})
	}
}
