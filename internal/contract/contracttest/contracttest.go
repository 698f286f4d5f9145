// Package contracttest turns an entrypoint contract check into test assertions.
package contracttest

import (
	"context"
	"errors"
	"testing"

	"opsdeck/internal/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertEntrypoints checks root against c and reports every assertion as its
// own subtest, so a missing worker entrypoint does not hide a missing script.
// A malformed manifest fails the test immediately.
func AssertEntrypoints(t *testing.T, root string, c contract.Contract) *contract.Report {
	t.Helper()

	checker, err := contract.NewChecker(c)
	require.NoError(t, err)

	report, err := checker.Check(context.Background(), root)
	if err != nil && !errors.Is(err, contract.ErrManifestParse) {
		require.NoError(t, err)
	}

	for _, a := range report.Assertions {
		a := a
		t.Run(a.Name, func(t *testing.T) {
			assert.Truef(t, a.Passed, "%s", a.Message)
		})
	}
	require.NoError(t, err, "manifest must parse")
	return report
}
