package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that the captured log output contains every fragment.
func AssertLogged(t *testing.T, logs *SafeBuffer, fragments ...string) {
	t.Helper()

	out := logs.String()
	for _, f := range fragments {
		require.True(t, strings.Contains(out, f), "expected log output to contain %q\n%s", f, out)
	}
}

// DirEntries returns the names of the entries in dir.
func DirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
