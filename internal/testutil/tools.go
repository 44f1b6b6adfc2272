package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// FakeTool writes an executable shell script named name into dir and returns
// its absolute path. body is placed after the "#!/bin/sh" line.
func FakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

// NamedPlotScript emulates RNAplot/RNAfold naming: it echoes every input line
// to stdout and writes "<name><suffix>" for each ">name" record, or
// "<fallback>" when no record is named.
const NamedPlotScript = `named=0
while IFS= read -r line; do
  case "$line" in
    ">"*) name="${line#>}"; named=1; echo "plot $name" > "${name}_ss.ps" ;;
  esac
  echo "$line"
done
if [ "$named" = 0 ]; then echo "plot" > rna.ps; fi`
