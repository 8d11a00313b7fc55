package fetchexec

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmobility/feedsync/pkg/errors"
)

// fakeBinary writes a shell script that records its arguments and exits with
// the given code, and returns its path.
func fakeBinary(t *testing.T, exitCode int) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binary requires a shell")
	}

	dir := t.TempDir()
	binary = filepath.Join(dir, "transitland")
	argsFile = filepath.Join(dir, "args.txt")

	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nexit " + map[int]string{0: "0", 1: "1"}[exitCode] + "\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, argsFile
}

func TestSyncPassesRegistryPath(t *testing.T) {
	binary, argsFile := fakeBinary(t, 0)
	exec := New(binary, "sqlite3://test.db", t.TempDir())

	err := exec.Sync(context.Background(), "feeds/registry.dmfr.json")
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "sync --dburl=sqlite3://test.db feeds/registry.dmfr.json")
}

func TestFetchArgs(t *testing.T) {
	binary, argsFile := fakeBinary(t, 0)
	storage := filepath.Join(t.TempDir(), "archives")
	exec := New(binary, "sqlite3://test.db", storage)

	err := exec.Fetch(context.Background())
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "fetch --dburl=sqlite3://test.db")
	assert.Contains(t, string(args), "--workers 1")
	assert.Contains(t, string(args), "--create-feed")

	info, err := os.Stat(storage)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "storage dir is created before fetching")
}

func TestRunFailureWrapsProcessError(t *testing.T) {
	binary, _ := fakeBinary(t, 1)
	exec := New(binary, "", "")

	err := exec.Sync(context.Background(), "registry.json")
	require.Error(t, err)

	var procErr *errors.ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "sync", procErr.Operation)
	assert.Equal(t, 1, procErr.ExitCode)
}

func TestAvailable(t *testing.T) {
	binary, _ := fakeBinary(t, 0)

	assert.False(t, New("no-such-binary-on-path", "", "").Available())
	assert.True(t, New(binary, "", "").Available())
}
