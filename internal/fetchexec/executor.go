// Package fetchexec shells out to the external feed-fetch binary that
// downloads feed archives and records their content versions in the store.
// Process invocation lives here so the rest of the system only sees an
// interface it can fake in tests.
package fetchexec

import (
	"context"
	"os"
	"os/exec"

	"github.com/openmobility/feedsync/pkg/constants"
	"github.com/openmobility/feedsync/pkg/errors"
	"github.com/openmobility/feedsync/pkg/logging"
)

// Executor runs the external binary against a registry file and a
// content-version store.
type Executor struct {
	binary     string
	dbURL      string
	storageDir string
}

// New creates an Executor. Empty arguments fall back to defaults.
func New(binary, dbURL, storageDir string) *Executor {
	if binary == "" {
		binary = constants.DefaultExecutorBinary
	}
	if dbURL == "" {
		dbURL = constants.DefaultStoreURL
	}
	if storageDir == "" {
		storageDir = constants.DefaultStorageDir
	}
	return &Executor{binary: binary, dbURL: dbURL, storageDir: storageDir}
}

// Available reports whether the external binary can be found on PATH.
func (e *Executor) Available() bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

// Sync loads the registry file into the store, creating feed rows for every
// entry it contains.
func (e *Executor) Sync(ctx context.Context, registryPath string) error {
	return e.run(ctx, "sync", "sync", "--dburl="+e.dbURL, registryPath)
}

// Fetch downloads every feed in the store and records a content version per
// successful download. Workers are kept at 1 so upstream servers see the
// same polite pacing a browser would.
func (e *Executor) Fetch(ctx context.Context) error {
	if err := os.MkdirAll(e.storageDir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", e.storageDir, err)
	}
	return e.run(ctx, "fetch",
		"fetch",
		"--dburl="+e.dbURL,
		"--storage", e.storageDir,
		"--workers", "1",
		"--create-feed",
		"--allow-local-fetch",
		"--allow-ftp-fetch",
		"--allow-s3-fetch",
	)
}

func (e *Executor) run(ctx context.Context, operation string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ExecutorTimeout)
	defer cancel()

	logger := logging.Ctx(ctx).With().Str("component", "fetchexec").Logger()
	logger.Info().
		Str("binary", e.binary).
		Strs("args", args).
		Msg("Running external fetch command")

	cmd := exec.CommandContext(ctx, e.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return &errors.ProcessError{
			Operation: operation,
			Command:   e.binary,
			Output:    string(output),
			ExitCode:  exitCode,
			Err:       err,
		}
	}

	logger.Debug().
		Str("operation", operation).
		Int("output_bytes", len(output)).
		Msg("External fetch command completed")
	return nil
}
