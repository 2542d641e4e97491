package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points the configuration at a fresh directory so that neither the
// user's config file nor a real database is touched.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("STARTERDB_CONFIG", filepath.Join(dir, "missing.json"))
	t.Setenv("STARTERDB_NOTIFY_OUTPUT", "none")
	t.Setenv("STARTERDB_LOG_LEVEL", "error")

	return filepath.Join(dir, "test.db")
}

func runApp(t *testing.T, dbPath string, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := NewApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)

	argv := append([]string{"starterdb", "--db-path", dbPath}, args...)
	err := app.Run(context.Background(), argv)

	return out.String(), err
}

func mustRun(t *testing.T, dbPath string, args ...string) string {
	t.Helper()

	out, err := runApp(t, dbPath, "", args...)
	require.NoError(t, err)

	return out
}
