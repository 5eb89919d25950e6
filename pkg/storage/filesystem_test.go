package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportDirSaveOpenRoundTrip(t *testing.T) {
	dir, err := NewExportDir(t.TempDir())
	require.NoError(t, err)

	rel, err := dir.Save("2026-09/timetable.csv", []byte("day,period\n"))
	require.NoError(t, err)
	require.Equal(t, "2026-09/timetable.csv", rel)

	file, err := dir.Open(rel)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "day,period\n", string(body))
}

func TestExportDirRejectsEscapingPaths(t *testing.T) {
	dir, err := NewExportDir(t.TempDir())
	require.NoError(t, err)

	_, err = dir.Save("../outside.csv", []byte("x"))
	require.Error(t, err)

	_, err = dir.Open("/etc/passwd")
	require.Error(t, err)
}

func TestExportDirCleanupRemovesExpiredFiles(t *testing.T) {
	base := t.TempDir()
	dir, err := NewExportDir(base)
	require.NoError(t, err)

	_, err = dir.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	_, err = dir.Save("fresh.csv", []byte("x"))
	require.NoError(t, err)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(base, "old.csv"), stale, stale))

	deleted, err := dir.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)

	_, err = dir.Open("fresh.csv")
	assert.NoError(t, err)
}
