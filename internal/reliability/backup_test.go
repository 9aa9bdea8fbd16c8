package reliability

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupServiceStageGzipsDatabaseContents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "aegis.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("fake sqlite contents"), 0o644))

	svc := &BackupService{dbPath: dbPath, log: zerolog.Nop()}
	staged, err := svc.stage()
	require.NoError(t, err)
	defer os.Remove(staged)

	f, err := os.Open(staged)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	contents, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "fake sqlite contents", string(contents))
}
