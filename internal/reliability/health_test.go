package reliability

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/persistence"
)

func TestHealthServiceRunMaintenancePassesOnFreshDatabase(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewHealthService(db, zerolog.Nop())
	require.NoError(t, svc.RunMaintenance(context.Background()))
}

func TestHealthServiceCheckIntegrityOnFreshDatabase(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewHealthService(db, zerolog.Nop())
	require.NoError(t, svc.CheckIntegrity(context.Background()))
}
