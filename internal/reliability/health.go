// Package reliability guards the single sqlite database against
// corruption and loss: periodic integrity checks, WAL checkpointing,
// and offsite backups to S3. Adapted from the teacher's tiered
// multi-database health/backup services (internal/reliability's
// DatabaseHealthService and BackupService in the teacher's nested
// trader/ tree) down to the one database this engine keeps (spec §6).
package reliability

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/aegis/internal/persistence"
	"github.com/aristath/aegis/internal/utils"
)

// HealthService runs sqlite's own corruption detection and WAL
// maintenance against the engine's database, grounded on the teacher's
// DatabaseHealthService.checkIntegrity/attemptWALRecovery pair, reduced
// to the two checks that matter for a single WAL-mode database: does
// PRAGMA integrity_check still pass, and has the WAL file been
// checkpointed back into the main database file.
type HealthService struct {
	db  *persistence.DB
	log zerolog.Logger
}

// NewHealthService builds a HealthService over db.
func NewHealthService(db *persistence.DB, log zerolog.Logger) *HealthService {
	return &HealthService{db: db, log: log.With().Str("component", "db_health").Logger()}
}

// CheckIntegrity runs PRAGMA integrity_check and returns an error if
// sqlite reports anything other than "ok".
func (s *HealthService) CheckIntegrity(ctx context.Context) error {
	var result string
	if err := s.db.Conn().QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("reliability: integrity check query: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("reliability: integrity check failed: %s", result)
	}
	return nil
}

// Checkpoint folds the WAL file back into the main database file,
// bounding WAL growth the way the teacher's maintenance jobs did on a
// schedule rather than waiting for sqlite's automatic checkpoint.
func (s *HealthService) Checkpoint(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return fmt.Errorf("reliability: wal checkpoint: %w", err)
	}
	return nil
}

// RunMaintenance performs the integrity check first, then the
// checkpoint, matching the teacher's daily maintenance job's ordering
// (verify before compacting, since checkpointing a corrupted WAL can
// make data unrecoverable).
func (s *HealthService) RunMaintenance(ctx context.Context) error {
	defer utils.OperationTimer("db_maintenance", s.log)()

	if err := s.CheckIntegrity(ctx); err != nil {
		s.log.Error().Err(err).Msg("database integrity check failed, skipping checkpoint")
		return err
	}
	if err := s.Checkpoint(ctx); err != nil {
		s.log.Error().Err(err).Msg("wal checkpoint failed")
		return err
	}
	s.log.Info().Msg("database maintenance completed")
	return nil
}

// MaintenanceJob adapts HealthService to scheduler.Job.
type MaintenanceJob struct {
	svc *HealthService
}

// NewMaintenanceJob wraps svc for scheduler registration.
func NewMaintenanceJob(svc *HealthService) MaintenanceJob { return MaintenanceJob{svc: svc} }

func (j MaintenanceJob) Name() string { return "db_maintenance" }

func (j MaintenanceJob) Run() error { return j.svc.RunMaintenance(context.Background()) }
