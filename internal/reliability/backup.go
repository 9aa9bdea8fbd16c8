package reliability

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// BackupService gzips the live sqlite file and uploads it to an S3
// bucket under a timestamped key, adapted from the teacher's
// R2BackupService.CreateAndUploadBackup — same staging-then-upload
// shape, collapsed from a multi-database tar archive down to one
// gzip'd file since this engine keeps a single database (spec §6).
type BackupService struct {
	uploader *manager.Uploader
	bucket   string
	dbPath   string
	log      zerolog.Logger
}

// NewBackupService builds a BackupService uploading snapshots of dbPath
// to bucket via client.
func NewBackupService(client *s3.Client, bucket, dbPath string, log zerolog.Logger) *BackupService {
	return &BackupService{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		dbPath:   dbPath,
		log:      log.With().Str("component", "backup").Logger(),
	}
}

// Run gzips the current database file into a temp staging file and
// uploads it, naming the object by UTC timestamp so successive backups
// never collide and S3 lifecycle rules can expire them by age.
func (s *BackupService) Run(ctx context.Context, now time.Time) error {
	staged, err := s.stage()
	if err != nil {
		return fmt.Errorf("reliability: stage backup: %w", err)
	}
	defer os.Remove(staged)

	f, err := os.Open(staged)
	if err != nil {
		return fmt.Errorf("reliability: open staged backup: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("aegis/%s/aegis-%s.db.gz", now.Format("2006-01-02"), now.Format("20060102T150405Z"))
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   f,
	}); err != nil {
		return fmt.Errorf("reliability: upload backup: %w", err)
	}

	s.log.Info().Str("key", key).Msg("database backup uploaded")
	return nil
}

// BackupJob adapts BackupService to scheduler.Job.
type BackupJob struct {
	svc *BackupService
}

// NewBackupJob wraps svc for scheduler registration.
func NewBackupJob(svc *BackupService) BackupJob { return BackupJob{svc: svc} }

func (j BackupJob) Name() string { return "s3_backup" }

func (j BackupJob) Run() error { return j.svc.Run(context.Background(), time.Now()) }

// stage gzips dbPath into a sibling temp file and returns its path.
func (s *BackupService) stage() (string, error) {
	src, err := os.Open(s.dbPath)
	if err != nil {
		return "", fmt.Errorf("open source database: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(filepath.Dir(s.dbPath), "aegis-backup-*.db.gz")
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("gzip database: %w", err)
	}
	if err := gz.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close gzip writer: %w", err)
	}
	return dst.Name(), nil
}
