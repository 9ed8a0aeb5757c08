package buildflow

import (
	"context"
	"fmt"
	"time"
)

// DefaultStaleness is how old the last successful remote backup may be
// before a new automatic backup is due.
const DefaultStaleness = 24 * time.Hour

// BackupService drives backup cadence, snapshot production, and the two
// sinks (remote object storage and local downloadable files), and tracks
// last-backup metadata.
type BackupService struct {
	codec     *Codec
	restorer  *RestoreEngine
	transport Transport
	sink      FileSink
	metadata  MetadataStore
	logger    Logger
	clock     Clock
	staleness time.Duration
}

func NewBackupService(codec *Codec, restorer *RestoreEngine, transport Transport, sink FileSink, metadata MetadataStore, logger Logger, clock Clock) *BackupService {
	return &BackupService{
		codec:     codec,
		restorer:  restorer,
		transport: transport,
		sink:      sink,
		metadata:  metadata,
		logger:    logger,
		clock:     clock,
		staleness: DefaultStaleness,
	}
}

// SetStaleness overrides the 24-hour staleness threshold.
func (s *BackupService) SetStaleness(d time.Duration) {
	if d > 0 {
		s.staleness = d
	}
}

// LastBackup returns the recorded last-backup metadata, or nil if no remote
// backup has succeeded yet. An unreadable record counts as no record.
func (s *BackupService) LastBackup() *BackupMetadata {
	m, err := s.metadata.Get()
	if err != nil {
		s.logger.Warn("last-backup record unreadable", "error", err)
		return nil
	}
	return m
}

// IsBackupDue reports whether an automatic backup should run: true when no
// backup has ever succeeded, or when the last one is older than the
// staleness threshold. Pure read, no side effects.
func (s *BackupService) IsBackupDue() bool {
	m := s.LastBackup()
	if m == nil {
		return true
	}
	return s.clock.Now().Sub(m.Date) >= s.staleness
}

// BackupNow creates a snapshot, uploads it to remote storage under the
// backups/ namespace, and records new last-backup metadata. Manual path:
// failures surface to the caller.
func (s *BackupService) BackupNow(ctx context.Context) (*BackupMetadata, error) {
	snap, err := s.codec.Encode(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	data, err := MarshalSnapshot(snap)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("backup-%s.json", s.clock.Now().UTC().Format(DateLayout))
	target, err := s.transport.RequestUploadTarget(ctx, filename, "application/json", "backups")
	if err != nil {
		return nil, fmt.Errorf("negotiating upload: %w", err)
	}
	if err := s.transport.PutBytes(ctx, target.UploadDestination, data, "application/json"); err != nil {
		return nil, fmt.Errorf("uploading snapshot: %w", err)
	}

	backupDate, err := time.Parse(time.RFC3339, snap.BackupDate)
	if err != nil {
		return nil, fmt.Errorf("parsing snapshot date: %w", err)
	}
	m := &BackupMetadata{
		Location:  target.PublicRef,
		Date:      backupDate,
		ItemCount: snap.ItemCount(),
	}
	if err := s.metadata.Set(m); err != nil {
		return nil, fmt.Errorf("recording backup metadata: %w", err)
	}

	s.logger.Info("backup uploaded", "location", m.Location, "items", m.ItemCount)
	return m, nil
}

// RunAutomaticBackup is the scheduled variant of BackupNow. Any failure is
// downgraded to a false return and a log line so a background schedule can
// never crash the host; prior metadata is left untouched and the backup is
// retried on the next due check.
func (s *BackupService) RunAutomaticBackup(ctx context.Context) bool {
	m, err := s.BackupNow(ctx)
	if err != nil {
		s.logger.Error("automatic backup failed", "error", err)
		return false
	}
	s.logger.Info("automatic backup completed", "location", m.Location)
	return true
}

// RunPeriodic checks backup staleness at the given interval (hourly is the
// reference cadence) and runs an automatic backup whenever one is due. One
// check runs immediately on start. The loop exits when ctx is cancelled; an
// abandoned in-flight backup writes no metadata, so nothing is half-done.
func (s *BackupService) RunPeriodic(ctx context.Context, checkInterval time.Duration) {
	check := func() {
		if s.IsBackupDue() {
			s.RunAutomaticBackup(ctx)
		}
	}

	check()
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// ExportToFile creates a snapshot and hands it to the local file sink as a
// date-stamped download. File exports are not tracked as "last backup": they
// deliberately do not reset the staleness timer.
func (s *BackupService) ExportToFile(ctx context.Context) (string, error) {
	snap, err := s.codec.Encode(ctx)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}
	data, err := MarshalSnapshot(snap)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("buildflow-backup-%s.json", s.clock.Now().UTC().Format(DateLayout))
	location, err := s.sink.OfferDownload(data, filename)
	if err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}

	s.logger.Info("backup exported", "location", location, "items", snap.ItemCount())
	return location, nil
}

// ImportFromFile validates raw snapshot bytes and replays them into the
// store. Validation happens strictly before any write: a malformed file
// leaves the store completely untouched.
func (s *BackupService) ImportFromFile(ctx context.Context, raw []byte) error {
	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return err
	}
	if err := s.restorer.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	return nil
}

// RestoreRemote downloads a previously uploaded backup by its storage key
// and replays it into the store.
func (s *BackupService) RestoreRemote(ctx context.Context, key string) error {
	ref, err := s.transport.RequestDownloadTarget(ctx, key)
	if err != nil {
		return fmt.Errorf("negotiating download: %w", err)
	}
	raw, err := s.transport.GetBytes(ctx, ref)
	if err != nil {
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	return s.ImportFromFile(ctx, raw)
}
