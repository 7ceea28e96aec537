package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/database"
	"github.com/mkarlis/riskfolio/internal/modules/calculations"
	"github.com/mkarlis/riskfolio/internal/modules/universe"
	"github.com/mkarlis/riskfolio/internal/reliability"
)

// MarketSyncJob refreshes the stored benchmark index history.
type MarketSyncJob struct {
	source *universe.MarketDataSource
	symbol string
	log    zerolog.Logger
}

// NewMarketSyncJob creates the market sync job for one benchmark symbol.
func NewMarketSyncJob(source *universe.MarketDataSource, symbol string, log zerolog.Logger) *MarketSyncJob {
	return &MarketSyncJob{
		source: source,
		symbol: symbol,
		log:    log.With().Str("job", "market_sync").Logger(),
	}
}

func (j *MarketSyncJob) Name() string { return "market_sync" }

func (j *MarketSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return j.source.Sync(ctx, j.symbol)
}

// CachePurgeJob evicts expired calculation cache entries.
type CachePurgeJob struct {
	cache *calculations.Cache
}

// NewCachePurgeJob creates the cache purge job.
func NewCachePurgeJob(cache *calculations.Cache) *CachePurgeJob {
	return &CachePurgeJob{cache: cache}
}

func (j *CachePurgeJob) Name() string { return "cache_purge" }

func (j *CachePurgeJob) Run() error {
	_, err := j.cache.Purge()
	return err
}

// WALCheckpointJob truncates every database's WAL file to keep disk use
// bounded on a long-running server.
type WALCheckpointJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates the WAL checkpoint job.
func NewWALCheckpointJob(databases map[string]*database.DB, log zerolog.Logger) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

func (j *WALCheckpointJob) Run() error {
	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			return err
		}
	}
	return nil
}

// CloudBackupJob archives database snapshots to object storage and
// rotates old archives.
type CloudBackupJob struct {
	backups       *reliability.S3BackupService
	retentionDays int
}

// NewCloudBackupJob creates the cloud backup job.
func NewCloudBackupJob(backups *reliability.S3BackupService, retentionDays int) *CloudBackupJob {
	return &CloudBackupJob{backups: backups, retentionDays: retentionDays}
}

func (j *CloudBackupJob) Name() string { return "cloud_backup" }

func (j *CloudBackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()
	if err := j.backups.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.backups.RotateOldBackups(ctx, j.retentionDays)
}
