package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PurgeAudit deletes audit entries created before cutoff and returns how many were removed.
func PurgeAudit(ctx context.Context, db *sql.DB, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", err)
	}
	return removed, nil
}

// StartAuditCleaner purges audit entries older than retention every interval
// until ctx is cancelled.
func StartAuditCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := PurgeAudit(ctx, db, now.Add(-retention))
				if err != nil {
					log.Error("failed to clean audit log", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned audit log",
						zap.Int64("removed", removed), zap.Duration("retention", retention))
				}
			}
		}
	}()
}
