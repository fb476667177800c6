package job

import (
	"Pibno/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// SnapshotRefresher 刷新首页快照
type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context) (int, error)
}

// FeedSnapshotJob 定期把最新帖子写入首页兜底快照
type FeedSnapshotJob struct {
	refresher SnapshotRefresher
	timeout   time.Duration
}

func NewFeedSnapshotJob(refresher SnapshotRefresher) *FeedSnapshotJob {
	return &FeedSnapshotJob{
		refresher: refresher,
		timeout:   time.Minute,
	}
}

func (s *FeedSnapshotJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-snapshot-"+uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.refresher.RefreshSnapshot(ctx)
	if err != nil {
		log.ErrorContext(ctx, "feed snapshot job failed", "err", err)
		return
	}
	log.InfoContext(ctx, "feed snapshot job finished", "posts", n)
}
