package job

import (
	"Pibno/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

type AvatarCleaner interface {
	CleanupAvatars(ctx context.Context) (int, error)
}

// AvatarCleanupJob 清理已删除用户遗留的头像对象
type AvatarCleanupJob struct {
	cleaner AvatarCleaner
	timeout time.Duration
}

func NewAvatarCleanupJob(cleaner AvatarCleaner) *AvatarCleanupJob {
	return &AvatarCleanupJob{
		cleaner: cleaner,
		timeout: 10 * time.Minute,
	}
}

func (s *AvatarCleanupJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "job-avatar-"+uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.InfoContext(ctx, "start avatar cleanup job")
	count, err := s.cleaner.CleanupAvatars(ctx)
	if err != nil {
		log.ErrorContext(ctx, "avatar cleanup job failed", "err", err)
		return
	}
	if count > 0 {
		log.InfoContext(ctx, "avatar cleanup job finished", "cleaned_count", count)
	}
}
