package cron

import (
	"Pibno/internal/api/config"
	"Pibno/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine           *cron.Cron
	cfg              config.CronConfig
	feedSnapshotJob  *job.FeedSnapshotJob
	avatarCleanupJob *job.AvatarCleanupJob
}

func NewCronManager(cfg config.CronConfig, feedSnapshotJob *job.FeedSnapshotJob, avatarCleanupJob *job.AvatarCleanupJob) *Manager {
	return &Manager{
		engine:           cron.New(cron.WithSeconds()),
		cfg:              cfg,
		feedSnapshotJob:  feedSnapshotJob,
		avatarCleanupJob: avatarCleanupJob,
	}
}

// RegisterJobs 注册定时任务，表达式为空的任务不启用
func (s *Manager) RegisterJobs() error {
	jobs := []struct {
		name string
		spec string
		job  cron.Job
	}{
		{"feed_snapshot", s.cfg.FeedSnapshot, s.feedSnapshotJob},
		{"avatar_cleanup", s.cfg.AvatarCleanup, s.avatarCleanupJob},
	}
	for _, j := range jobs {
		if j.spec == "" {
			log.Warn("cron job disabled", "job", j.name)
			continue
		}
		if _, err := s.engine.AddJob(j.spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(j.job)); err != nil {
			return err
		}
		log.Info("cron job registered", "job", j.name, "spec", j.spec)
	}
	return nil
}

// Entries 已注册的任务数
func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
