package wire

import (
	"Pibno/internal/api"
	"Pibno/internal/api/config"
	"Pibno/internal/api/handler"
	"Pibno/internal/backend"
	"Pibno/internal/job"
	"Pibno/internal/pkg/cron"
	"Pibno/internal/pkg/minio"
	"Pibno/internal/pkg/mongo"
	"Pibno/internal/pkg/redis"
	"Pibno/internal/pkg/s3"
	"Pibno/internal/service"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	Backend *backend.Adapter
	CronMgr *cron.Manager
}

// NewBlobStore 按 storage.driver 选择对象存储
func NewBlobStore(ctx context.Context, cfg *config.Config) (backend.BlobStore, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "", "minio":
		store, err := minio.Init(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := s3.Init(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func BuildApplication(db *mongodriver.Database, blobs backend.BlobStore, cfg *config.Config) (*ApplicationContainer, error) {
	postRepo := mongo.NewPostRepo(db)
	userRepo := mongo.NewUserRepo(db)
	store := redis.NewStore()

	adapter := backend.NewAdapter(postRepo, userRepo, blobs, store)

	userService := service.NewUserService(adapter, store, service.UserOptions{
		AvatarMaxBytes: cfg.Upload.AvatarMaxBytes,
		AvatarViewport: float64(cfg.Upload.AvatarViewport),
	})
	postService := service.NewPostService(adapter, store, service.PostOptions{
		PageSize:         cfg.Feed.PageSize,
		SnapshotSize:     cfg.Feed.SnapshotSize,
		BootstrapTimeout: time.Duration(cfg.Feed.BootstrapTimeout) * time.Millisecond,
		SnapshotFile:     cfg.Feed.SnapshotFile,
		MediaMaxBytes:    cfg.Upload.MediaMaxBytes,
	})
	adminService := service.NewAdminService(adapter, service.AdminOptions{
		ProtectedUsername: cfg.Admin.Username,
		DefaultImage:      cfg.Feed.DefaultImage,
	})

	handlers := &api.HandlersGroup{
		UserHandler:  handler.NewUserHandler(userService),
		PostHandler:  handler.NewPostHandler(postService),
		AdminHandler: handler.NewAdminHandler(adminService, postService, cfg.Upload.MediaMaxBytes),
		Identity:     adapter,
	}

	router := api.SetupRouter(handlers, api.RouterOptions{
		TrustedProxies: cfg.Server.TrustedProxies,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	cronMgr := cron.NewCronManager(cfg.Cron,
		job.NewFeedSnapshotJob(postService),
		job.NewAvatarCleanupJob(userService),
	)

	return &ApplicationContainer{
		Router:  router,
		Backend: adapter,
		CronMgr: cronMgr,
	}, nil
}
