package service

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"context"
	"time"
)

// Backend 服务层依赖的后端操作，由 *backend.Adapter 实现
type Backend interface {
	OnAuthChange(cb func(*model.User)) func()
	Login(ctx context.Context, identifier, password string) backend.Result[*backend.Session]
	Logout(ctx context.Context, token string) backend.Result[backend.Empty]
	CurrentIdentity(ctx context.Context, token string) backend.Result[*model.User]

	FetchPage(ctx context.Context, limit int, cursor *model.PostCursor) backend.Result[[]*model.Post]
	GetPost(ctx context.Context, id string) backend.Result[*model.Post]
	PostsByAuthor(ctx context.Context, username string, limit int) backend.Result[[]*model.Post]
	AllPosts(ctx context.Context) backend.Result[[]*model.Post]
	CreatePost(ctx context.Context, post *model.Post) backend.Result[string]
	UpdatePost(ctx context.Context, id string, patch *model.PostPatch) backend.Result[backend.Empty]
	DeletePost(ctx context.Context, id string) backend.Result[backend.Empty]

	GetUser(ctx context.Context, id string) backend.Result[*model.User]
	GetUserByUsername(ctx context.Context, username string) backend.Result[*model.User]
	GetUserByEmail(ctx context.Context, email string) backend.Result[*model.User]
	ListUsers(ctx context.Context) backend.Result[[]*model.User]
	ListUsersByRole(ctx context.Context, role string) backend.Result[[]*model.User]
	ListPendingUsers(ctx context.Context) backend.Result[[]*model.User]
	CreateUser(ctx context.Context, user *model.User, password string) backend.Result[string]
	UpdateUser(ctx context.Context, id string, patch *model.UserPatch) backend.Result[backend.Empty]
	ChangePassword(ctx context.Context, id, password string) backend.Result[backend.Empty]
	DeleteUser(ctx context.Context, id string) backend.Result[backend.Empty]
	SetRole(ctx context.Context, id, role string) backend.Result[backend.Empty]

	UploadBlob(ctx context.Context, callerID string, file backend.BlobFile, pathHint string) backend.Result[string]
	ListBlobs(ctx context.Context, prefix string) backend.Result[[]string]
	RemoveBlob(ctx context.Context, objectName string) backend.Result[backend.Empty]
}

var _ Backend = (*backend.Adapter)(nil)

// Cache 键值缓存与分布式锁，由 redis.Store 实现
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	TryLock(ctx context.Context, key, owner string, ttl time.Duration, retryTimes int) (bool, error)
	UnLock(ctx context.Context, key, owner string)
}
