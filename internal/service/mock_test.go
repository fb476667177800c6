package service

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
	authCallbacks []func(*model.User)
}

func (m *MockBackend) OnAuthChange(cb func(*model.User)) func() {
	m.authCallbacks = append(m.authCallbacks, cb)
	return func() {}
}

func (m *MockBackend) Login(ctx context.Context, identifier, password string) backend.Result[*backend.Session] {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(backend.Result[*backend.Session])
}

func (m *MockBackend) Logout(ctx context.Context, token string) backend.Result[backend.Empty] {
	args := m.Called(ctx, token)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) CurrentIdentity(ctx context.Context, token string) backend.Result[*model.User] {
	args := m.Called(ctx, token)
	return args.Get(0).(backend.Result[*model.User])
}

func (m *MockBackend) FetchPage(ctx context.Context, limit int, cursor *model.PostCursor) backend.Result[[]*model.Post] {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).(backend.Result[[]*model.Post])
}

func (m *MockBackend) GetPost(ctx context.Context, id string) backend.Result[*model.Post] {
	args := m.Called(ctx, id)
	return args.Get(0).(backend.Result[*model.Post])
}

func (m *MockBackend) PostsByAuthor(ctx context.Context, username string, limit int) backend.Result[[]*model.Post] {
	args := m.Called(ctx, username, limit)
	return args.Get(0).(backend.Result[[]*model.Post])
}

func (m *MockBackend) AllPosts(ctx context.Context) backend.Result[[]*model.Post] {
	args := m.Called(ctx)
	return args.Get(0).(backend.Result[[]*model.Post])
}

func (m *MockBackend) CreatePost(ctx context.Context, post *model.Post) backend.Result[string] {
	args := m.Called(ctx, post)
	return args.Get(0).(backend.Result[string])
}

func (m *MockBackend) UpdatePost(ctx context.Context, id string, patch *model.PostPatch) backend.Result[backend.Empty] {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) DeletePost(ctx context.Context, id string) backend.Result[backend.Empty] {
	args := m.Called(ctx, id)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) GetUser(ctx context.Context, id string) backend.Result[*model.User] {
	args := m.Called(ctx, id)
	return args.Get(0).(backend.Result[*model.User])
}

func (m *MockBackend) GetUserByEmail(ctx context.Context, email string) backend.Result[*model.User] {
	args := m.Called(ctx, email)
	return args.Get(0).(backend.Result[*model.User])
}

func (m *MockBackend) GetUserByUsername(ctx context.Context, username string) backend.Result[*model.User] {
	args := m.Called(ctx, username)
	return args.Get(0).(backend.Result[*model.User])
}

func (m *MockBackend) ListUsers(ctx context.Context) backend.Result[[]*model.User] {
	args := m.Called(ctx)
	return args.Get(0).(backend.Result[[]*model.User])
}

func (m *MockBackend) ListUsersByRole(ctx context.Context, role string) backend.Result[[]*model.User] {
	args := m.Called(ctx, role)
	return args.Get(0).(backend.Result[[]*model.User])
}

func (m *MockBackend) ListPendingUsers(ctx context.Context) backend.Result[[]*model.User] {
	args := m.Called(ctx)
	return args.Get(0).(backend.Result[[]*model.User])
}

func (m *MockBackend) CreateUser(ctx context.Context, user *model.User, password string) backend.Result[string] {
	args := m.Called(ctx, user, password)
	return args.Get(0).(backend.Result[string])
}

func (m *MockBackend) UpdateUser(ctx context.Context, id string, patch *model.UserPatch) backend.Result[backend.Empty] {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) ChangePassword(ctx context.Context, id, password string) backend.Result[backend.Empty] {
	args := m.Called(ctx, id, password)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) DeleteUser(ctx context.Context, id string) backend.Result[backend.Empty] {
	args := m.Called(ctx, id)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) SetRole(ctx context.Context, id, role string) backend.Result[backend.Empty] {
	args := m.Called(ctx, id, role)
	return args.Get(0).(backend.Result[backend.Empty])
}

func (m *MockBackend) UploadBlob(ctx context.Context, callerID string, file backend.BlobFile, pathHint string) backend.Result[string] {
	args := m.Called(ctx, callerID, file, pathHint)
	return args.Get(0).(backend.Result[string])
}

func (m *MockBackend) ListBlobs(ctx context.Context, prefix string) backend.Result[[]string] {
	args := m.Called(ctx, prefix)
	return args.Get(0).(backend.Result[[]string])
}

func (m *MockBackend) RemoveBlob(ctx context.Context, objectName string) backend.Result[backend.Empty] {
	args := m.Called(ctx, objectName)
	return args.Get(0).(backend.Result[backend.Empty])
}

// memCache 内存版 Cache，锁按 key 互斥
type memCache struct {
	mu    sync.Mutex
	data  map[string]string
	locks map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, locks: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) TryLock(_ context.Context, key, owner string, _ time.Duration, _ int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[key]; held {
		return false, nil
	}
	c.locks[key] = owner
	return true, nil
}

func (c *memCache) UnLock(_ context.Context, key, owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] == owner {
		delete(c.locks, key)
	}
}

var empty = backend.Ok(backend.Empty{})

func approved(id, username, role string) *model.User {
	now := time.Now()
	return &model.User{ID: id, Username: username, Name: username, Role: role, Approved: true, ApprovedAt: &now}
}
