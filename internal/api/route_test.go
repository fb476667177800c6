package api

import (
	"Pibno/internal/api/handler"
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"Pibno/internal/service"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend 只实现路由测试用到的方法，其余方法调用会 panic
type fakeBackend struct {
	service.Backend

	mu      sync.Mutex
	tokens  map[string]*model.User
	users   map[string]*model.User
	posts   []*model.Post
	created []*model.Post
	deleted []string
}

func newFakeBackend() *fakeBackend {
	now := time.Now()
	users := map[string]*model.User{
		"a1": {ID: "a1", Username: "admin", Name: "Admin", Role: model.RoleAdmin, Approved: true, ApprovedAt: &now},
		"e1": {ID: "e1", Username: "editor", Name: "Ed", Role: model.RoleEditor, Approved: true, ApprovedAt: &now},
		"v1": {ID: "v1", Username: "viewer", Name: "Vi", Role: model.RoleViewer, Approved: true, ApprovedAt: &now},
		"p1": {ID: "p1", Username: "pending", Name: "Pe", Role: model.RolePending},
	}
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	var posts []*model.Post
	for i := 0; i < 3; i++ {
		posts = append(posts, &model.Post{ID: string(rune('a' + i)), Title: "post", Type: model.PostTypeImage, CreatedAt: base.Add(-time.Duration(i) * time.Hour)})
	}
	return &fakeBackend{
		tokens: map[string]*model.User{"admin": users["a1"], "editor": users["e1"], "viewer": users["v1"], "pending": users["p1"]},
		users:  users,
		posts:  posts,
	}
}

func (f *fakeBackend) OnAuthChange(func(*model.User)) func() { return func() {} }

func (f *fakeBackend) CurrentIdentity(_ context.Context, token string) backend.Result[*model.User] {
	if u, ok := f.tokens[token]; ok {
		return backend.Ok(u)
	}
	return backend.Fail[*model.User](backend.ErrUnauthenticated)
}

func (f *fakeBackend) AllPosts(context.Context) backend.Result[[]*model.Post] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return backend.Ok(append([]*model.Post(nil), f.posts...))
}

func (f *fakeBackend) FetchPage(_ context.Context, limit int, cursor *model.PostCursor) backend.Result[[]*model.Post] {
	var out []*model.Post
	for _, p := range f.posts {
		if cursor != nil && !cursor.Precedes(p) {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, p)
	}
	return backend.Ok(out)
}

func (f *fakeBackend) GetPost(_ context.Context, id string) backend.Result[*model.Post] {
	for _, p := range f.posts {
		if p.ID == id {
			return backend.Ok(p)
		}
	}
	return backend.Fail[*model.Post](backend.ErrNotFound)
}

func (f *fakeBackend) CreatePost(_ context.Context, post *model.Post) backend.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, post)
	return backend.Ok("new")
}

func (f *fakeBackend) ListUsers(context.Context) backend.Result[[]*model.User] {
	var out []*model.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return backend.Ok(out)
}

func (f *fakeBackend) ListPendingUsers(ctx context.Context) backend.Result[[]*model.User] {
	return f.ListUsersByRole(ctx, model.RolePending)
}

func (f *fakeBackend) ListUsersByRole(_ context.Context, role string) backend.Result[[]*model.User] {
	var out []*model.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return backend.Ok(out)
}

func (f *fakeBackend) GetUser(_ context.Context, id string) backend.Result[*model.User] {
	if u, ok := f.users[id]; ok {
		return backend.Ok(u)
	}
	return backend.Fail[*model.User](backend.ErrNotFound)
}

func (f *fakeBackend) DeleteUser(_ context.Context, id string) backend.Result[backend.Empty] {
	f.deleted = append(f.deleted, id)
	return backend.Ok(backend.Empty{})
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (string, error) { return "", nil }
func (nopCache) Set(context.Context, string, string, time.Duration) error { return nil }
func (nopCache) Del(context.Context, string) error { return nil }
func (nopCache) TryLock(context.Context, string, string, time.Duration, int) (bool, error) { return true, nil }
func (nopCache) UnLock(context.Context, string, string) {}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(f *fakeBackend) *gin.Engine {
	gin.SetMode(gin.TestMode)
	postSvc := service.NewPostService(f, nopCache{}, service.PostOptions{})
	adminSvc := service.NewAdminService(f, service.AdminOptions{ProtectedUsername: "admin", DefaultImage: "https://img/default.jpg"})
	return SetupRouter(&HandlersGroup{
		UserHandler:  handler.NewUserHandler(service.NewUserService(f, nopCache{}, service.UserOptions{})),
		PostHandler:  handler.NewPostHandler(postSvc),
		AdminHandler: handler.NewAdminHandler(adminSvc, postSvc, 1<<20),
		Identity:     f,
	}, RouterOptions{CORSOrigins: []string{"https://pibno.org"}})
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Header().Get("Content-Disposition") == "" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAdminPostPermissions(t *testing.T) {
	f := newFakeBackend()
	r := newTestRouter(f)
	post := map[string]string{"title": "Culto", "content": "<p>Domingo</p>"}

	tests := []struct {
		token string
		code  int
	}{
		{"", 401},
		{"pending", 403},
		{"viewer", 403},
		{"editor", 200},
		{"admin", 200},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, env := call(t, r, http.MethodPost, "/api/admin/posts", tt.token, post)
			assert.Equal(t, tt.code, env.Code, env.Message)
		})
	}
	require.Len(t, f.created, 2)
	assert.Equal(t, "e1", f.created[0].AuthorID)
	assert.Equal(t, "https://img/default.jpg", f.created[0].Image)
}

func TestActionEndpointRechecksCapability(t *testing.T) {
	f := newFakeBackend()
	r := newTestRouter(f)

	_, env := call(t, r, http.MethodPost, "/api/admin/actions", "viewer", map[string]any{
		"kind":    "createPost",
		"payload": map[string]string{"title": "x"},
	})
	assert.Equal(t, 403, env.Code)
	assert.Equal(t, service.ErrPermissionDenied.Error(), env.Message)
	assert.Empty(t, f.created)

	_, env = call(t, r, http.MethodPost, "/api/admin/actions", "admin", map[string]any{"kind": "dropTables"})
	assert.Equal(t, 400, env.Code)
}

func TestAdminUserGuards(t *testing.T) {
	f := newFakeBackend()
	r := newTestRouter(f)

	_, env := call(t, r, http.MethodDelete, "/api/admin/users/a1", "admin", nil)
	assert.Equal(t, service.ErrSelfDelete.Error(), env.Message)

	_, env = call(t, r, http.MethodDelete, "/api/admin/users/v1", "editor", nil)
	assert.Equal(t, 403, env.Code)

	_, env = call(t, r, http.MethodDelete, "/api/admin/users/v1", "admin", nil)
	assert.True(t, env.Success)
	assert.Equal(t, []string{"v1"}, f.deleted)

	_, env = call(t, r, http.MethodGet, "/api/admin/users?tab=pending", "admin", nil)
	require.True(t, env.Success)
	var state service.AdminState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	require.Len(t, state.Users, 1)
	assert.Equal(t, "p1", state.Users[0].ID)
}

func TestFeedAndPosts(t *testing.T) {
	f := newFakeBackend()
	r := newTestRouter(f)

	_, env := call(t, r, http.MethodGet, "/api/feed?limit=2", "", nil)
	require.True(t, env.Success)
	var page struct {
		Items      []map[string]any `json:"items"`
		NextCursor string           `json:"nextCursor"`
		Exhausted  bool             `json:"exhausted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 2)
	assert.False(t, page.Exhausted)

	_, env = call(t, r, http.MethodGet, "/api/feed?limit=2&cursor="+page.NextCursor, "", nil)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.True(t, page.Exhausted)

	_, env = call(t, r, http.MethodGet, "/api/posts/missing", "", nil)
	assert.Equal(t, 404, env.Code)

	_, env = call(t, r, http.MethodGet, "/api/feed?cursor=%21%21", "", nil)
	assert.Equal(t, 400, env.Code)
}

func TestFeedKeepsPostsSharingATimestamp(t *testing.T) {
	f := newFakeBackend()
	ts := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	f.posts = nil
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		f.posts = append(f.posts, &model.Post{ID: id, Title: "imported", Type: model.PostTypeImage, CreatedAt: ts})
	}
	r := newTestRouter(f)

	var ids []string
	cursor := ""
	for i := 0; i < 5; i++ {
		_, env := call(t, r, http.MethodGet, "/api/feed?limit=2&cursor="+cursor, "", nil)
		require.True(t, env.Success)
		var page struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			NextCursor string `json:"nextCursor"`
			Exhausted  bool   `json:"exhausted"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		for _, it := range page.Items {
			ids = append(ids, it.ID)
		}
		if page.Exhausted {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids)
}

func TestExportAndImport(t *testing.T) {
	f := newFakeBackend()
	r := newTestRouter(f)

	w, _ := call(t, r, http.MethodGet, "/api/admin/settings/export", "editor", nil)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pibno_posts_"+time.Now().Format("2006-01-02")+".json")
	assert.Contains(t, w.Body.String(), `"posts"`)

	_, env := call(t, r, http.MethodGet, "/api/admin/settings/export", "viewer", nil)
	assert.Equal(t, 403, env.Code)

	_, env = call(t, r, http.MethodPost, "/api/admin/settings/import", "editor", map[string]any{"posts": "nope"})
	assert.Equal(t, "invalid backup file: posts must be an array", env.Message)

	_, env = call(t, r, http.MethodPost, "/api/admin/settings/import", "editor", w.Body.Bytes())
	assert.Equal(t, 400, env.Code, "a JSON string is not a backup")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/settings/import", bytes.NewReader(w.Body.Bytes()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer editor")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success, env.Message)
	assert.Len(t, f.created, 3)
}

func TestPing(t *testing.T) {
	r := newTestRouter(newFakeBackend())
	_, env := call(t, r, http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, "pong", env.Message)
}
