package client

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/feed"
	"Pibno/internal/model"
	"Pibno/internal/pkg/util"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, success bool, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": success,
		"code":    code,
		"message": message,
		"data":    data,
	})
}

func TestLoginStoresToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "secret1" {
				writeEnvelope(w, false, 401, "invalid credentials", nil)
				return
			}
			writeEnvelope(w, true, 200, "success", map[string]any{
				"token": "tok-1",
				"user":  map[string]any{"id": "u1", "username": body["identifier"], "role": "editor"},
			})
		case "/api/user/me":
			gotAuth = r.Header.Get("Authorization")
			writeEnvelope(w, true, 200, "success", map[string]any{"user": map[string]any{"id": "u1"}})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Login(ctx, "maria", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)

	session, err := c.Login(ctx, "maria", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "maria", session.User.Username)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestFetchPageDrivesPaginator(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	all := make([]*model.Post, 0, 5)
	for i, id := range []string{"e", "d", "c", "b", "a"} {
		// 两两共享时间戳，翻页依赖游标中的 id
		all = append(all, &model.Post{ID: id, Title: "t", CreatedAt: base.Add(-time.Duration(i/2) * time.Hour)})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor, err := util.DecodeCursor(r.URL.Query().Get("cursor"))
		if err != nil {
			writeEnvelope(w, false, 400, err.Error(), nil)
			return
		}
		items := make([]*model.Post, 0, 2)
		for _, p := range all {
			if cursor != nil && !cursor.Precedes(p) {
				continue
			}
			if len(items) == 2 {
				break
			}
			items = append(items, p)
		}
		writeEnvelope(w, true, 200, "success", map[string]any{"items": items, "exhausted": len(items) < 2})
	}))
	defer srv.Close()

	p := feed.NewPaginator(New(srv.URL), feed.WithPageSize(2))
	ctx := context.Background()
	for i := 0; i < 5 && !p.Exhausted(); i++ {
		_, err := p.LoadMore(ctx)
		require.NoError(t, err)
	}
	require.True(t, p.Exhausted())

	var ids []string
	for _, it := range p.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids)
}

func TestExportAndImport(t *testing.T) {
	backup := []byte(`{"posts":[{"title":"Culto"}]}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/admin/settings/export" && r.Header.Get("Authorization") == "":
			writeEnvelope(w, false, 401, "missing or malformed token", nil)
		case r.URL.Path == "/api/admin/settings/export":
			w.Header().Set("Content-Disposition", `attachment; filename="pibno_posts_2024-05-01.json"`)
			_, _ = w.Write(backup)
		case r.URL.Path == "/api/admin/settings/import":
			file, _, err := r.FormFile("file")
			require.NoError(t, err)
			data, _ := io.ReadAll(file)
			assert.JSONEq(t, string(backup), string(data))
			writeEnvelope(w, true, 200, "success", map[string]any{
				"outcome": map[string]any{"kind": "importPosts", "message": "imported 1 posts", "count": 1},
			})
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	_, _, err := New(srv.URL).Export(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)

	c := New(srv.URL).SetToken("tok")
	data, name, err := c.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pibno_posts_2024-05-01.json", name)
	assert.Equal(t, backup, data)

	out, err := c.Import(ctx, name, data)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
}

func TestUploadAvatarSendsCrop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "150", r.FormValue("zoom"))
		assert.Equal(t, "-12.5", r.FormValue("offset_x"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "me.png", header.Filename)
		writeEnvelope(w, true, 200, "success", map[string]any{"avatarUrl": "https://cdn/avatars/u1?v=1"})
	}))
	defer srv.Close()

	url, err := New(srv.URL).UploadAvatar(context.Background(), "me.png", []byte("png"), dtoCrop(150, -12.5, 0))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/avatars/u1?v=1", url)
}

func dtoCrop(zoom, dx, dy float64) dto.AvatarCropDTO {
	return dto.AvatarCropDTO{Zoom: zoom, OffsetX: dx, OffsetY: dy}
}
