package main

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func envelope(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "code": 200, "message": "success", "data": data})
}

func TestLoginThenWhoami(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/login":
			envelope(w, map[string]any{"token": "tok-9", "user": map[string]any{"username": "maria", "role": "editor"}})
		case "/api/user/me":
			assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
			envelope(w, map[string]any{"user": map[string]any{"username": "maria", "email": "m@x.org", "role": "editor", "approved": true}})
		}
	}))
	defer srv.Close()

	t.Setenv("PIBNO_TOKEN", "")
	tf := filepath.Join(t.TempDir(), "token")

	out, err := run(t, "secret1\n", "login", "maria", "--server", srv.URL, "--token-file", tf)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as maria (editor)")

	saved, err := os.ReadFile(tf)
	require.NoError(t, err)
	assert.Equal(t, "tok-9\n", string(saved))

	out, err = run(t, "", "whoami", "--server", srv.URL, "--token-file", tf)
	require.NoError(t, err)
	assert.Contains(t, out, "maria <m@x.org> role=editor approved=true")

	_, err = run(t, "", "logout", "--token-file", tf)
	require.NoError(t, err)
	_, err = run(t, "", "whoami", "--server", srv.URL, "--token-file", tf)
	assert.ErrorContains(t, err, "not logged in")
}

func TestFeedPagesOnEnter(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		n := 2
		if r.URL.Query().Get("cursor") != "" {
			n = 1
		}
		items := make([]map[string]any, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, map[string]any{
				"id":        string(rune('a' + calls*10 + i)),
				"title":     "Culto",
				"createdAt": base.Add(-time.Duration(calls*10+i) * time.Hour),
			})
		}
		envelope(w, map[string]any{"items": items})
	}))
	defer srv.Close()

	out, err := run(t, "\n", "feed", "--server", srv.URL, "--page-size", "2", "--pages", "0")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "Culto"))
	assert.Contains(t, out, "no more posts")
	assert.Equal(t, 2, calls)
}

func TestAvatarDryRunWritesPreview(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		for y := 0; y < 200; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: 80, B: 160, A: 255})
		}
	}
	src := filepath.Join(dir, "me.png")
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	preview := filepath.Join(dir, "preview.jpg")
	_, err = run(t, "", "avatar", src, "--zoom", "150", "--dx", "20", "--preview", preview, "--dry-run")
	require.NoError(t, err)

	data, err := os.ReadFile(preview)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 720, cfg.Width)
}
