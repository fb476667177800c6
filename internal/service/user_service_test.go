package service

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"Pibno/internal/pkg/consts"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserSvc(m *MockBackend, cache Cache) *UserServiceImpl {
	return NewUserService(m, cache, UserOptions{AvatarMaxBytes: 2621440, AvatarViewport: 300}).(*UserServiceImpl)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegisterValidation(t *testing.T) {
	m := new(MockBackend)
	svc := newUserSvc(m, newMemCache())
	ctx := context.Background()

	tests := []struct {
		name string
		in   dto.RegisterDTO
		err  error
	}{
		{"space in username", dto.RegisterDTO{Username: "ana maria", Password: "123456"}, ErrUsernameInvalid},
		{"two characters", dto.RegisterDTO{Username: "an", Password: "123456"}, ErrUsernameInvalid},
		{"short password", dto.RegisterDTO{Username: "ana", Password: "12345"}, ErrPasswordTooShort},
		{"confirm mismatch", dto.RegisterDTO{Username: "ana", Password: "123456", ConfirmPassword: "654321"}, ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	m.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterCreatesPendingLowercaseUser(t *testing.T) {
	m := new(MockBackend)
	svc := newUserSvc(m, newMemCache())
	ctx := context.Background()

	m.On("GetUserByUsername", mock.Anything, "grace").Return(backend.Fail[*model.User](backend.ErrNotFound)).Once()
	m.On("GetUserByEmail", mock.Anything, "g@x.org").Return(backend.Fail[*model.User](backend.ErrNotFound)).Once()
	m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "grace" && u.Role == model.RolePending && !u.Approved && u.Name == "Grace H" && u.Email == "g@x.org"
	}), "secret1").Return(backend.Ok("g1")).Once()

	user, err := svc.Register(ctx, &dto.RegisterDTO{Username: "  Grace ", Name: "Grace H ", Email: " G@X.org", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "g1", user.ID)
	assert.Equal(t, model.RolePending, user.Role)

	m.On("GetUserByUsername", mock.Anything, "grace").Return(backend.Ok(&model.User{ID: "g1", Username: "grace"})).Once()
	_, err = svc.Register(ctx, &dto.RegisterDTO{Username: "GRACE", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	m.AssertNumberOfCalls(t, "CreateUser", 1)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	m := new(MockBackend)
	svc := newUserSvc(m, newMemCache())
	ctx := context.Background()

	m.On("GetUserByUsername", mock.Anything, "mallory").Return(backend.Fail[*model.User](backend.ErrNotFound))
	m.On("GetUserByEmail", mock.Anything, "grace@x.org").Return(backend.Ok(&model.User{ID: "g1", Username: "grace"})).Once()
	_, err := svc.Register(ctx, &dto.RegisterDTO{Username: "mallory", Email: "Grace@x.org", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	m.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, Conflict, code)

	// 并发注册越过检查后由唯一索引兜底
	m.On("GetUserByEmail", mock.Anything, "m@x.org").Return(backend.Fail[*model.User](backend.ErrNotFound)).Once()
	m.On("CreateUser", mock.Anything, mock.Anything, "secret1").Return(backend.Fail[string](backend.ErrDuplicateEmail)).Once()
	_, err = svc.Register(ctx, &dto.RegisterDTO{Username: "mallory", Email: "m@x.org", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterLockContention(t *testing.T) {
	m := new(MockBackend)
	cache := newMemCache()
	svc := newUserSvc(m, cache)
	_, _ = cache.TryLock(context.Background(), consts.UsernameRegisterLock+"grace", "other", 0, 1)

	_, err := svc.Register(context.Background(), &dto.RegisterDTO{Username: "grace", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	m.AssertNotCalled(t, "GetUserByUsername", mock.Anything, mock.Anything)
}

func TestGetUserInfoUsesCache(t *testing.T) {
	m := new(MockBackend)
	cache := newMemCache()
	svc := newUserSvc(m, cache)
	ctx := context.Background()

	m.On("GetUser", mock.Anything, "u1").Return(backend.Ok(&model.User{ID: "u1", Username: "ana", Email: "a@x.org"})).Once()

	first, err := svc.GetUserInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, first.Email, "public profile hides email")

	second, err := svc.GetUserInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	m.AssertNumberOfCalls(t, "GetUser", 1)

	// 登录事件会让缓存失效
	require.Len(t, m.authCallbacks, 1)
	m.authCallbacks[0](&model.User{ID: "u1"})
	v, _ := cache.Get(ctx, consts.UserProfileKey+"u1")
	assert.Empty(t, v)

	m.On("GetUser", mock.Anything, "nobody").Return(backend.Fail[*model.User](backend.ErrNotFound))
	_, err = svc.GetUserInfo(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUploadAvatarWritesCallerPath(t *testing.T) {
	m := new(MockBackend)
	svc := newUserSvc(m, newMemCache())
	ctx := context.Background()
	data := pngBytes(t, 600, 400)

	m.On("UploadBlob", mock.Anything, "self-uid", mock.MatchedBy(func(f backend.BlobFile) bool {
		return f.ContentType == "image/jpeg" && strings.HasSuffix(f.Name, ".jpg") && f.Size > 0
	}), "avatars/self-uid").Return(backend.Ok("https://cdn/avatars/self-uid?v=1")).Once()
	m.On("UpdateUser", mock.Anything, "self-uid", mock.MatchedBy(func(p *model.UserPatch) bool {
		return p.AvatarURL != nil && *p.AvatarURL == "https://cdn/avatars/self-uid?v=1"
	})).Return(empty).Once()

	url, err := svc.UploadAvatar(ctx, "self-uid", bytes.NewReader(data), int64(len(data)), "me.png", &dto.AvatarCropDTO{Zoom: 150, OffsetX: 40})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/avatars/self-uid?v=1", url)
	m.AssertExpectations(t)
}

func TestUploadAvatarRejections(t *testing.T) {
	m := new(MockBackend)
	svc := newUserSvc(m, newMemCache())
	ctx := context.Background()

	_, err := svc.UploadAvatar(ctx, "u1", strings.NewReader("x"), 3*1024*1024, "big.png", nil)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.UploadAvatar(ctx, "u1", strings.NewReader("plain text here"), 15, "a.txt", nil)
	assert.ErrorIs(t, err, ErrFileNotSupported)

	_, err = svc.UploadAvatar(ctx, "", strings.NewReader("x"), 1, "a.png", nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	m.AssertNotCalled(t, "UploadBlob", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCropAvatarProduces720Jpeg(t *testing.T) {
	out, err := CropAvatar(pngBytes(t, 300, 500), "portrait.png", 300, &dto.AvatarCropDTO{Zoom: 200, OffsetY: -1000})
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 720, img.Bounds().Dx())
	assert.Equal(t, 720, img.Bounds().Dy())
	assert.True(t, strings.HasPrefix(out.DataURL, "data:image/jpeg;base64,"))
}

func TestCropAvatarRejectsNonFiniteOffsets(t *testing.T) {
	_, err := CropAvatar(pngBytes(t, 300, 500), "portrait.png", 300, &dto.AvatarCropDTO{OffsetX: math.NaN()})
	assert.ErrorIs(t, err, ErrParamInvalid)
	_, err = CropAvatar(pngBytes(t, 300, 500), "portrait.png", 300, &dto.AvatarCropDTO{OffsetY: math.Inf(-1)})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestCleanupAvatars(t *testing.T) {
	m := new(MockBackend)
	svc := newUserSvc(m, newMemCache())

	m.On("ListBlobs", mock.Anything, "avatars/").Return(backend.Ok([]string{"avatars/u1", "avatars/ghost"}))
	m.On("ListUsers", mock.Anything).Return(backend.Ok([]*model.User{{ID: "u1"}}))
	m.On("RemoveBlob", mock.Anything, "avatars/ghost").Return(empty).Once()

	n, err := svc.CleanupAvatars(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	m.AssertExpectations(t)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	admin := DefaultAdmin{Username: "Admin", Password: "changeme"}

	m := new(MockBackend)
	m.On("GetUserByUsername", mock.Anything, "admin").Return(backend.Fail[*model.User](backend.ErrNotFound))
	m.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "admin" && u.Role == model.RoleAdmin && u.Approved
	}), "changeme").Return(backend.Ok("a1")).Once()
	require.NoError(t, EnsureDefaultAdmin(ctx, m, admin))
	m.AssertExpectations(t)

	m = new(MockBackend)
	m.On("GetUserByUsername", mock.Anything, "admin").Return(backend.Ok(&model.User{ID: "a1", Username: "admin", Role: model.RoleViewer, Approved: true}))
	m.On("SetRole", mock.Anything, "a1", model.RoleAdmin).Return(empty).Once()
	require.NoError(t, EnsureDefaultAdmin(ctx, m, admin))
	m.AssertExpectations(t)

	m = new(MockBackend)
	m.On("GetUserByUsername", mock.Anything, "admin").Return(backend.Ok(approved("a1", "admin", model.RoleAdmin)))
	require.NoError(t, EnsureDefaultAdmin(ctx, m, admin))
	m.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
}
