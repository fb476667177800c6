package service

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/backend"
	"Pibno/internal/editor"
	"Pibno/internal/model"
	"Pibno/internal/pkg/consts"
	"Pibno/internal/pkg/util"
	"bytes"
	"context"
	"errors"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

const (
	profileCacheTTL = 10 * time.Minute
	AuthorPostLimit = 20
)

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) (*dto.UserDTO, error)
	Login(ctx context.Context, dto *dto.CredentialDTO) (*dto.SessionDTO, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, id string) (*dto.UserDTO, error)
	GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error)
	GetUserByUsername(ctx context.Context, username string) (*dto.UserDTO, error)
	GetUserPage(ctx context.Context, id string) (*dto.UserPageDTO, error)
	UpdateProfile(ctx context.Context, id string, dto *dto.ProfileDTO) (*dto.UserDTO, error)
	UploadAvatar(ctx context.Context, id string, file io.Reader, size int64, name string, crop *dto.AvatarCropDTO) (string, error)
	CleanupAvatars(ctx context.Context) (int, error)
}

// UserOptions 上传限制与编辑器视口
type UserOptions struct {
	AvatarMaxBytes int64
	AvatarViewport float64
}

type UserServiceImpl struct {
	backend Backend
	cache   Cache
	opts    UserOptions
}

func NewUserService(b Backend, cache Cache, opts UserOptions) UserService {
	if opts.AvatarViewport <= 0 {
		opts.AvatarViewport = editor.DefaultViewport
	}
	s := &UserServiceImpl{
		backend: b,
		cache:   cache,
		opts:    opts,
	}
	// 登录状态变化时丢弃资料缓存
	b.OnAuthChange(func(u *model.User) {
		if u != nil {
			s.invalidate(context.Background(), u.ID)
		}
	})
	return s
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) (*dto.UserDTO, error) {
	username := util.NormalizeUsername(regDTO.Username)
	if err := util.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(regDTO.Password, regDTO.ConfirmPassword); err != nil {
		return nil, err
	}

	// 同名并发注册只放行一个
	lockKey := consts.UsernameRegisterLock + username
	owner := uuid.NewString()
	ok, err := s.cache.TryLock(ctx, lockKey, owner, 10*time.Second, 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUsernameTaken
	}
	defer s.cache.UnLock(ctx, lockKey, owner)

	if err = ensureUsernameFree(ctx, s.backend, username); err != nil {
		return nil, err
	}
	email := util.NormalizeEmail(regDTO.Email)
	if err = ensureEmailFree(ctx, s.backend, email); err != nil {
		return nil, err
	}

	user := &model.User{}
	if err = copier.Copy(user, regDTO); err != nil {
		return nil, err
	}
	user.Username = username
	user.Email = email
	user.Name = strings.TrimSpace(user.Name)
	user.Role = model.RolePending
	user.Approved = false

	id, err := s.backend.CreateUser(ctx, user, regDTO.Password).Unwrap()
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	user.ID = id
	log.InfoContext(ctx, "user registered", "user_id", id, "username", username)
	return toUserDTO(user, true)
}

func (s *UserServiceImpl) Login(ctx context.Context, credDTO *dto.CredentialDTO) (*dto.SessionDTO, error) {
	session, err := s.backend.Login(ctx, credDTO.Identifier, credDTO.Password).Unwrap()
	if err != nil {
		return nil, err
	}
	userDTO, err := toUserDTO(session.User, true)
	if err != nil {
		return nil, err
	}
	return &dto.SessionDTO{Token: session.Token, User: userDTO}, nil
}

func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	return s.backend.Logout(ctx, token).Err()
}

// Me 当前登录用户的完整资料，不走缓存
func (s *UserServiceImpl) Me(ctx context.Context, id string) (*dto.UserDTO, error) {
	user, err := s.backend.GetUser(ctx, id).Unwrap()
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return toUserDTO(user, true)
}

// GetUserInfo 优先读取缓存，未命中时回源并写回
func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error) {
	if id == "" {
		return nil, ErrParamInvalid
	}
	key := consts.UserProfileKey + id
	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		userDTO := &dto.UserDTO{}
		if err = json.Unmarshal([]byte(cached), userDTO); err == nil {
			return userDTO, nil
		}
	}

	user, err := s.backend.GetUser(ctx, id).Unwrap()
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	userDTO, err := toUserDTO(user, false)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(userDTO); err == nil {
		if err = s.cache.Set(ctx, key, string(b), profileCacheTTL); err != nil {
			log.WarnContext(ctx, "cache user profile failed", "user_id", id, "err", err)
		}
	}
	return userDTO, nil
}

func (s *UserServiceImpl) GetUserByUsername(ctx context.Context, username string) (*dto.UserDTO, error) {
	username = util.NormalizeUsername(username)
	if username == "" {
		return nil, ErrParamInvalid
	}
	user, err := s.backend.GetUserByUsername(ctx, username).Unwrap()
	if err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	return toUserDTO(user, false)
}

// GetUserPage 个人主页：资料加最近 20 篇帖子
func (s *UserServiceImpl) GetUserPage(ctx context.Context, id string) (*dto.UserPageDTO, error) {
	userDTO, err := s.GetUserInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	posts, err := s.backend.PostsByAuthor(ctx, userDTO.Username, AuthorPostLimit).Unwrap()
	if err != nil {
		return nil, err
	}
	postDTOs, err := toPostDTOs(posts)
	if err != nil {
		return nil, err
	}
	return &dto.UserPageDTO{User: userDTO, Posts: postDTOs}, nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id string, profile *dto.ProfileDTO) (*dto.UserDTO, error) {
	patch := &model.UserPatch{}
	if profile.Name != nil {
		name := strings.TrimSpace(*profile.Name)
		if name == "" {
			return nil, ErrParamInvalid
		}
		patch.Name = &name
	}
	if profile.Bio != nil {
		bio := strings.TrimSpace(*profile.Bio)
		patch.Bio = &bio
	}
	if err := s.backend.UpdateUser(ctx, id, patch).Err(); err != nil {
		return nil, translate(err, ErrUserNotFound)
	}
	s.invalidate(ctx, id)
	return s.Me(ctx, id)
}

// UploadAvatar 校验大小与类型，经编辑器裁剪为 720x720 JPEG 后写入 avatars/<id>
func (s *UserServiceImpl) UploadAvatar(ctx context.Context, id string, file io.Reader, size int64, name string, crop *dto.AvatarCropDTO) (string, error) {
	if id == "" {
		return "", ErrUnauthenticated
	}
	if s.opts.AvatarMaxBytes > 0 && size > s.opts.AvatarMaxBytes {
		return "", ErrFileTooLarge
	}

	limit := s.opts.AvatarMaxBytes
	if limit <= 0 {
		limit = size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", err
	}
	if s.opts.AvatarMaxBytes > 0 && int64(len(data)) > s.opts.AvatarMaxBytes {
		return "", ErrFileTooLarge
	}
	contentType, err := util.GetSafeContentType(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(contentType, consts.MimePrefixImage+"/") {
		return "", ErrFileNotSupported
	}

	out, err := CropAvatar(data, name, s.opts.AvatarViewport, crop)
	if err != nil {
		return "", err
	}

	url, err := s.backend.UploadBlob(ctx, id, backend.BlobFile{
		Name:        out.Name,
		ContentType: out.ContentType,
		Size:        int64(len(out.Data)),
		Reader:      bytes.NewReader(out.Data),
	}, consts.AvatarPathPrefix+"/"+id).Unwrap()
	if err != nil {
		return "", err
	}
	if err = s.backend.UpdateUser(ctx, id, &model.UserPatch{AvatarURL: &url}).Err(); err != nil {
		return "", translate(err, ErrUserNotFound)
	}
	s.invalidate(ctx, id)
	return url, nil
}

// CropAvatar 在编辑器中应用缩放与偏移并导出
func CropAvatar(data []byte, name string, viewport float64, crop *dto.AvatarCropDTO) (*editor.Output, error) {
	if crop != nil && crop.Viewport > 0 {
		viewport = crop.Viewport
	}
	ed, err := editor.New(viewport)
	if err != nil {
		return nil, ErrParamInvalid
	}
	if err = ed.Open(bytes.NewReader(data), name); err != nil {
		return nil, ErrFileNotSupported
	}
	if crop != nil {
		if crop.Zoom > 0 {
			if err = ed.SetZoom(crop.Zoom); err != nil {
				return nil, err
			}
		}
		if err = ed.Pan(crop.OffsetX, crop.OffsetY); err != nil {
			if errors.Is(err, editor.ErrNonFinite) {
				return nil, ErrParamInvalid
			}
			return nil, err
		}
	}
	return ed.Confirm()
}

// CleanupAvatars 删除已注销用户遗留的头像对象
func (s *UserServiceImpl) CleanupAvatars(ctx context.Context) (int, error) {
	objects, err := s.backend.ListBlobs(ctx, consts.AvatarPathPrefix+"/").Unwrap()
	if err != nil {
		return 0, err
	}
	if len(objects) == 0 {
		return 0, nil
	}
	users, err := s.backend.ListUsers(ctx).Unwrap()
	if err != nil {
		return 0, err
	}
	owners := make(map[string]struct{}, len(users))
	for _, u := range users {
		owners[u.ID] = struct{}{}
	}

	removed := 0
	for _, object := range objects {
		owner := strings.TrimPrefix(object, consts.AvatarPathPrefix+"/")
		if _, ok := owners[owner]; ok || owner == "" {
			continue
		}
		if err = s.backend.RemoveBlob(ctx, object).Err(); err != nil {
			log.WarnContext(ctx, "remove orphan avatar failed", "object", object, "err", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *UserServiceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, consts.UserProfileKey+id); err != nil {
		log.WarnContext(ctx, "drop user profile cache failed", "user_id", id, "err", err)
	}
}

// toUserDTO withEmail 为 false 时隐藏邮箱
func toUserDTO(user *model.User, withEmail bool) (*dto.UserDTO, error) {
	if user == nil {
		return nil, ErrUserNotFound
	}
	out := &dto.UserDTO{}
	if err := copier.Copy(out, user); err != nil {
		return nil, err
	}
	if !withEmail {
		out.Email = ""
	}
	return out, nil
}

func toPostDTOs(posts []*model.Post) ([]*dto.PostDTO, error) {
	out := make([]*dto.PostDTO, 0, len(posts))
	if err := copier.Copy(&out, &posts); err != nil {
		return nil, err
	}
	return out, nil
}

func toPostDTO(post *model.Post) (*dto.PostDTO, error) {
	out := &dto.PostDTO{}
	if err := copier.Copy(out, post); err != nil {
		return nil, err
	}
	return out, nil
}
