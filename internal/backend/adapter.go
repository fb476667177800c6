package backend

import (
	"Pibno/internal/model"
	"Pibno/internal/pkg/security"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

const AvatarPrefix = "avatars"

// Empty 无返回数据的操作
type Empty struct{}

// Adapter 把领域操作翻译为对各个存储的调用，所有方法都返回 Result 而不会 panic
type Adapter struct {
	posts   PostStore
	users   UserStore
	blobs   BlobStore
	revoker TokenRevoker
	now     func() time.Time

	mu        sync.RWMutex
	observers map[uint64]func(*model.User)
	seq       uint64
}

func NewAdapter(posts PostStore, users UserStore, blobs BlobStore, revoker TokenRevoker) *Adapter {
	return &Adapter{
		posts:     posts,
		users:     users,
		blobs:     blobs,
		revoker:   revoker,
		now:       time.Now,
		observers: make(map[uint64]func(*model.User)),
	}
}

// OnAuthChange 订阅登录状态变化，返回取消订阅函数
func (s *Adapter) OnAuthChange(cb func(*model.User)) func() {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.observers[id] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Adapter) notify(user *model.User) {
	s.mu.RLock()
	callbacks := make([]func(*model.User), 0, len(s.observers))
	for _, cb := range s.observers {
		callbacks = append(callbacks, cb)
	}
	s.mu.RUnlock()

	for _, cb := range callbacks {
		cb(user)
	}
}

// Login 支持邮箱或用户名登录
func (s *Adapter) Login(ctx context.Context, identifier, password string) Result[*Session] {
	res := call(ctx, "login", func() (*Session, error) {
		identifier = strings.TrimSpace(identifier)
		var (
			user *model.User
			err  error
		)
		if strings.Contains(identifier, "@") {
			user, err = s.users.FindByEmail(ctx, strings.ToLower(identifier))
		} else {
			user, err = s.users.FindByUsername(ctx, strings.ToLower(identifier))
		}
		if errors.Is(err, ErrNotFound) {
			return nil, security.ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}
		if err = security.CheckPasswordHash(password, user.PasswordHash); err != nil {
			return nil, err
		}
		token, err := security.GenerateToken(user.ID, user.Role)
		if err != nil {
			return nil, err
		}
		return &Session{User: user, Token: token}, nil
	})
	if res.Success {
		s.notify(res.Data.User)
	}
	return res
}

// Logout 吊销 Token 直到其自然过期
func (s *Adapter) Logout(ctx context.Context, token string) Result[Empty] {
	res := call(ctx, "logout", func() (Empty, error) {
		signature, err := security.ExtractSignature(token)
		if err != nil {
			return Empty{}, ErrUnauthenticated
		}
		return Empty{}, s.revoker.Revoke(ctx, signature, security.JWTExpirationTime)
	})
	if res.Success {
		s.notify(nil)
	}
	return res
}

// CurrentIdentity 解析 Token 对应的用户，未登录时 Data 为 nil
func (s *Adapter) CurrentIdentity(ctx context.Context, token string) Result[*model.User] {
	return call(ctx, "current_identity", func() (*model.User, error) {
		if token == "" {
			return nil, nil
		}
		signature, err := security.ExtractSignature(token)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		revoked, err := s.revoker.IsRevoked(ctx, signature)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrUnauthenticated
		}
		claims, err := security.ValidateToken(token)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		user, err := s.users.FindByID(ctx, claims.UserID)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return user, err
	})
}

func (s *Adapter) FetchPage(ctx context.Context, limit int, cursor *model.PostCursor) Result[[]*model.Post] {
	return call(ctx, "fetch_page", func() ([]*model.Post, error) {
		if limit <= 0 {
			return nil, fmt.Errorf("invalid page size %d", limit)
		}
		return s.posts.FindPage(ctx, limit, cursor)
	})
}

func (s *Adapter) GetPost(ctx context.Context, id string) Result[*model.Post] {
	return call(ctx, "get_post", func() (*model.Post, error) {
		return s.posts.FindByID(ctx, id)
	})
}

func (s *Adapter) PostsByAuthor(ctx context.Context, username string, limit int) Result[[]*model.Post] {
	return call(ctx, "posts_by_author", func() ([]*model.Post, error) {
		return s.posts.FindByAuthor(ctx, strings.ToLower(username), limit)
	})
}

func (s *Adapter) AllPosts(ctx context.Context) Result[[]*model.Post] {
	return call(ctx, "all_posts", func() ([]*model.Post, error) {
		return s.posts.FindAll(ctx)
	})
}

// CreatePost 未指定 createdAt 时由服务端赋值
func (s *Adapter) CreatePost(ctx context.Context, post *model.Post) Result[string] {
	return call(ctx, "create_post", func() (string, error) {
		now := s.now()
		if post.CreatedAt.IsZero() {
			post.CreatedAt = now
		}
		post.UpdatedAt = now
		if err := s.posts.Insert(ctx, post); err != nil {
			return "", err
		}
		return post.ID, nil
	})
}

func (s *Adapter) UpdatePost(ctx context.Context, id string, patch *model.PostPatch) Result[Empty] {
	return call(ctx, "update_post", func() (Empty, error) {
		if patch.Empty() {
			return Empty{}, nil
		}
		return Empty{}, s.posts.Update(ctx, id, patch, s.now())
	})
}

func (s *Adapter) DeletePost(ctx context.Context, id string) Result[Empty] {
	return call(ctx, "delete_post", func() (Empty, error) {
		return Empty{}, s.posts.Delete(ctx, id)
	})
}

func (s *Adapter) GetUser(ctx context.Context, id string) Result[*model.User] {
	return call(ctx, "get_user", func() (*model.User, error) {
		return s.users.FindByID(ctx, id)
	})
}

func (s *Adapter) GetUserByUsername(ctx context.Context, username string) Result[*model.User] {
	return call(ctx, "get_user_by_username", func() (*model.User, error) {
		return s.users.FindByUsername(ctx, strings.ToLower(username))
	})
}

func (s *Adapter) GetUserByEmail(ctx context.Context, email string) Result[*model.User] {
	return call(ctx, "get_user_by_email", func() (*model.User, error) {
		return s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	})
}

func (s *Adapter) ListUsers(ctx context.Context) Result[[]*model.User] {
	return call(ctx, "list_users", func() ([]*model.User, error) {
		return s.users.FindAll(ctx)
	})
}

func (s *Adapter) ListUsersByRole(ctx context.Context, role string) Result[[]*model.User] {
	return call(ctx, "list_users_by_role", func() ([]*model.User, error) {
		return s.users.FindByRole(ctx, role)
	})
}

// ListPendingUsers 等待审核的注册用户
func (s *Adapter) ListPendingUsers(ctx context.Context) Result[[]*model.User] {
	return s.ListUsersByRole(ctx, model.RolePending)
}

// CreateUser 对明文密码做哈希后写入
func (s *Adapter) CreateUser(ctx context.Context, user *model.User, password string) Result[string] {
	return call(ctx, "create_user", func() (string, error) {
		hash, err := security.HashPassword(password)
		if err != nil {
			return "", err
		}
		user.PasswordHash = hash
		user.Username = strings.ToLower(user.Username)
		user.Email = strings.ToLower(user.Email)
		if user.CreatedAt.IsZero() {
			user.CreatedAt = s.now()
		}
		if err = s.users.Insert(ctx, user); err != nil {
			return "", err
		}
		return user.ID, nil
	})
}

func (s *Adapter) UpdateUser(ctx context.Context, id string, patch *model.UserPatch) Result[Empty] {
	return call(ctx, "update_user", func() (Empty, error) {
		if patch.Empty() {
			return Empty{}, nil
		}
		return Empty{}, s.users.Update(ctx, id, patch)
	})
}

// ChangePassword 只接受明文，哈希在这里完成
func (s *Adapter) ChangePassword(ctx context.Context, id, password string) Result[Empty] {
	return call(ctx, "change_password", func() (Empty, error) {
		hash, err := security.HashPassword(password)
		if err != nil {
			return Empty{}, err
		}
		return Empty{}, s.users.Update(ctx, id, &model.UserPatch{PasswordHash: &hash})
	})
}

func (s *Adapter) DeleteUser(ctx context.Context, id string) Result[Empty] {
	return call(ctx, "delete_user", func() (Empty, error) {
		return Empty{}, s.users.Delete(ctx, id)
	})
}

// SetRole 设置角色并标记为已审核
func (s *Adapter) SetRole(ctx context.Context, id, role string) Result[Empty] {
	return call(ctx, "set_role", func() (Empty, error) {
		if !model.IsApprovedRole(role) {
			return Empty{}, fmt.Errorf("unknown role %q", role)
		}
		return Empty{}, s.users.SetRole(ctx, id, role, s.now())
	})
}

// UploadBlob 上传文件，头像路径始终落在调用者自己的命名空间下
func (s *Adapter) UploadBlob(ctx context.Context, callerID string, file BlobFile, pathHint string) Result[string] {
	return call(ctx, "upload_blob", func() (string, error) {
		if callerID == "" {
			return "", ErrUnauthenticated
		}
		objectName := ObjectName(callerID, pathHint, file.Name, s.now())
		url, err := s.blobs.Put(ctx, objectName, file.Reader, file.Size, file.ContentType)
		if err != nil {
			return "", err
		}
		if isAvatarPath(objectName) {
			// 头像 key 固定，追加版本号避免缓存
			url = fmt.Sprintf("%s?v=%d", url, s.now().UnixMilli())
		}
		return url, nil
	})
}

func (s *Adapter) ListBlobs(ctx context.Context, prefix string) Result[[]string] {
	return call(ctx, "list_blobs", func() ([]string, error) {
		return s.blobs.List(ctx, prefix)
	})
}

func (s *Adapter) RemoveBlob(ctx context.Context, objectName string) Result[Empty] {
	return call(ctx, "remove_blob", func() (Empty, error) {
		return Empty{}, s.blobs.Remove(ctx, objectName)
	})
}

func isAvatarPath(p string) bool {
	return p == AvatarPrefix || strings.HasPrefix(p, AvatarPrefix+"/")
}

// ObjectName 计算对象存储的 key
//   - avatars/... 一律改写为 avatars/<callerID>
//   - 其它路径为 <hint>/<unix毫秒>_<文件名>
func ObjectName(callerID, pathHint, fileName string, now time.Time) string {
	hint := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(pathHint)), "/")
	if isAvatarPath(hint) {
		return AvatarPrefix + "/" + callerID
	}
	if hint == "" {
		hint = "uploads"
	}

	base := path.Base("/" + strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "/" || base == "." || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%d_%s", hint, now.UnixMilli(), base)
}
