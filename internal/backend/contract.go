package backend

import (
	"Pibno/internal/model"
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrUnauthenticated = errors.New("not signed in")
)

// PostStore 帖子文档存储，按 createdAt 倒序
type PostStore interface {
	FindPage(ctx context.Context, limit int, after *model.PostCursor) ([]*model.Post, error)
	FindByID(ctx context.Context, id string) (*model.Post, error)
	FindByAuthor(ctx context.Context, username string, limit int) ([]*model.Post, error)
	FindAll(ctx context.Context) ([]*model.Post, error)
	Insert(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, id string, patch *model.PostPatch, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// UserStore 用户文档存储，username 以小写保存
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	FindByRole(ctx context.Context, role string) ([]*model.User, error)
	Insert(ctx context.Context, user *model.User) error
	Update(ctx context.Context, id string, patch *model.UserPatch) error
	SetRole(ctx context.Context, id string, role string, approvedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// BlobStore 对象存储，Put 返回可公开访问的 URL
type BlobStore interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectName string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// TokenRevoker 登出后的 Token 吊销列表
type TokenRevoker interface {
	Revoke(ctx context.Context, signature string, ttl time.Duration) error
	IsRevoked(ctx context.Context, signature string) (bool, error)
}

// BlobFile 待上传的文件
type BlobFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Session 登录成功后的身份与令牌
type Session struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}
