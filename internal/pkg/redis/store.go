package redis

import (
	"Pibno/internal/pkg/consts"
	"context"
	"time"
)

// Store 把包级 Rdb 的操作暴露为接口实现，供 backend 与 service 注入
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Revoke 吊销 Token 签名
func (s *Store) Revoke(ctx context.Context, signature string, ttl time.Duration) error {
	return SetWithExpiration(ctx, consts.TokenRevokedKey+signature, "1", ttl)
}

func (s *Store) IsRevoked(ctx context.Context, signature string) (bool, error) {
	return Exists(ctx, consts.TokenRevokedKey+signature)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return GetValue(ctx, key)
}

func (s *Store) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return SetWithExpiration(ctx, key, value, ttl)
}

func (s *Store) Del(ctx context.Context, key string) error {
	return DeleteKey(ctx, key)
}

func (s *Store) TryLock(ctx context.Context, key, owner string, ttl time.Duration, retryTimes int) (bool, error) {
	return TryLock(ctx, key, owner, ttl, retryTimes)
}

func (s *Store) UnLock(ctx context.Context, key, owner string) {
	UnLock(ctx, key, owner)
}
