package service

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"Pibno/internal/pkg/util"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"
)

// DefaultAdmin 启动时保证存在的管理员账号
type DefaultAdmin struct {
	Username string
	Name     string
	Email    string
	Password string
}

// EnsureDefaultAdmin 账号缺失时创建；已存在但权限被改动时恢复为 admin
func EnsureDefaultAdmin(ctx context.Context, b Backend, admin DefaultAdmin) error {
	username := util.NormalizeUsername(admin.Username)
	if err := util.ValidateUsername(username); err != nil {
		return err
	}

	existing, err := b.GetUserByUsername(ctx, username).Unwrap()
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin || !existing.Approved {
			log.WarnContext(ctx, "restoring default admin role", "username", username)
			return b.SetRole(ctx, existing.ID, model.RoleAdmin).Err()
		}
		return nil
	case !errors.Is(err, backend.ErrNotFound):
		return err
	}

	if err = util.ValidatePassword(admin.Password, ""); err != nil {
		return err
	}
	now := time.Now()
	user := &model.User{
		Username:   username,
		Name:       strings.TrimSpace(admin.Name),
		Email:      strings.TrimSpace(admin.Email),
		Role:       model.RoleAdmin,
		Approved:   true,
		ApprovedAt: &now,
	}
	if user.Name == "" {
		user.Name = username
	}
	id, err := b.CreateUser(ctx, user, admin.Password).Unwrap()
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "default admin created", "user_id", id, "username", username)
	return nil
}
