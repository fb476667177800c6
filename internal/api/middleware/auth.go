package middleware

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"Pibno/internal/pkg/consts"
	"Pibno/internal/pkg/response"
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityResolver 把 Token 解析为当前用户
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) backend.Result[*model.User]
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

func setIdentity(c *gin.Context, token string, user *model.User) {
	c.Set(consts.CtxToken, token)
	c.Set(consts.CtxUserID, user.ID)
	c.Set(consts.CtxRole, user.Role)
	c.Set(consts.CtxCaller, user)
}

// AuthMiddleware 负责验证 JWT 并将用户身份信息注入 Context
func AuthMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Fail(c, response.Unauthorized, "missing or malformed token")
			c.Abort()
			return
		}

		user, err := resolver.CurrentIdentity(c.Request.Context(), token).Unwrap()
		if err != nil {
			if errors.Is(err, backend.ErrUnauthenticated) {
				response.Fail(c, response.Unauthorized, "token is invalid or expired")
			} else {
				response.Fail(c, response.InternalServerError, "unable to verify session")
			}
			c.Abort()
			return
		}
		if user == nil {
			response.Fail(c, response.Unauthorized, "token is invalid or expired")
			c.Abort()
			return
		}

		setIdentity(c, token, user)
		c.Next()
	}
}

// Caller 当前登录用户，未登录时为 nil
func Caller(c *gin.Context) *model.User {
	v, ok := c.Get(consts.CtxCaller)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
