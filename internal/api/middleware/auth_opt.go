package middleware

import (
	"github.com/gin-gonic/gin"
)

// AuthOptionalMiddleware 可选鉴权：解析成功注入身份，失败或缺失时按游客处理
func AuthOptionalMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := resolver.CurrentIdentity(c.Request.Context(), token).Unwrap()
		if err == nil && user != nil {
			setIdentity(c, token, user)
		}
		c.Next()
	}
}
