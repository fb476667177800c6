package middleware

import (
	"Pibno/internal/pkg/response"
	"Pibno/internal/service"

	"github.com/gin-gonic/gin"
)

// RequireApproved 待审核账号无法进入管理接口
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Caller(c).Active() {
			response.Fail(c, response.Forbidden, service.ErrAccountPending.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCapability 检查当前用户的角色是否拥有全部指定能力
func RequireCapability(required ...service.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := Caller(c)
		for _, capability := range required {
			if !service.CanUser(caller, capability) {
				response.Fail(c, response.Forbidden, service.ErrPermissionDenied.Error())
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
