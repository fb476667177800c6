package api

import (
	"Pibno/internal/api/handler"
	"Pibno/internal/api/middleware"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	UserHandler  *handler.UserHandler
	PostHandler  *handler.PostHandler
	AdminHandler *handler.AdminHandler

	// Identity 鉴权中间件使用的身份解析器
	Identity middleware.IdentityResolver
}
