package api

import (
	"Pibno/internal/api/middleware"
	"Pibno/internal/pkg/logger"
	"Pibno/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouterOptions 路由层的部署相关配置
type RouterOptions struct {
	TrustedProxies []string
	CORSOrigins    []string
}

func SetupRouter(group *HandlersGroup, opts RouterOptions) *gin.Engine {
	r := gin.New()
	trustedProxies := opts.TrustedProxies
	if len(trustedProxies) == 0 {
		trustedProxies = []string{"localhost"}
	}
	_ = r.SetTrustedProxies(trustedProxies)

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(opts.CORSOrigins...))
	logger.SetupGin(r)

	auth := middleware.AuthMiddleware(group.Identity)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		userGroup := apiGroup.Group("/user")
		{
			// 无需登录即可访问的接口
			userGroup.POST("/register", group.UserHandler.Register)
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.GET("/by-username/:username", group.UserHandler.GetUserByUsername)

			authGroup := userGroup.Group("")
			authGroup.Use(auth)
			{
				authGroup.POST("/logout", group.UserHandler.Logout)
				authGroup.GET("/me", group.UserHandler.Me)
				authGroup.PUT("/profile", group.UserHandler.UpdateProfile)
				authGroup.POST("/avatar", group.UserHandler.UploadAvatar)
			}

			userGroup.GET("/:id", group.UserHandler.GetUser)
			userGroup.GET("/:id/posts", group.UserHandler.GetUserPage)
		}

		apiGroup.GET("/feed", group.PostHandler.Feed)
		postGroup := apiGroup.Group("/posts")
		{
			postGroup.GET("/home", group.PostHandler.Home)
			postGroup.GET("/:id", group.PostHandler.GetPost)
		}

		// 需要登录 & 已审核，具体能力逐组检查
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(auth, middleware.RequireApproved())
		{
			adminGroup.POST("/actions", group.AdminHandler.Action)

			postsGroup := adminGroup.Group("")
			postsGroup.Use(middleware.RequireCapability(service.CapViewPosts))
			{
				postsGroup.GET("/posts", group.AdminHandler.State)
			}

			managePosts := adminGroup.Group("")
			managePosts.Use(middleware.RequireCapability(service.CapManagePosts))
			{
				managePosts.POST("/posts", group.AdminHandler.CreatePost)
				managePosts.PUT("/posts/:id", group.AdminHandler.UpdatePost)
				managePosts.DELETE("/posts/:id", group.AdminHandler.DeletePost)
				managePosts.POST("/media", group.AdminHandler.UploadMedia)
			}

			usersGroup := adminGroup.Group("/users")
			usersGroup.Use(middleware.RequireCapability(service.CapViewUsers))
			{
				usersGroup.GET("", group.AdminHandler.State)

				manageUsers := usersGroup.Group("")
				manageUsers.Use(middleware.RequireCapability(service.CapManageUsers))
				{
					manageUsers.POST("", group.AdminHandler.CreateUser)
					manageUsers.POST("/:id/approve", group.AdminHandler.ApproveUser)
					manageUsers.POST("/:id/reject", group.AdminHandler.RejectUser)
					manageUsers.DELETE("/:id", group.AdminHandler.DeleteUser)
				}
			}

			settingsGroup := adminGroup.Group("/settings")
			settingsGroup.Use(middleware.RequireCapability(service.CapSettings))
			{
				settingsGroup.GET("/export", group.AdminHandler.Export)
				settingsGroup.POST("/import", group.AdminHandler.Import)
				settingsGroup.POST("/password", group.AdminHandler.ChangePassword)
			}
		}
	}

	return r
}
