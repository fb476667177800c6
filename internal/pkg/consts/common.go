package consts

const (
	MimePrefixImage = "image"
	MimePrefixVideo = "video"
)

const (
	AvatarPathPrefix = "avatars"
	PostMediaPrefix  = "posts"
)

// ExportFilePrefix 导出文件名 pibno_posts_YYYY-MM-DD.json
const ExportFilePrefix = "pibno_posts_"

// gin.Context 中的身份键
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxCaller = "caller"
	CtxToken  = "token"
)
