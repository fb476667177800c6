package consts

const (
	TokenRevokedKey = "auth:revoked:"
	UserProfileKey  = "user:profile:"
	FeedSnapshotKey = "feed:snapshot"
)

const (
	UsernameRegisterLock = "lock:register:username:"
	FeedSnapshotLock     = "lock:feed:snapshot"
)
