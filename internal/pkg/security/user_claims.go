package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret         = []byte("pibno-dev-secret")
	jwtIssuer         = "Pibno"
	JWTExpirationTime = time.Hour * 24
)

// Init 使用配置覆盖默认的签名密钥与过期时间
func Init(secret, issuer string, ttl time.Duration) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if issuer != "" {
		jwtIssuer = issuer
	}
	if ttl > 0 {
		JWTExpirationTime = ttl
	}
}

// UserClaims Token 中携带的身份信息，角色仅作参考，鉴权以数据库为准
type UserClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
