package model

import (
	"time"
)

type User struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	Username     string     `bson:"username" json:"username"`
	Name         string     `bson:"name" json:"name"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Role         string     `bson:"role" json:"role"`
	Approved     bool       `bson:"approved" json:"approved"`
	ApprovedAt   *time.Time `bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	AvatarURL    string     `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	Bio          string     `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"createdAt"`
}

// Active 已审核且角色非 pending
func (u *User) Active() bool {
	return u != nil && u.Approved && u.Role != RolePending
}

// UserPatch 用户资料的可变字段
type UserPatch struct {
	Name         *string `bson:"name,omitempty"`
	Email        *string `bson:"email,omitempty"`
	Bio          *string `bson:"bio,omitempty"`
	AvatarURL    *string `bson:"avatar_url,omitempty"`
	PasswordHash *string `bson:"password_hash,omitempty"`
}

func (p *UserPatch) Empty() bool {
	return p == nil || (p.Name == nil && p.Email == nil && p.Bio == nil &&
		p.AvatarURL == nil && p.PasswordHash == nil)
}
