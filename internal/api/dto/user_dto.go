package dto

import "time"

type UserDTO struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Name       string     `json:"name"`
	Email      string     `json:"email,omitempty"`
	Role       string     `json:"role"`
	Approved   bool       `json:"approved"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	AvatarURL  string     `json:"avatarUrl,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ProfileDTO 个人资料可修改的字段
type ProfileDTO struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=60"`
	Bio  *string `json:"bio" validate:"omitempty,max=500"`
}

// AvatarCropDTO 头像编辑器参数，随 multipart 表单提交
type AvatarCropDTO struct {
	Zoom     float64 `form:"zoom" validate:"omitempty,min=50,max=200"`
	OffsetX  float64 `form:"offset_x"`
	OffsetY  float64 `form:"offset_y"`
	Viewport float64 `form:"viewport" validate:"omitempty,min=1,max=4096"`
}

// UserPageDTO 公开的个人主页
type UserPageDTO struct {
	User  *UserDTO   `json:"user"`
	Posts []*PostDTO `json:"posts"`
}
