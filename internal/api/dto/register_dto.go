package dto

type RegisterDTO struct {
	Username        string `json:"username" form:"username" validate:"required"`
	Name            string `json:"name" form:"name" validate:"required,max=60"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// CredentialDTO Identifier 为邮箱或用户名
type CredentialDTO struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required"`
	Password   string `json:"password" form:"password" validate:"required"`
}

type SessionDTO struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}
