package dto

// ChangePasswordDTO 修改当前登录用户的密码，两次输入需一致
type ChangePasswordDTO struct {
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}
