package dto

import "github.com/goccy/go-json"

type CreateUserDTO struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"max=60"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=viewer editor admin"`
}

type ApproveDTO struct {
	Role string `json:"role" validate:"omitempty,oneof=viewer editor admin"`
}

// ActionDTO 通用动作入口 {kind, payload}
type ActionDTO struct {
	Kind    string          `json:"kind" validate:"required"`
	Payload json.RawMessage `json:"payload"`
}
