package dto

type CreatePostDTO struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
	Type    string `json:"type" validate:"omitempty,oneof=image video"`
	Image   string `json:"image" validate:"omitempty,url"`
	VideoID string `json:"videoId" validate:"omitempty,max=64"`
}

type UpdatePostDTO struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content *string `json:"content"`
	Type    *string `json:"type" validate:"omitempty,oneof=image video"`
	Image   *string `json:"image" validate:"omitempty,url"`
	VideoID *string `json:"videoId" validate:"omitempty,max=64"`
}
