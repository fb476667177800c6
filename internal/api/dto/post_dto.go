package dto

import "time"

type PostDTO struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	AuthorID       string    `json:"authorId,omitempty"`
	AuthorUsername string    `json:"authorUsername,omitempty"`
	Content        string    `json:"content"`
	Excerpt        string    `json:"excerpt,omitempty"`
	Type           string    `json:"type"`
	Image          string    `json:"image,omitempty"`
	VideoID        string    `json:"videoId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type FeedQueryDTO struct {
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=50"`
	Cursor string `form:"cursor"`
}

// FeedPageDTO NextCursor 为空表示没有更多
type FeedPageDTO struct {
	Items      []*PostDTO `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
	Exhausted  bool       `json:"exhausted"`
}

// HomeFeedDTO Source 取值 live / snapshot / static
type HomeFeedDTO struct {
	Items  []*PostDTO `json:"items"`
	Source string     `json:"source"`
}
