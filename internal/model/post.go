package model

import (
	"time"
)

const (
	PostTypeImage = "image"
	PostTypeVideo = "video"
)

// Post 帖子，按 createdAt 排序，相同时以 id 决胜
type Post struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Title          string    `bson:"title" json:"title"`
	Author         string    `bson:"author" json:"author"`
	AuthorID       string    `bson:"author_id,omitempty" json:"authorId,omitempty"`
	AuthorUsername string    `bson:"author_username,omitempty" json:"authorUsername,omitempty"`
	Content        string    `bson:"content" json:"content"`
	Excerpt        string    `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Type           string    `bson:"type" json:"type"`
	Image          string    `bson:"image,omitempty" json:"image,omitempty"`
	VideoID        string    `bson:"video_id,omitempty" json:"videoId,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// PostPatch 帖子的可变字段，nil 表示不修改
type PostPatch struct {
	Title   *string `bson:"title,omitempty"`
	Content *string `bson:"content,omitempty"`
	Excerpt *string `bson:"excerpt,omitempty"`
	Type    *string `bson:"type,omitempty"`
	Image   *string `bson:"image,omitempty"`
	VideoID *string `bson:"video_id,omitempty"`
}

func (p *PostPatch) Empty() bool {
	return p == nil || (p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		p.Type == nil && p.Image == nil && p.VideoID == nil)
}

// PostCursor 分页位置。排序为 createdAt 倒序，createdAt 相同时按 id 倒序
type PostCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorOf 以帖子自身的位置作为游标
func CursorOf(p *Post) *PostCursor {
	return &PostCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}

// Precedes 报告 p 是否严格排在游标之后 (更旧)。
// 没有 ID 的游标只比较时间
func (c *PostCursor) Precedes(p *Post) bool {
	if p.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	return c.ID != "" && p.CreatedAt.Equal(c.CreatedAt) && p.ID < c.ID
}
