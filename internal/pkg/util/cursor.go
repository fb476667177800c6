package util

import (
	"Pibno/internal/model"
	"encoding/base64"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

var ErrCursorInvalid = errors.New("invalid cursor")

type feedCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"id,omitempty"`
}

// EncodeCursor 将最后一条帖子的位置 (createdAt + id) 编码为不透明的 Base64 字符串
func EncodeCursor(c model.PostCursor) string {
	if c.CreatedAt.IsZero() {
		return ""
	}
	b, _ := json.Marshal(feedCursor{CreatedAt: c.CreatedAt.UTC(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor 空串表示第一页，返回 nil。只含时间的旧游标仍然有效
func DecodeCursor(cursor string) (*model.PostCursor, error) {
	if cursor == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrCursorInvalid
	}
	var c feedCursor
	if err = json.Unmarshal(b, &c); err != nil || c.CreatedAt.IsZero() {
		return nil, ErrCursorInvalid
	}
	return &model.PostCursor{CreatedAt: c.CreatedAt, ID: c.ID}, nil
}
