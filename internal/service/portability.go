package service

import (
	"Pibno/internal/model"
	"Pibno/internal/pkg/consts"
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Backup 导入导出的文件格式 {"posts": [...]}
type Backup struct {
	Posts []*model.Post `json:"posts"`
}

// ExportFileName pibno_posts_YYYY-MM-DD.json
func ExportFileName(now time.Time) string {
	return consts.ExportFilePrefix + now.Format("2006-01-02") + ".json"
}

// EncodeBackup 以缩进格式输出，按 createdAt 倒序
func EncodeBackup(posts []*model.Post) ([]byte, error) {
	out := make([]*model.Post, 0, len(posts))
	for _, p := range posts {
		if p != nil {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return json.MarshalIndent(Backup{Posts: out}, "", "  ")
}

// legacyPost 兼容旧文件：date 字段、Firestore 时间戳对象
type legacyPost struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Author         string          `json:"author"`
	AuthorID       string          `json:"authorId"`
	AuthorUsername string          `json:"authorUsername"`
	Content        string          `json:"content"`
	Excerpt        string          `json:"excerpt"`
	Type           string          `json:"type"`
	Image          string          `json:"image"`
	VideoID        string          `json:"videoId"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	Date           json.RawMessage `json:"date"`
	UpdatedAt      json.RawMessage `json:"updatedAt"`
}

// ParseBackup 解析备份文件。posts 缺失或不是数组时返回 ErrImportInvalid；
// 无法识别的单条记录被跳过
func ParseBackup(data []byte) ([]*model.Post, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrImportInvalid
	}
	raw, ok := doc["posts"]
	if !ok {
		return nil, ErrImportInvalid
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrImportInvalid
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrImportInvalid
	}

	posts := make([]*model.Post, 0, len(items))
	for _, item := range items {
		var lp legacyPost
		if err := json.Unmarshal(item, &lp); err != nil {
			continue
		}
		posts = append(posts, lp.toPost())
	}
	return posts, nil
}

func (lp *legacyPost) toPost() *model.Post {
	p := &model.Post{
		ID:             lp.ID,
		Title:          lp.Title,
		Author:         lp.Author,
		AuthorID:       lp.AuthorID,
		AuthorUsername: lp.AuthorUsername,
		Content:        lp.Content,
		Excerpt:        lp.Excerpt,
		Type:           lp.Type,
		Image:          lp.Image,
		VideoID:        lp.VideoID,
	}
	if t, ok := parseTimestamp(lp.CreatedAt); ok {
		p.CreatedAt = t
	} else if t, ok = parseTimestamp(lp.Date); ok {
		p.CreatedAt = t
	}
	if t, ok := parseTimestamp(lp.UpdatedAt); ok {
		p.UpdatedAt = t
	}
	return p
}

type firestoreTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp 支持 RFC3339 字符串、纯日期和 {seconds, nanoseconds} 对象
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	case '{':
		var ts firestoreTimestamp
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}, false
		}
		if ts.Seconds != nil {
			return time.Unix(*ts.Seconds, ts.Nanoseconds).UTC(), true
		}
		if ts.USeconds != nil {
			return time.Unix(*ts.USeconds, ts.UNanoseconds).UTC(), true
		}
	default:
		var ms int64
		if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
			return time.UnixMilli(ms).UTC(), true
		}
	}
	return time.Time{}, false
}

func sortNewestFirst(posts []*model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
