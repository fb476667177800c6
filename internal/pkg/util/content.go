package util

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const ExcerptLen = 200

var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML 过滤富文本中的脚本和事件属性，保留常见排版标签
func SanitizeHTML(raw string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(raw))
}

// PlainText 提取 HTML 中的文本并折叠空白
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Excerpt 取纯文本前 limit 个字符，截断时追加省略号
func Excerpt(html string, limit int) string {
	text := PlainText(html)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
