package util

import (
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// GetSafeContentType 按文件内容判断类型 (不信任扩展名与请求头)，读完后回到文件开头
func GetSafeContentType(r io.ReadSeeker) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	ct := mtype.String()
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct, nil
}

// PtrString 用于将 string 转换为 *string
func PtrString(s string) *string {
	return &s
}

// DerefString nil 视为空串
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
