package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const auditBodyLimit = 16384

var secretField = regexp.MustCompile(`"((?:new_|confirm_)?password|confirm|token)"\s*:\s*"[^"]*"`)

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if r.body.Len() < auditBodyLimit {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// redact 屏蔽密码与令牌字段
func redact(body []byte) string {
	return secretField.ReplaceAllString(string(body), `"$1":"***"`)
}

func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// 文件上传与导入不记录请求体
		reqBody := "[omitted]"
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") && !strings.HasSuffix(c.Request.URL.Path, "/import") {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			if len(raw) > auditBodyLimit {
				raw = raw[:auditBodyLimit]
			}
			reqBody = redact(raw)
		}

		rawQuery := c.Request.URL.RawQuery
		decodedQuery, err := url.QueryUnescape(rawQuery)
		if err != nil {
			decodedQuery = rawQuery
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", decodedQuery),
			log.String("req_body", reqBody),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		resBody := "[omitted]"
		if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && !strings.HasSuffix(c.Request.URL.Path, "/export") {
			resBody = redact(w.body.Bytes())
		}
		log.InfoContext(ctx, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", resBody),
		)
	}
}
