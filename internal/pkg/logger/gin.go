package logger

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

func accessLine(p gin.LogFormatterParams) string {
	var traceID string
	if p.Keys != nil {
		if id, ok := p.Keys[TraceIDKey].(string); ok {
			traceID = id
		}
	}

	if traceID == "" && p.Request != nil {
		if id, ok := p.Request.Context().Value(TraceIDKey).(string); ok {
			traceID = id
		}
	}

	return fmt.Sprintf(
		`{"time":"%s","level":"INFO","msg":"GIN_ACCESS","trace_id":"%s","method":"%s","path":"%s","status":%d,"latency":"%v","client_ip":"%s"}`+"\n",
		p.TimeStamp.Format(time.RFC3339),
		traceID,
		p.Method,
		p.Path,
		p.StatusCode,
		p.Latency,
		p.ClientIP,
	)
}

func SetupGin(r *gin.Engine) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		Formatter: accessLine,
		SkipPaths: []string{"/api/ping"},
	}))

	r.Use(gin.Recovery())
}
