package logger

import (
	"Pibno/internal/api/config"
	"io"
	log "log/slog"
	"os"
	"strings"
)

var LogWriter io.Writer = os.Stdout

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// InitLogger 初始化默认 slog，配置了 log.file 时请求链路日志同时写入文件
func InitLogger() {
	cfg := config.Cfg.Log
	opts := &log.HandlerOptions{Level: parseLevel(cfg.Level)}

	hStdout := log.NewJSONHandler(os.Stdout, opts)

	var finalHandler log.Handler = hStdout

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			hFile := log.NewJSONHandler(f, opts)
			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, &TraceFilterHandler{next: hFile}},
			}
			LogWriter = io.MultiWriter(os.Stdout, f)
		} else {
			log.Warn("Failed to open log file, logging to stdout only", "file", cfg.File, "err", err)
		}
	}

	logger := log.New(&ContextHandler{finalHandler})
	log.SetDefault(logger)
}
