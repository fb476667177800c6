package backend

import (
	"context"
	"fmt"
	log "log/slog"
)

// Result 统一的返回结构 {success, data|error}
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	err error
}

// Err 返回原始错误，便于上层用 errors.Is 判断
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.err != nil {
		return r.err
	}
	return fmt.Errorf("%s", r.Error)
}

// Unwrap 以 (value, error) 形式取值
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Success: false, Error: err.Error(), err: err}
}

// call 执行 fn 并把错误与 panic 收敛为失败结果
func call[T any](ctx context.Context, op string, fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "backend operation panicked", "op", op, "panic", r)
			res = Fail[T](fmt.Errorf("%s: unexpected failure", op))
		}
	}()

	data, err := fn()
	if err != nil {
		log.WarnContext(ctx, "backend operation failed", "op", op, "err", err)
		return Fail[T](err)
	}
	return Ok(data)
}
