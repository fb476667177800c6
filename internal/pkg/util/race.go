package util

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Source 一个可取消的数据源
type Source[T any] func(ctx context.Context) (T, error)

type sourceResult[T any] struct {
	value T
	err   error
}

func start[T any](ctx context.Context, src Source[T]) <-chan sourceResult[T] {
	ch := make(chan sourceResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- sourceResult[T]{err: fmt.Errorf("source panicked: %v", r)}
			}
		}()
		v, err := src(ctx)
		ch <- sourceResult[T]{value: v, err: err}
	}()
	return ch
}

// RaceWithDeadline 同时启动 live 与 fallback。
// live 在 deadline 前成功则直接采用 (两者都在 deadline 前完成时优先 live)；
// 超时或 live 失败后，取之后第一个成功的来源。fromLive 表示结果来源。
func RaceWithDeadline[T any](ctx context.Context, deadline time.Duration, live, fallback Source[T]) (value T, fromLive bool, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	liveCh := start(ctx, live)
	fallbackCh := start(ctx, fallback)

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	var liveErr, fallbackErr error
	select {
	case r := <-liveCh:
		if r.err == nil {
			return r.value, true, nil
		}
		liveErr = r.err
		liveCh = nil
	case <-timer.C:
		liveErr = fmt.Errorf("live source exceeded %s", deadline)
	case <-ctx.Done():
		return value, false, ctx.Err()
	}

	for liveCh != nil || fallbackCh != nil {
		select {
		case r := <-fallbackCh:
			if r.err == nil {
				return r.value, false, nil
			}
			fallbackErr = r.err
			fallbackCh = nil
		case r := <-liveCh:
			if r.err == nil {
				return r.value, true, nil
			}
			liveErr = r.err
			liveCh = nil
		case <-ctx.Done():
			return value, false, ctx.Err()
		}
	}
	return value, false, errors.Join(liveErr, fallbackErr)
}
