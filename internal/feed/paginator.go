// Package feed drives the infinite-scroll post list: cursor bookkeeping,
// end-of-data detection and fetch-on-scroll.
package feed

import (
	"Pibno/internal/model"
	"context"
	log "log/slog"
	"sync"
)

const (
	PageSize          = 8
	ScrollThresholdPx = 300
)

const (
	StatusIdle    = ""
	StatusLoading = "loading"
	StatusFailed  = "failed to load"
	StatusEnd     = "no more posts"
)

// PageFetcher 拉取 cursor 之后 (更旧) 的一页，cursor 为 nil 时取最新一页
type PageFetcher interface {
	FetchPage(ctx context.Context, limit int, cursor *model.PostCursor) ([]*model.Post, error)
}

// ScrollPosition 对应浏览器的 innerHeight / scrollY / document 高度
type ScrollPosition struct {
	ViewportHeight float64
	ScrollY        float64
	DocumentHeight float64
}

// NearBottom 距离底部不超过 ScrollThresholdPx
func (p ScrollPosition) NearBottom() bool {
	return p.ViewportHeight+p.ScrollY >= p.DocumentHeight-ScrollThresholdPx
}

type Option func(*Paginator)

func WithPageSize(n int) Option {
	return func(p *Paginator) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

type Paginator struct {
	fetcher  PageFetcher
	pageSize int

	mu        sync.Mutex
	items     []*model.Post
	seen      map[string]struct{}
	cursor    *model.PostCursor
	exhausted bool
	inFlight  bool
	status    string
}

func NewPaginator(fetcher PageFetcher, opts ...Option) *Paginator {
	p := &Paginator{
		fetcher:  fetcher,
		pageSize: PageSize,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start 首次加载
func (s *Paginator) Start(ctx context.Context) (int, error) {
	return s.LoadMore(ctx)
}

// OnScroll 接近底部时触发加载
func (s *Paginator) OnScroll(ctx context.Context, pos ScrollPosition) (int, error) {
	if !pos.NearBottom() {
		return 0, nil
	}
	return s.LoadMore(ctx)
}

// LoadMore 加载下一页并返回追加的条数。
// 正在加载或已到末尾时直接返回；in-flight 标记在发起请求前于锁内置位。
func (s *Paginator) LoadMore(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.inFlight || s.exhausted {
		s.mu.Unlock()
		return 0, nil
	}
	s.inFlight = true
	s.status = StatusLoading
	var cursor *model.PostCursor
	if s.cursor != nil {
		c := *s.cursor
		cursor = &c
	}
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, s.pageSize, cursor)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		log.WarnContext(ctx, "feed page failed", "err", err)
		s.status = StatusFailed
		return 0, err
	}

	// 只与请求时的游标比较，同一页内 createdAt 相同的帖子全部保留
	appended := 0
	for _, post := range page {
		if post == nil {
			continue
		}
		if cursor != nil && !cursor.Precedes(post) {
			continue
		}
		if _, dup := s.seen[post.ID]; dup {
			continue
		}
		s.seen[post.ID] = struct{}{}
		s.items = append(s.items, post)
		s.cursor = model.CursorOf(post)
		appended++
	}

	s.exhausted = len(page) < s.pageSize
	if s.exhausted {
		s.status = StatusEnd
	} else {
		s.status = StatusIdle
	}
	return appended, nil
}

// Items 已加载帖子的副本
func (s *Paginator) Items() []*model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Post, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Paginator) Cursor() *model.PostCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == nil {
		return nil
	}
	c := *s.cursor
	return &c
}

func (s *Paginator) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

func (s *Paginator) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Paginator) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
