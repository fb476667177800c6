package service

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"Pibno/internal/pkg/consts"
	"Pibno/internal/pkg/util"
	"context"
	"errors"
	"io"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SourceLive     = "live"
	SourceSnapshot = "snapshot"
	SourceStatic   = "static"
)

var errEmptyFeed = errors.New("feed source returned no posts")

type PostService interface {
	Feed(ctx context.Context, query *dto.FeedQueryDTO) (*dto.FeedPageDTO, error)
	GetPost(ctx context.Context, id string) (*dto.PostDTO, error)
	Home(ctx context.Context) (*dto.HomeFeedDTO, error)
	RefreshSnapshot(ctx context.Context) (int, error)
	UploadMedia(ctx context.Context, caller *model.User, file io.ReadSeeker, size int64, name string) (*dto.MediaUploadDTO, error)
}

type PostOptions struct {
	PageSize         int
	SnapshotSize     int
	BootstrapTimeout time.Duration
	SnapshotFile     string
	MediaMaxBytes    int64
}

type PostServiceImpl struct {
	backend Backend
	cache   Cache
	opts    PostOptions
}

func NewPostService(b Backend, cache Cache, opts PostOptions) PostService {
	if opts.PageSize <= 0 {
		opts.PageSize = 8
	}
	if opts.SnapshotSize <= 0 {
		opts.SnapshotSize = 24
	}
	if opts.BootstrapTimeout <= 0 {
		opts.BootstrapTimeout = 1500 * time.Millisecond
	}
	return &PostServiceImpl{
		backend: b,
		cache:   cache,
		opts:    opts,
	}
}

// Feed 游标分页，返回条数少于 limit 即为最后一页
func (s *PostServiceImpl) Feed(ctx context.Context, query *dto.FeedQueryDTO) (*dto.FeedPageDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = s.opts.PageSize
	}
	cursor, err := util.DecodeCursor(query.Cursor)
	if err != nil {
		return nil, err
	}

	posts, err := s.backend.FetchPage(ctx, limit, cursor).Unwrap()
	if err != nil {
		return nil, err
	}
	items, err := toPostDTOs(posts)
	if err != nil {
		return nil, err
	}

	page := &dto.FeedPageDTO{
		Items:     items,
		Exhausted: len(posts) < limit,
	}
	if len(posts) > 0 && !page.Exhausted {
		page.NextCursor = util.EncodeCursor(*model.CursorOf(posts[len(posts)-1]))
	}
	return page, nil
}

func (s *PostServiceImpl) GetPost(ctx context.Context, id string) (*dto.PostDTO, error) {
	if id == "" {
		return nil, ErrParamInvalid
	}
	post, err := s.backend.GetPost(ctx, id).Unwrap()
	if err != nil {
		return nil, translate(err, ErrPostNotFound)
	}
	return toPostDTO(post)
}

type homeFeed struct {
	posts  []*model.Post
	source string
}

// Home 首页启动数据：实时查询与缓存快照赛跑，实时结果在截止时间前到达则优先
func (s *PostServiceImpl) Home(ctx context.Context) (*dto.HomeFeedDTO, error) {
	live := func(ctx context.Context) (homeFeed, error) {
		posts, err := s.backend.FetchPage(ctx, s.opts.SnapshotSize, nil).Unwrap()
		if err != nil {
			return homeFeed{}, err
		}
		if len(posts) == 0 {
			return homeFeed{}, errEmptyFeed
		}
		return homeFeed{posts: posts, source: SourceLive}, nil
	}

	feed, fromLive, err := util.RaceWithDeadline[homeFeed](ctx, s.opts.BootstrapTimeout, live, s.fallbackFeed)
	if err != nil {
		log.WarnContext(ctx, "home feed unavailable", "err", err)
		feed = homeFeed{source: SourceStatic}
	} else if !fromLive {
		log.InfoContext(ctx, "home feed served from fallback", "source", feed.source)
	}

	items, err := toPostDTOs(feed.posts)
	if err != nil {
		return nil, err
	}
	return &dto.HomeFeedDTO{Items: items, Source: feed.source}, nil
}

// fallbackFeed 先读 Redis 快照，再读静态文件
func (s *PostServiceImpl) fallbackFeed(ctx context.Context) (homeFeed, error) {
	raw, err := s.cache.Get(ctx, consts.FeedSnapshotKey)
	if err == nil && raw != "" {
		if posts, err := ParseBackup([]byte(raw)); err == nil && len(posts) > 0 {
			return homeFeed{posts: posts, source: SourceSnapshot}, nil
		}
	}
	if err != nil {
		log.WarnContext(ctx, "read feed snapshot failed", "err", err)
	}

	posts, err := s.readStatic()
	if err != nil {
		return homeFeed{}, err
	}
	if len(posts) == 0 {
		return homeFeed{}, errEmptyFeed
	}
	return homeFeed{posts: posts, source: SourceStatic}, nil
}

func (s *PostServiceImpl) readStatic() ([]*model.Post, error) {
	if s.opts.SnapshotFile == "" {
		return nil, errEmptyFeed
	}
	data, err := os.ReadFile(s.opts.SnapshotFile)
	if err != nil {
		return nil, err
	}
	posts, err := ParseBackup(data)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return posts, nil
}

// RefreshSnapshot 把最新的帖子写入 Redis 与静态文件，多实例下由锁保证只有一个执行
func (s *PostServiceImpl) RefreshSnapshot(ctx context.Context) (int, error) {
	owner := uuid.NewString()
	ok, err := s.cache.TryLock(ctx, consts.FeedSnapshotLock, owner, time.Minute, 1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	defer s.cache.UnLock(ctx, consts.FeedSnapshotLock, owner)

	posts, err := s.backend.FetchPage(ctx, s.opts.SnapshotSize, nil).Unwrap()
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, nil
	}
	data, err := EncodeBackup(posts)
	if err != nil {
		return 0, err
	}
	if err = s.cache.Set(ctx, consts.FeedSnapshotKey, string(data), 0); err != nil {
		return 0, err
	}
	if s.opts.SnapshotFile != "" {
		if err = writeFileAtomic(s.opts.SnapshotFile, data); err != nil {
			log.WarnContext(ctx, "write static feed failed", "file", s.opts.SnapshotFile, "err", err)
		}
	}
	return len(posts), nil
}

func writeFileAtomic(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), ".posts-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}

// UploadMedia 帖子配图与视频，写入 posts/ 前缀
func (s *PostServiceImpl) UploadMedia(ctx context.Context, caller *model.User, file io.ReadSeeker, size int64, name string) (*dto.MediaUploadDTO, error) {
	if !CanUser(caller, CapManagePosts) {
		return nil, ErrPermissionDenied
	}
	if s.opts.MediaMaxBytes > 0 && size > s.opts.MediaMaxBytes {
		return nil, ErrFileTooLarge
	}
	contentType, err := util.GetSafeContentType(file)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(contentType, consts.MimePrefixImage+"/") && !strings.HasPrefix(contentType, consts.MimePrefixVideo+"/") {
		return nil, ErrFileNotSupported
	}

	url, err := s.backend.UploadBlob(ctx, caller.ID, backend.BlobFile{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Reader:      file,
	}, consts.PostMediaPrefix).Unwrap()
	if err != nil {
		return nil, err
	}
	return &dto.MediaUploadDTO{URL: url, ContentType: contentType, Size: size}, nil
}
