package client

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/model"
	"Pibno/internal/pkg/util"
	"bytes"
	"context"
	"fmt"
	"mime"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// APIError 服务端返回 success=false 时的错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pibno api error %d: %s", e.Code, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Outcome 管理动作的执行结果
type Outcome struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// Client Pibno HTTP API 客户端
type Client struct {
	http     *resty.Client
	pageSize int
}

func New(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(20*time.Second).
		SetHeader("User-Agent", "pibnoctl").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &Client{http: http}
}

// SetToken 之后的请求都带上 Bearer Token
func (s *Client) SetToken(token string) *Client {
	s.http.SetAuthToken(token)
	return s
}

func decode[T any](resp *resty.Response, err error) (T, error) {
	var out T
	if err != nil {
		return out, errors.Wrap(err, "request failed")
	}
	var env envelope
	if err = json.Unmarshal(resp.Body(), &env); err != nil {
		return out, errors.Wrapf(err, "unexpected response (status %d)", resp.StatusCode())
	}
	if !env.Success {
		return out, &APIError{Code: env.Code, Message: env.Message}
	}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err = json.Unmarshal(env.Data, &out); err != nil {
			return out, errors.Wrap(err, "decode response data")
		}
	}
	return out, nil
}

// Login 登录成功后自动保存 Token
func (s *Client) Login(ctx context.Context, identifier, password string) (*dto.SessionDTO, error) {
	session, err := decode[*dto.SessionDTO](s.http.R().
		SetContext(ctx).
		SetBody(dto.CredentialDTO{Identifier: identifier, Password: password}).
		Post("/api/user/login"))
	if err != nil {
		return nil, err
	}
	s.SetToken(session.Token)
	return session, nil
}

func (s *Client) Me(ctx context.Context) (*dto.UserDTO, error) {
	me, err := decode[struct {
		User *dto.UserDTO `json:"user"`
	}](s.http.R().SetContext(ctx).Get("/api/user/me"))
	if err != nil {
		return nil, err
	}
	return me.User, nil
}

// Feed 按不透明游标拉取一页
func (s *Client) Feed(ctx context.Context, limit int, cursor string) (*dto.FeedPageDTO, error) {
	req := s.http.R().SetContext(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}
	return decode[*dto.FeedPageDTO](req.Get("/api/feed"))
}

// FetchPage 供 feed.Paginator 使用，游标在这里编码为服务端的不透明游标
func (s *Client) FetchPage(ctx context.Context, limit int, cursor *model.PostCursor) ([]*model.Post, error) {
	var token string
	if cursor != nil {
		token = util.EncodeCursor(*cursor)
	}
	page, err := s.Feed(ctx, limit, token)
	if err != nil {
		return nil, err
	}
	posts := make([]*model.Post, 0, len(page.Items))
	if err = copier.Copy(&posts, &page.Items); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Client) Home(ctx context.Context) (*dto.HomeFeedDTO, error) {
	return decode[*dto.HomeFeedDTO](s.http.R().SetContext(ctx).Get("/api/posts/home"))
}

// Export 返回备份内容与服务端建议的文件名
func (s *Client) Export(ctx context.Context) ([]byte, string, error) {
	resp, err := s.http.R().SetContext(ctx).Get("/api/admin/settings/export")
	if err != nil {
		return nil, "", errors.Wrap(err, "request failed")
	}
	_, params, perr := mime.ParseMediaType(resp.Header().Get("Content-Disposition"))
	if perr != nil || params["filename"] == "" {
		_, err = decode[json.RawMessage](resp, nil)
		if err == nil {
			err = errors.New("export response has no attachment")
		}
		return nil, "", err
	}
	return resp.Body(), params["filename"], nil
}

// Import 上传备份文件，返回成功导入的条数
func (s *Client) Import(ctx context.Context, name string, data []byte) (*Outcome, error) {
	res, err := decode[struct {
		Outcome *Outcome `json:"outcome"`
	}](s.http.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(data)).
		Post("/api/admin/settings/import"))
	if err != nil {
		return nil, err
	}
	return res.Outcome, nil
}

// UploadAvatar 上传原图与裁剪参数，返回新的头像地址
func (s *Client) UploadAvatar(ctx context.Context, name string, data []byte, crop dto.AvatarCropDTO) (string, error) {
	form := map[string]string{
		"offset_x": strconv.FormatFloat(crop.OffsetX, 'f', -1, 64),
		"offset_y": strconv.FormatFloat(crop.OffsetY, 'f', -1, 64),
	}
	if crop.Zoom > 0 {
		form["zoom"] = strconv.FormatFloat(crop.Zoom, 'f', -1, 64)
	}
	if crop.Viewport > 0 {
		form["viewport"] = strconv.FormatFloat(crop.Viewport, 'f', -1, 64)
	}
	res, err := decode[struct {
		AvatarURL string `json:"avatarUrl"`
	}](s.http.R().
		SetContext(ctx).
		SetFileReader("file", name, bytes.NewReader(data)).
		SetFormData(form).
		Post("/api/user/avatar"))
	if err != nil {
		return "", err
	}
	return res.AvatarURL, nil
}
