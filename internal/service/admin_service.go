package service

import (
	"Pibno/internal/backend"
	"Pibno/internal/model"
	"Pibno/internal/pkg/util"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"
	"time"
)

const (
	TabAll     = "all"
	TabPending = "pending"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// AdminState 管理面板的完整视图状态，只通过 Dispatch 修改
type AdminState struct {
	Caller       *model.User   `json:"caller"`
	Capabilities []Capability  `json:"capabilities"`
	Tab          string        `json:"tab"`
	Posts        []*model.Post `json:"posts"`
	Users        []*model.User `json:"users"`
	Pending      []*model.User `json:"pending"`
	Flash        *Flash        `json:"flash,omitempty"`
}

// Outcome 动作执行结果
type Outcome struct {
	Kind    ActionKind `json:"kind"`
	Message string     `json:"message"`
	ID      string     `json:"id,omitempty"`
	Count   int        `json:"count,omitempty"`
}

// AdminOptions 受保护账号与默认封面
type AdminOptions struct {
	ProtectedUsername string
	DefaultImage      string
}

type AdminService interface {
	Open(ctx context.Context, caller *model.User, tab string) (*AdminController, error)
	Controller(caller *model.User, tab string) (*AdminController, error)
	Export(ctx context.Context, caller *model.User) ([]byte, string, error)
}

type AdminServiceImpl struct {
	backend Backend
	opts    AdminOptions
	now     func() time.Time
}

func NewAdminService(backend Backend, opts AdminOptions) AdminService {
	return &AdminServiceImpl{
		backend: backend,
		opts:    opts,
		now:     time.Now,
	}
}

// Open 为一次请求构建控制器并加载首屏数据
func (s *AdminServiceImpl) Open(ctx context.Context, caller *model.User, tab string) (*AdminController, error) {
	c, err := s.Controller(caller, tab)
	if err != nil {
		return nil, err
	}
	if err = c.refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Controller 只做身份与 tab 校验，状态在第一次成功的 Dispatch 之后加载
func (s *AdminServiceImpl) Controller(caller *model.User, tab string) (*AdminController, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	if !caller.Active() {
		return nil, ErrAccountPending
	}
	tab = strings.ToLower(strings.TrimSpace(tab))
	if tab == "" {
		tab = TabAll
	}
	if tab != TabAll && tab != TabPending && !model.IsApprovedRole(tab) {
		return nil, ErrParamInvalid
	}

	c := newAdminController(s.backend, s.opts, caller, tab)
	c.now = s.now
	return c, nil
}

// Export 导出全部帖子，返回文件内容与文件名
func (s *AdminServiceImpl) Export(ctx context.Context, caller *model.User) ([]byte, string, error) {
	if !CanUser(caller, CapSettings) {
		return nil, "", ErrPermissionDenied
	}
	posts, err := s.backend.AllPosts(ctx).Unwrap()
	if err != nil {
		return nil, "", err
	}
	data, err := EncodeBackup(posts)
	if err != nil {
		return nil, "", err
	}
	return data, ExportFileName(s.now()), nil
}

type actionHandler func(ctx context.Context, a Action) (Outcome, error)

// AdminController 持有一次会话的 AdminState，并把动作分发给对应的处理函数
type AdminController struct {
	backend  Backend
	opts     AdminOptions
	now      func() time.Time
	handlers map[ActionKind]actionHandler

	mu    sync.Mutex
	state AdminState
}

func newAdminController(b Backend, opts AdminOptions, caller *model.User, tab string) *AdminController {
	c := &AdminController{
		backend: b,
		opts:    opts,
		now:     time.Now,
		state: AdminState{
			Caller:       caller,
			Capabilities: Capabilities(caller.Role),
			Tab:          tab,
		},
	}
	c.handlers = map[ActionKind]actionHandler{
		ActionCreatePost:     handle(c.createPost),
		ActionUpdatePost:     handle(c.updatePost),
		ActionDeletePost:     handle(c.deletePost),
		ActionCreateUser:     handle(c.createUser),
		ActionApproveUser:    handle(c.approveUser),
		ActionRejectUser:     handle(c.rejectUser),
		ActionDeleteUser:     handle(c.deleteUser),
		ActionImportPosts:    handle(c.importPosts),
		ActionChangePassword: handle(c.changePassword),
	}
	return c
}

func handle[A Action](fn func(context.Context, A) (Outcome, error)) actionHandler {
	return func(ctx context.Context, a Action) (Outcome, error) {
		typed, ok := a.(A)
		if !ok {
			return Outcome{}, ErrActionUnknown
		}
		return fn(ctx, typed)
	}
}

// State 当前状态的快照
func (c *AdminController) State() AdminState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch 执行动作。能力检查先于任何后端调用；成功后刷新视图
func (c *AdminController) Dispatch(ctx context.Context, action Action) (Outcome, error) {
	if action == nil {
		return Outcome{}, ErrActionUnknown
	}
	h, ok := c.handlers[action.Kind()]
	if !ok {
		return Outcome{}, ErrActionUnknown
	}

	c.mu.Lock()
	caller := c.state.Caller
	c.mu.Unlock()

	if !CanUser(caller, action.Required()) {
		c.setFlash(FlashError, ErrPermissionDenied.Error())
		return Outcome{Kind: action.Kind()}, ErrPermissionDenied
	}

	out, err := h(ctx, action)
	out.Kind = action.Kind()
	if err != nil {
		c.setFlash(FlashError, err.Error())
		return out, err
	}
	c.setFlash(FlashSuccess, out.Message)

	if err = c.refresh(ctx); err != nil {
		log.WarnContext(ctx, "admin view refresh failed", "action", action.Kind(), "err", err)
	}
	return out, nil
}

func (c *AdminController) setFlash(kind, msg string) {
	c.mu.Lock()
	c.state.Flash = &Flash{Kind: kind, Message: msg}
	c.mu.Unlock()
}

func (c *AdminController) refresh(ctx context.Context) error {
	c.mu.Lock()
	caller, tab := c.state.Caller, c.state.Tab
	c.mu.Unlock()

	var (
		posts          []*model.Post
		users, pending []*model.User
		err            error
	)
	if CanUser(caller, CapViewPosts) {
		if posts, err = c.backend.AllPosts(ctx).Unwrap(); err != nil {
			return err
		}
	}
	if CanUser(caller, CapViewUsers) {
		if pending, err = c.backend.ListPendingUsers(ctx).Unwrap(); err != nil {
			return err
		}
		switch tab {
		case TabAll:
			users, err = c.backend.ListUsers(ctx).Unwrap()
		case TabPending:
			users = pending
		default:
			users, err = c.backend.ListUsersByRole(ctx, tab).Unwrap()
		}
		if err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.state.Posts = posts
	c.state.Users = users
	c.state.Pending = pending
	c.mu.Unlock()
	return nil
}

func (c *AdminController) caller() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Caller
}

func (c *AdminController) createPost(ctx context.Context, a CreatePost) (Outcome, error) {
	post, err := c.buildPost(&model.Post{
		Title:   a.Title,
		Content: a.Content,
		Type:    a.Type,
		Image:   a.Image,
		VideoID: a.VideoID,
	})
	if err != nil {
		return Outcome{}, err
	}
	caller := c.caller()
	post.AuthorID = caller.ID
	post.AuthorUsername = caller.Username
	post.Author = displayName(caller)

	id, err := c.backend.CreatePost(ctx, post).Unwrap()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: "post published", ID: id}, nil
}

// buildPost 规范化帖子字段：清洗正文、生成摘要、补默认封面
func (c *AdminController) buildPost(p *model.Post) (*model.Post, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, ErrParamInvalid
	}
	if p.Type == "" {
		p.Type = model.PostTypeImage
	}
	switch p.Type {
	case model.PostTypeImage:
		p.VideoID = ""
		if strings.TrimSpace(p.Image) == "" {
			p.Image = c.opts.DefaultImage
		}
	case model.PostTypeVideo:
		p.VideoID = strings.TrimSpace(p.VideoID)
		if p.VideoID == "" {
			return nil, ErrVideoIDRequired
		}
	default:
		return nil, ErrParamInvalid
	}
	p.Content = util.SanitizeHTML(p.Content)
	p.Excerpt = util.Excerpt(p.Content, util.ExcerptLen)
	return p, nil
}

func (c *AdminController) updatePost(ctx context.Context, a UpdatePost) (Outcome, error) {
	if a.ID == "" {
		return Outcome{}, ErrParamInvalid
	}
	current, err := c.backend.GetPost(ctx, a.ID).Unwrap()
	if err != nil {
		return Outcome{}, translate(err, ErrPostNotFound)
	}

	patch := &model.PostPatch{Type: a.Type, Image: a.Image, VideoID: a.VideoID}
	if a.Title != nil {
		title := strings.TrimSpace(*a.Title)
		if title == "" {
			return Outcome{}, ErrParamInvalid
		}
		patch.Title = &title
	}
	if a.Content != nil {
		content := util.SanitizeHTML(*a.Content)
		excerpt := util.Excerpt(content, util.ExcerptLen)
		patch.Content, patch.Excerpt = &content, &excerpt
	}

	postType := current.Type
	if patch.Type != nil {
		postType = *patch.Type
	}
	videoID := current.VideoID
	if patch.VideoID != nil {
		videoID = strings.TrimSpace(*patch.VideoID)
	}
	switch postType {
	case model.PostTypeImage:
	case model.PostTypeVideo:
		if videoID == "" {
			return Outcome{}, ErrVideoIDRequired
		}
	default:
		return Outcome{}, ErrParamInvalid
	}

	if err = c.backend.UpdatePost(ctx, a.ID, patch).Err(); err != nil {
		return Outcome{}, translate(err, ErrPostNotFound)
	}
	return Outcome{Message: "post updated", ID: a.ID}, nil
}

func (c *AdminController) deletePost(ctx context.Context, a DeletePost) (Outcome, error) {
	if a.ID == "" {
		return Outcome{}, ErrParamInvalid
	}
	if err := c.backend.DeletePost(ctx, a.ID).Err(); err != nil {
		return Outcome{}, translate(err, ErrPostNotFound)
	}
	return Outcome{Message: "post deleted", ID: a.ID}, nil
}

func (c *AdminController) createUser(ctx context.Context, a CreateUser) (Outcome, error) {
	username := util.NormalizeUsername(a.Username)
	if err := util.ValidateUsername(username); err != nil {
		return Outcome{}, err
	}
	if err := util.ValidatePassword(a.Password, ""); err != nil {
		return Outcome{}, err
	}
	role := a.Role
	if role == "" {
		role = model.RoleEditor
	}
	if !model.IsApprovedRole(role) {
		return Outcome{}, ErrRoleInvalid
	}
	if err := ensureUsernameFree(ctx, c.backend, username); err != nil {
		return Outcome{}, err
	}
	email := util.NormalizeEmail(a.Email)
	if err := ensureEmailFree(ctx, c.backend, email); err != nil {
		return Outcome{}, err
	}

	now := c.now()
	user := &model.User{
		Username:   username,
		Name:       strings.TrimSpace(a.Name),
		Email:      email,
		Role:       role,
		Approved:   true,
		ApprovedAt: &now,
	}
	if user.Name == "" {
		user.Name = username
	}
	id, err := c.backend.CreateUser(ctx, user, a.Password).Unwrap()
	if err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	return Outcome{Message: fmt.Sprintf("user @%s created", username), ID: id}, nil
}

func (c *AdminController) approveUser(ctx context.Context, a ApproveUser) (Outcome, error) {
	if a.ID == "" {
		return Outcome{}, ErrParamInvalid
	}
	role := a.Role
	if role == "" {
		role = model.RoleEditor
	}
	if !model.IsApprovedRole(role) {
		return Outcome{}, ErrRoleInvalid
	}
	// 只审核待审核列表中的用户，已启用账号 (含默认管理员与自己) 不走这里
	user, err := c.backend.GetUser(ctx, a.ID).Unwrap()
	if err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	if user.Active() {
		return Outcome{}, ErrNotPending
	}
	if err = c.backend.SetRole(ctx, a.ID, role).Err(); err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	return Outcome{Message: "user approved as " + role, ID: a.ID}, nil
}

func (c *AdminController) rejectUser(ctx context.Context, a RejectUser) (Outcome, error) {
	if a.ID == "" {
		return Outcome{}, ErrParamInvalid
	}
	user, err := c.backend.GetUser(ctx, a.ID).Unwrap()
	if err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	if user.Active() {
		return Outcome{}, ErrNotPending
	}
	if err = c.backend.DeleteUser(ctx, a.ID).Err(); err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	return Outcome{Message: "registration rejected", ID: a.ID}, nil
}

func (c *AdminController) deleteUser(ctx context.Context, a DeleteUser) (Outcome, error) {
	if a.ID == "" {
		return Outcome{}, ErrParamInvalid
	}
	if a.ID == c.caller().ID {
		return Outcome{}, ErrSelfDelete
	}
	user, err := c.backend.GetUser(ctx, a.ID).Unwrap()
	if err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	if c.opts.ProtectedUsername != "" && strings.EqualFold(user.Username, c.opts.ProtectedUsername) {
		return Outcome{}, ErrProtectedAdmin
	}
	if err = c.backend.DeleteUser(ctx, a.ID).Err(); err != nil {
		return Outcome{}, translate(err, ErrUserNotFound)
	}
	return Outcome{Message: fmt.Sprintf("user @%s deleted", user.Username), ID: a.ID}, nil
}

// importPosts 逐条写入，单条失败不影响其它记录
func (c *AdminController) importPosts(ctx context.Context, a ImportPosts) (Outcome, error) {
	posts, err := ParseBackup(a.Raw)
	if err != nil {
		return Outcome{}, err
	}
	caller := c.caller()
	imported := 0
	for _, p := range posts {
		p.ID = ""
		if p.Author == "" {
			p.Author = displayName(caller)
		}
		post, err := c.buildPost(p)
		if err != nil {
			log.WarnContext(ctx, "skip imported post", "title", p.Title, "err", err)
			continue
		}
		if err = c.backend.CreatePost(ctx, post).Err(); err != nil {
			log.WarnContext(ctx, "import post failed", "title", p.Title, "err", err)
			continue
		}
		imported++
	}
	return Outcome{Message: fmt.Sprintf("%d posts imported", imported), Count: imported}, nil
}

func (c *AdminController) changePassword(ctx context.Context, a ChangePassword) (Outcome, error) {
	if err := util.ValidatePassword(a.Password, a.Confirm); err != nil {
		return Outcome{}, err
	}
	if a.Confirm == "" {
		return Outcome{}, ErrPasswordMismatch
	}
	if err := c.backend.ChangePassword(ctx, c.caller().ID, a.Password).Err(); err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: "password changed"}, nil
}

func displayName(u *model.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// ensureUsernameFree 用户名按小写比较
// ensureEmailFree 空邮箱不参与唯一性检查
func ensureEmailFree(ctx context.Context, b Backend, email string) error {
	if email == "" {
		return nil
	}
	_, err := b.GetUserByEmail(ctx, email).Unwrap()
	switch {
	case err == nil:
		return ErrEmailTaken
	case errors.Is(err, backend.ErrNotFound):
		return nil
	}
	return err
}

func ensureUsernameFree(ctx context.Context, b Backend, username string) error {
	_, err := b.GetUserByUsername(ctx, username).Unwrap()
	switch {
	case err == nil:
		return ErrUsernameTaken
	case errors.Is(err, backend.ErrNotFound):
		return nil
	}
	return err
}
