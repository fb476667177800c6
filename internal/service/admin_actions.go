package service

import (
	"github.com/goccy/go-json"
)

// ActionKind 管理面板动作的类型标识
type ActionKind string

const (
	ActionCreatePost     ActionKind = "createPost"
	ActionUpdatePost     ActionKind = "updatePost"
	ActionDeletePost     ActionKind = "deletePost"
	ActionCreateUser     ActionKind = "createUser"
	ActionApproveUser    ActionKind = "approveUser"
	ActionRejectUser     ActionKind = "rejectUser"
	ActionDeleteUser     ActionKind = "deleteUser"
	ActionImportPosts    ActionKind = "importPosts"
	ActionChangePassword ActionKind = "changePassword"
)

// Action 一次类型化的状态变更请求，Required 为执行所需的能力
type Action interface {
	Kind() ActionKind
	Required() Capability
}

type CreatePost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Image   string `json:"image"`
	VideoID string `json:"videoId"`
}

type UpdatePost struct {
	ID      string  `json:"id"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Type    *string `json:"type"`
	Image   *string `json:"image"`
	VideoID *string `json:"videoId"`
}

type DeletePost struct {
	ID string `json:"id"`
}

type CreateUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ApproveUser Role 为空时按 editor 处理
type ApproveUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type RejectUser struct {
	ID string `json:"id"`
}

type DeleteUser struct {
	ID string `json:"id"`
}

// ImportPosts Raw 为备份文件的原始内容
type ImportPosts struct {
	Raw []byte `json:"-"`
}

type ChangePassword struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (CreatePost) Kind() ActionKind     { return ActionCreatePost }
func (UpdatePost) Kind() ActionKind     { return ActionUpdatePost }
func (DeletePost) Kind() ActionKind     { return ActionDeletePost }
func (CreateUser) Kind() ActionKind     { return ActionCreateUser }
func (ApproveUser) Kind() ActionKind    { return ActionApproveUser }
func (RejectUser) Kind() ActionKind     { return ActionRejectUser }
func (DeleteUser) Kind() ActionKind     { return ActionDeleteUser }
func (ImportPosts) Kind() ActionKind    { return ActionImportPosts }
func (ChangePassword) Kind() ActionKind { return ActionChangePassword }

func (CreatePost) Required() Capability     { return CapManagePosts }
func (UpdatePost) Required() Capability     { return CapManagePosts }
func (DeletePost) Required() Capability     { return CapManagePosts }
func (CreateUser) Required() Capability     { return CapManageUsers }
func (ApproveUser) Required() Capability    { return CapManageUsers }
func (RejectUser) Required() Capability     { return CapManageUsers }
func (DeleteUser) Required() Capability     { return CapManageUsers }
func (ImportPosts) Required() Capability    { return CapSettings }
func (ChangePassword) Required() Capability { return CapSettings }

var decoders = map[ActionKind]func([]byte) (Action, error){
	ActionCreatePost:     decodeJSON[CreatePost],
	ActionUpdatePost:     decodeJSON[UpdatePost],
	ActionDeletePost:     decodeJSON[DeletePost],
	ActionCreateUser:     decodeJSON[CreateUser],
	ActionApproveUser:    decodeJSON[ApproveUser],
	ActionRejectUser:     decodeJSON[RejectUser],
	ActionDeleteUser:     decodeJSON[DeleteUser],
	ActionChangePassword: decodeJSON[ChangePassword],
	ActionImportPosts: func(payload []byte) (Action, error) {
		return ImportPosts{Raw: payload}, nil
	},
}

// DecodeAction 按 kind 把 JSON 载荷解析为具体动作
func DecodeAction(kind ActionKind, payload []byte) (Action, error) {
	decode, ok := decoders[kind]
	if !ok {
		return nil, ErrActionUnknown
	}
	return decode(payload)
}

func decodeJSON[A Action](payload []byte) (Action, error) {
	var a A
	if len(payload) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, ErrParamInvalid
	}
	return a, nil
}
