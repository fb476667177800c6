package service

import (
	"Pibno/internal/backend"
	"Pibno/internal/pkg/security"
	"Pibno/internal/pkg/util"
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	TooLarge            = 413
	InternalServerError = 500
)

var (
	ErrParamInvalid       = errors.New("invalid parameters")
	ErrUserNotFound       = errors.New("user not found")
	ErrPostNotFound       = errors.New("post not found")
	ErrUsernameInvalid    = util.ErrUsernameInvalid
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordTooShort   = util.ErrPasswordTooShort
	ErrPasswordMismatch   = util.ErrPasswordMismatch
	ErrPasswordTooLong    = security.ErrPasswordTooLong
	ErrInvalidCredentials = security.ErrInvalidCredentials
	ErrUnauthenticated    = backend.ErrUnauthenticated
	ErrAccountPending     = errors.New("account is awaiting approval")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrProtectedAdmin     = errors.New("the default admin account cannot be deleted")
	ErrNotPending         = errors.New("user is not awaiting approval")
	ErrSelfDelete         = errors.New("you cannot delete your own account")
	ErrRoleInvalid        = errors.New("unknown role")
	ErrVideoIDRequired    = errors.New("video posts need a video id")
	ErrImportInvalid      = errors.New("invalid backup file: posts must be an array")
	ErrFileTooLarge       = errors.New("file is too large")
	ErrFileNotSupported   = errors.New("unsupported file type")
	ErrCursorInvalid      = util.ErrCursorInvalid
	ErrActionUnknown      = errors.New("unknown action")
	UnExpectedError       = errors.New("something went wrong, please try again")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:       BadRequest,
	ErrUserNotFound:       NotFound,
	ErrPostNotFound:       NotFound,
	ErrUsernameInvalid:    BadRequest,
	ErrUsernameTaken:      Conflict,
	ErrEmailTaken:         Conflict,
	ErrPasswordTooShort:   BadRequest,
	ErrPasswordMismatch:   BadRequest,
	ErrPasswordTooLong:    BadRequest,
	ErrInvalidCredentials: Unauthorized,
	ErrUnauthenticated:    Unauthorized,
	ErrAccountPending:     Forbidden,
	ErrPermissionDenied:   Forbidden,
	ErrProtectedAdmin:     Forbidden,
	ErrNotPending:         Conflict,
	ErrSelfDelete:         BadRequest,
	ErrRoleInvalid:        BadRequest,
	ErrVideoIDRequired:    BadRequest,
	ErrImportInvalid:      BadRequest,
	ErrFileTooLarge:       TooLarge,
	ErrFileNotSupported:   BadRequest,
	ErrCursorInvalid:      BadRequest,
	ErrActionUnknown:      BadRequest,
	UnExpectedError:       InternalServerError,
}

// CodeOf 查找错误对应的业务码，包装过的错误同样适用
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for known, code := range ErrorMap {
		if errors.Is(err, known) {
			return code, true
		}
	}
	return 0, false
}

// translate 把存储层错误映射到业务错误
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, backend.ErrNotFound):
		return notFound
	case errors.Is(err, backend.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, backend.ErrDuplicate):
		return ErrUsernameTaken
	}
	return err
}
