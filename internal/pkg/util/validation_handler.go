package util

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLen = 3
	MinPasswordLen = 6
)

var (
	ErrUsernameInvalid  = errors.New("username must be at least 3 characters and contain no spaces")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			msg := fmt.Sprintf("field [%s] failed rule [%s]",
				firstError.Field(),
				firstError.Tag())
			return errors.New(msg)
		}
		return err
	}
	return nil
}

// NormalizeUsername 去除首尾空白并转小写，内部空白仍会被 ValidateUsername 拒绝
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeEmail 邮箱按小写保存与比较
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateUsername 校验已规范化的用户名
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) < MinUsernameLen {
		return ErrUsernameInvalid
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrUsernameInvalid
	}
	if username != strings.ToLower(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidatePassword confirm 为空时不做一致性检查
func ValidatePassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if confirm != "" && confirm != password {
		return ErrPasswordMismatch
	}
	return nil
}
