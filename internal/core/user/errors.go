package user

import "errors"

var (
	// ErrUserNotFound はユーザーが存在しない場合に返却されます。
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials はユーザー名またはパスワードが一致しない場合に返却されます。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveUser は無効化されたユーザーがログインしようとした場合に返却されます。
	ErrInactiveUser = errors.New("user is inactive")
	// ErrInvalidStatus はステータスが不正な場合に返却されます。
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidID はIDが不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidPassword はハッシュ化できないパスワードの場合に返却されます。
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidPageSize はページサイズが不正な場合に返却されます。
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrInvalidPageToken はページトークンが不正な場合に返却されます。
	ErrInvalidPageToken = errors.New("invalid page token")
	// ErrForbidden はユーザー一覧の参照権限がない場合に返却されます。
	ErrForbidden = errors.New("forbidden")
)
