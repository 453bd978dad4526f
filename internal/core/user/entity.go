package user

import "github.com/ogurasousui/contract-claims/internal/core/access"

// Status はユーザーの状態を表します。
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User は職員ディレクトリのエントリです。
type User struct {
	ID           string
	Username     string
	Email        string
	Name         string
	Role         access.Role
	Status       Status
	PasswordHash string
}

// Principal は認可判定に渡す呼び出し元情報を返します。
func (u *User) Principal() access.Principal {
	return access.Principal{
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
		Email:  u.Email,
	}
}

// Active は有効なユーザーかどうかを返します。
func (u *User) Active() bool {
	return u.Status == StatusActive
}
