package user

import (
	"context"

	"github.com/ogurasousui/contract-claims/internal/core/access"
)

// Repository は職員ディレクトリの参照を行うインターフェースです。
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*User, string, error)
}

// ListUsersFilter は一覧取得時の条件です。
type ListUsersFilter struct {
	Limit  int
	Offset int
	Status *Status
	Role   *access.Role
}
