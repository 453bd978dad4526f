// Package directory は設定ファイルに記載された職員一覧をユーザーリポジトリとして提供します。
package directory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/user"
	"github.com/ogurasousui/contract-claims/internal/platform/config"
)

// Repository は読み取り専用のインメモリ職員ディレクトリです。
type Repository struct {
	byID       map[string]*user.User
	byUsername map[string]*user.User
	ordered    []*user.User
}

// New は設定のユーザー一覧から Repository を生成します。
func New(entries []config.UserConfig) (*Repository, error) {
	r := &Repository{
		byID:       make(map[string]*user.User, len(entries)),
		byUsername: make(map[string]*user.User, len(entries)),
	}

	for i, e := range entries {
		role, err := access.ParseRole(e.Role)
		if err != nil {
			return nil, fmt.Errorf("directory: users[%d]: %w", i, err)
		}

		status := user.StatusActive
		if !e.IsActive() {
			status = user.StatusInactive
		}

		u := &user.User{
			ID:           e.ID,
			Username:     strings.ToLower(strings.TrimSpace(e.Username)),
			Email:        strings.ToLower(strings.TrimSpace(e.Email)),
			Name:         strings.TrimSpace(e.Name),
			Role:         role,
			Status:       status,
			PasswordHash: e.PasswordHash,
		}
		if u.Name == "" {
			u.Name = u.Username
		}
		if _, dup := r.byID[u.ID]; dup {
			return nil, fmt.Errorf("directory: users[%d]: duplicate id %q", i, u.ID)
		}
		if _, dup := r.byUsername[u.Username]; dup {
			return nil, fmt.Errorf("directory: users[%d]: duplicate username %q", i, u.Username)
		}

		r.byID[u.ID] = u
		r.byUsername[u.Username] = u
		r.ordered = append(r.ordered, u)
	}

	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Username < r.ordered[j].Username
	})

	return r, nil
}

// FindByID は ID でユーザーを取得します。
func (r *Repository) FindByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return clone(u), nil
}

// FindByUsername はユーザー名でユーザーを取得します。
func (r *Repository) FindByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := r.byUsername[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return clone(u), nil
}

// List はユーザー名順に一覧を返します。
func (r *Repository) List(_ context.Context, filter user.ListUsersFilter) ([]*user.User, string, error) {
	if filter.Limit <= 0 {
		return nil, "", user.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", user.ErrInvalidPageToken
	}

	filtered := make([]*user.User, 0, len(r.ordered))
	for _, u := range r.ordered {
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		filtered = append(filtered, u)
	}

	if filter.Offset >= len(filtered) {
		return []*user.User{}, "", nil
	}

	end := filter.Offset + filter.Limit
	var nextToken string
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	} else {
		end = len(filtered)
	}

	page := make([]*user.User, 0, end-filter.Offset)
	for _, u := range filtered[filter.Offset:end] {
		page = append(page, clone(u))
	}
	return page, nextToken, nil
}

func clone(u *user.User) *user.User {
	cp := *u
	return &cp
}
