package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ogurasousui/contract-claims/internal/core/access"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は職員ディレクトリに関するユースケースをまとめます。
type Service struct {
	repo Repository
}

// UseCase はユーザーユースケースの公開インターフェースです。
type UseCase interface {
	Authenticate(ctx context.Context, in AuthenticateInput) (*User, error)
	GetUser(ctx context.Context, in GetUserInput) (*User, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AuthenticateInput はログイン時の入力です。
type AuthenticateInput struct {
	Username string
	Password string
}

// GetUserInput はユーザー取得時の入力です。
type GetUserInput struct {
	ID string
}

// ListUsersInput は一覧取得時の入力です。
type ListUsersInput struct {
	Actor     access.Principal
	PageSize  int
	PageToken string
	Status    *Status
	Role      *access.Role
}

// ListUsersResult は一覧取得結果を表します。
type ListUsersResult struct {
	Users         []*User
	NextPageToken string
}

// Authenticate はユーザー名とパスワードを照合します。
// ユーザーが存在しない場合もパスワード不一致と同じエラーを返します。
func (s *Service) Authenticate(ctx context.Context, in AuthenticateInput) (*User, error) {
	username := normalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active() {
		return nil, ErrInactiveUser
	}

	return u, nil
}

// GetUser は ID でユーザーを取得します。
func (s *Service) GetUser(ctx context.Context, in GetUserInput) (*User, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	return s.repo.FindByID(ctx, in.ID)
}

// ListUsers はユーザーの一覧を取得します。管理者のみ利用できます。
func (s *Service) ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error) {
	if !in.Actor.Can(access.CapManageUsers) {
		return nil, ErrForbidden
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var statusPtr *Status
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		status := *in.Status
		statusPtr = &status
	}

	var rolePtr *access.Role
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, access.ErrInvalidRole
		}
		role := *in.Role
		rolePtr = &role
	}

	users, nextToken, err := s.repo.List(ctx, ListUsersFilter{
		Limit:  limit,
		Offset: offset,
		Status: statusPtr,
		Role:   rolePtr,
	})
	if err != nil {
		return nil, err
	}

	return &ListUsersResult{
		Users:         users,
		NextPageToken: nextToken,
	}, nil
}

// HashPassword は設定ファイルに記載するための bcrypt ハッシュを生成します。
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}
	return string(hash), nil
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}
