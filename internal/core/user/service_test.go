package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/ogurasousui/contract-claims/internal/core/access"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	users map[string]*User
	order []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) add(t *testing.T, username string, role access.Role, status Status, password string) *User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	id := strconv.Itoa(len(r.order) + 1)
	u := &User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		Name:         username,
		Role:         role,
		Status:       status,
		PasswordHash: string(hash),
	}
	r.users[id] = u
	r.order = append(r.order, id)
	return cloneUser(u)
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *fakeRepo) List(_ context.Context, filter ListUsersFilter) ([]*User, string, error) {
	var filtered []*User
	for _, id := range r.order {
		u := r.users[id]
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		filtered = append(filtered, cloneUser(u))
	}

	if filter.Offset > len(filtered) {
		return []*User{}, "", nil
	}

	end := filter.Offset + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := filtered[filter.Offset:end]

	var nextToken string
	if end < len(filtered) {
		nextToken = strconv.Itoa(end)
	}

	return page, nextToken, nil
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	copy := *u
	return &copy
}

var adminActor = access.Principal{UserID: "admin", Role: access.RoleAdmin}

func TestService_Authenticate_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.add(t, "lecturer", access.RoleLecturer, StatusActive, "secret")
	svc := NewService(repo)

	u, err := svc.Authenticate(context.Background(), AuthenticateInput{Username: "  Lecturer ", Password: "secret"})
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}

	p := u.Principal()
	if p.Role != access.RoleLecturer || p.Email != "lecturer@example.com" || p.UserID != u.ID {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestService_Authenticate_Failures(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.add(t, "coordinator", access.RoleProgrammeCoordinator, StatusActive, "secret")
	repo.add(t, "retired", access.RoleAcademicManager, StatusInactive, "secret")
	svc := NewService(repo)

	cases := []struct {
		name string
		in   AuthenticateInput
		want error
	}{
		{"unknown user", AuthenticateInput{Username: "ghost", Password: "secret"}, ErrInvalidCredentials},
		{"wrong password", AuthenticateInput{Username: "coordinator", Password: "nope"}, ErrInvalidCredentials},
		{"blank username", AuthenticateInput{Username: " ", Password: "secret"}, ErrInvalidCredentials},
		{"blank password", AuthenticateInput{Username: "coordinator"}, ErrInvalidCredentials},
		{"inactive user", AuthenticateInput{Username: "retired", Password: "secret"}, ErrInactiveUser},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.Authenticate(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestService_GetUser(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	created := repo.add(t, "manager", access.RoleAcademicManager, StatusActive, "secret")
	svc := NewService(repo)

	found, err := svc.GetUser(context.Background(), GetUserInput{ID: created.ID})
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if found.Username != "manager" {
		t.Fatalf("expected manager, got %s", found.Username)
	}

	if _, err := svc.GetUser(context.Background(), GetUserInput{ID: "   "}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := svc.GetUser(context.Background(), GetUserInput{ID: "404"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_ListUsers_Defaults(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	for i := 0; i < 3; i++ {
		repo.add(t, fmt.Sprintf("user%d", i), access.RoleLecturer, StatusActive, "pw")
	}
	svc := NewService(repo)

	result, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}

	if len(result.Users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(result.Users))
	}
	if result.NextPageToken != "" {
		t.Fatalf("expected no next token, got %s", result.NextPageToken)
	}
}

func TestService_ListUsers_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo())
	for _, role := range []access.Role{access.RoleLecturer, access.RoleProgrammeCoordinator, access.RoleAcademicManager} {
		_, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: access.Principal{Role: role}})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("%s: expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestService_ListUsers_Paging(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	for i := 0; i < 5; i++ {
		repo.add(t, fmt.Sprintf("user%d", i), access.RoleLecturer, StatusActive, "pw")
	}
	svc := NewService(repo)

	first, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, PageSize: 2})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(first.Users) != 2 || first.NextPageToken != "2" {
		t.Fatalf("unexpected first page: %d users, token %q", len(first.Users), first.NextPageToken)
	}

	last, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, PageSize: 2, PageToken: "4"})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(last.Users) != 1 || last.NextPageToken != "" {
		t.Fatalf("unexpected last page: %d users, token %q", len(last.Users), last.NextPageToken)
	}
}

func TestService_ListUsers_Validation(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeRepo())

	if _, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, PageSize: maxListPageSize + 1}); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
	if _, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, PageToken: "abc"}); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}

	blocked := Status("blocked")
	if _, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, Status: &blocked}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	guest := access.Role("guest")
	if _, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, Role: &guest}); !errors.Is(err, access.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestService_ListUsers_Filters(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.add(t, "lecturer", access.RoleLecturer, StatusActive, "pw")
	repo.add(t, "former", access.RoleLecturer, StatusInactive, "pw")
	repo.add(t, "coordinator", access.RoleProgrammeCoordinator, StatusActive, "pw")
	svc := NewService(repo)

	inactive := StatusInactive
	result, err := svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, Status: &inactive})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(result.Users) != 1 || result.Users[0].Username != "former" {
		t.Fatalf("expected only inactive user, got %d", len(result.Users))
	}

	lecturer := access.RoleLecturer
	result, err = svc.ListUsers(context.Background(), ListUsersInput{Actor: adminActor, Role: &lecturer})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(result.Users) != 2 {
		t.Fatalf("expected 2 lecturers, got %d", len(result.Users))
	}
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Fatalf("hash does not match password: %v", err)
	}

	if _, err := HashPassword("  "); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}
