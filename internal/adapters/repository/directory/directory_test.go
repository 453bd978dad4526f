package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/user"
	"github.com/ogurasousui/contract-claims/internal/platform/config"
)

func entries() []config.UserConfig {
	inactive := false
	return []config.UserConfig{
		{ID: "1", Username: "lecturer", Name: "A. Lecturer", Email: "Lecturer@Example.com", Role: "lecturer", PasswordHash: "h1"},
		{ID: "2", Username: "coordinator", Role: "programme_coordinator", PasswordHash: "h2"},
		{ID: "3", Username: "manager", Role: "academic_manager", PasswordHash: "h3", Active: &inactive},
		{ID: "4", Username: "admin", Role: "ADMIN", PasswordHash: "h4"},
	}
}

func TestNew_BuildsDirectory(t *testing.T) {
	t.Parallel()

	repo, err := New(entries())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	u, err := repo.FindByUsername(context.Background(), " LECTURER ")
	if err != nil {
		t.Fatalf("FindByUsername returned error: %v", err)
	}
	if u.Email != "lecturer@example.com" || u.Role != access.RoleLecturer || !u.Active() {
		t.Fatalf("unexpected user %+v", u)
	}

	coord, err := repo.FindByID(context.Background(), "2")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if coord.Name != "coordinator" {
		t.Fatalf("expected name to default to username, got %q", coord.Name)
	}

	mgr, _ := repo.FindByID(context.Background(), "3")
	if mgr.Active() {
		t.Fatalf("expected manager to be inactive")
	}

	admin, _ := repo.FindByID(context.Background(), "4")
	if admin.Role != access.RoleAdmin {
		t.Fatalf("expected role to be parsed case-insensitively, got %s", admin.Role)
	}
}

func TestNew_RejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	bad := entries()
	bad[1].Role = "dean"
	if _, err := New(bad); !errors.Is(err, access.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	dup := entries()
	dup[1].ID = "1"
	if _, err := New(dup); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestRepository_FindReturnsCopies(t *testing.T) {
	t.Parallel()

	repo, err := New(entries())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	u, _ := repo.FindByID(context.Background(), "1")
	u.Role = access.RoleAdmin

	again, _ := repo.FindByID(context.Background(), "1")
	if again.Role != access.RoleLecturer {
		t.Fatalf("mutation leaked into directory")
	}

	if _, err := repo.FindByID(context.Background(), "99"); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRepository_List(t *testing.T) {
	t.Parallel()

	repo, err := New(entries())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	page, next, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 3})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page) != 3 || next != "3" {
		t.Fatalf("unexpected page: %d users, token %q", len(page), next)
	}
	if page[0].Username != "admin" {
		t.Fatalf("expected users sorted by username, got %s first", page[0].Username)
	}

	rest, next, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 3, Offset: 3})
	if err != nil || len(rest) != 1 || next != "" {
		t.Fatalf("unexpected last page: %d users, token %q, err %v", len(rest), next, err)
	}

	active := user.StatusActive
	filtered, _, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 10, Status: &active})
	if err != nil || len(filtered) != 3 {
		t.Fatalf("expected 3 active users, got %d (%v)", len(filtered), err)
	}

	role := access.RoleProgrammeCoordinator
	coords, _, err := repo.List(context.Background(), user.ListUsersFilter{Limit: 10, Role: &role})
	if err != nil || len(coords) != 1 {
		t.Fatalf("expected 1 coordinator, got %d (%v)", len(coords), err)
	}

	if _, _, err := repo.List(context.Background(), user.ListUsersFilter{}); !errors.Is(err, user.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}
}
