package access

import (
	"errors"
	"strings"
)

// Role は呼び出し元のロールを表します。
type Role string

const (
	RoleLecturer             Role = "lecturer"
	RoleProgrammeCoordinator Role = "programme_coordinator"
	RoleAcademicManager      Role = "academic_manager"
	RoleAdmin                Role = "admin"
)

// Capability はロールが保持し得る操作権限です。
type Capability string

const (
	CapSubmitClaim       Capability = "submit_claim"
	CapViewOwnClaims     Capability = "view_own_claims"
	CapViewPendingQueue  Capability = "view_pending_queue"
	CapActOnPending      Capability = "act_on_pending"
	CapViewApprovalQueue Capability = "view_approval_queue"
	CapActOnApproved     Capability = "act_on_approved"
	CapViewAllClaims     Capability = "view_all_claims"
	CapExportReport      Capability = "export_report"
	CapManageUsers       Capability = "manage_users"
)

// View はロールごとの既定画面です。
type View string

const (
	ViewNone          View = ""
	ViewOwnClaims     View = "own_claims"
	ViewPendingQueue  View = "pending_queue"
	ViewApprovalQueue View = "approval_queue"
	ViewAllClaims     View = "all_claims"
)

// ErrInvalidRole は未知のロール文字列を受け取った場合に返却されます。
var ErrInvalidRole = errors.New("access: invalid role")

var grants = map[Role]map[Capability]struct{}{
	RoleLecturer: {
		CapSubmitClaim:   {},
		CapViewOwnClaims: {},
	},
	RoleProgrammeCoordinator: {
		CapViewPendingQueue: {},
		CapActOnPending:     {},
	},
	RoleAcademicManager: {
		CapViewApprovalQueue: {},
		CapActOnApproved:     {},
	},
	RoleAdmin: {
		CapViewAllClaims: {},
		CapExportReport:  {},
		CapManageUsers:   {},
	},
}

var defaultViews = map[Role]View{
	RoleLecturer:             ViewOwnClaims,
	RoleProgrammeCoordinator: ViewPendingQueue,
	RoleAcademicManager:      ViewApprovalQueue,
	RoleAdmin:                ViewAllClaims,
}

// Authorize はロールが指定の権限を保持しているかを返します。
// 拒否時もエラーにはせず false を返し、扱いは呼び出し側に委ねます。
func Authorize(role Role, capability Capability) bool {
	caps, ok := grants[role]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

// Capabilities はロールが保持する権限を固定順で返します。
func Capabilities(role Role) []Capability {
	ordered := []Capability{
		CapSubmitClaim,
		CapViewOwnClaims,
		CapViewPendingQueue,
		CapActOnPending,
		CapViewApprovalQueue,
		CapActOnApproved,
		CapViewAllClaims,
		CapExportReport,
		CapManageUsers,
	}

	out := make([]Capability, 0, len(ordered))
	for _, c := range ordered {
		if Authorize(role, c) {
			out = append(out, c)
		}
	}
	return out
}

// DefaultView はロールのログイン直後に表示する画面を返します。
func DefaultView(role Role) View {
	return defaultViews[role]
}

// IsValid は既知のロールかどうかを返します。
func (r Role) IsValid() bool {
	_, ok := grants[r]
	return ok
}

// ParseRole は文字列からロールを解決します。
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Principal は認証済みの呼び出し元です。ユースケース入力に明示的に渡されます。
type Principal struct {
	UserID string
	Role   Role
	Name   string
	Email  string
}

// Can は Authorize のショートハンドです。
func (p Principal) Can(capability Capability) bool {
	return Authorize(p.Role, capability)
}
