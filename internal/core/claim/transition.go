package claim

import (
	"strings"

	"github.com/ogurasousui/contract-claims/internal/core/access"
)

// TransitionKind は審査アクションの種類です。
type TransitionKind string

const (
	TransitionApprove TransitionKind = "approve"
	TransitionReject  TransitionKind = "reject"
)

// Outcome は遷移の結果です。
type Outcome string

const (
	// OutcomeApplied は状態が更新されたことを示します。
	OutcomeApplied Outcome = "applied"
	// OutcomeNoop は既に目的の状態であったため何も変更しなかったことを示します。
	OutcomeNoop Outcome = "noop"
)

// RejectionNotePrefix は却下時に notes へ書き込む理由の接頭辞です。
const RejectionNotePrefix = "Rejection reason: "

// stage は審査段階ごとの担当ロールと遷移先です。
type stage struct {
	from    Status
	role    access.Role
	targets map[TransitionKind]Status
}

var stages = []stage{
	{
		from: StatusPending,
		role: access.RoleProgrammeCoordinator,
		targets: map[TransitionKind]Status{
			TransitionApprove: StatusCoordinatorApproved,
			TransitionReject:  StatusCoordinatorRejected,
		},
	},
	{
		from: StatusCoordinatorApproved,
		role: access.RoleAcademicManager,
		targets: map[TransitionKind]Status{
			TransitionApprove: StatusManagerApproved,
			TransitionReject:  StatusManagerRejected,
		},
	},
}

// Engine は請求の状態を変更する唯一の手段です。I/O は行いません。
type Engine struct{}

// NewEngine は Engine を生成します。
func NewEngine() *Engine {
	return &Engine{}
}

// Apply は現在の状態とロールを検証し、許可されていれば c を更新します。
// エラー時および OutcomeNoop の場合 c は変更されません。
func (e *Engine) Apply(c *Claim, kind TransitionKind, role access.Role, reason string) (Outcome, error) {
	if kind != TransitionApprove && kind != TransitionReject {
		return "", &InvalidTransitionError{From: c.Status, Kind: kind, Role: role}
	}

	owned, ok := stageOwnedBy(role)
	if !ok {
		return "", &AuthorizationError{Role: role, Action: string(kind) + " claims"}
	}

	target := owned.targets[kind]
	if c.Status == target {
		return OutcomeNoop, nil
	}

	if c.Status.IsTerminal() {
		return "", &InvalidTransitionError{From: c.Status, Kind: kind, Role: role}
	}

	if c.Status == owned.from {
		reason = strings.TrimSpace(reason)
		if kind == TransitionReject && reason == "" {
			return "", invalidField("reason", "is required to reject a claim")
		}
		c.Status = target
		if kind == TransitionReject {
			note := RejectionNotePrefix + reason
			c.Notes = &note
		}
		return OutcomeApplied, nil
	}

	if current, ok := stageAt(c.Status); ok && current.role != role {
		return "", &AuthorizationError{Role: role, Action: string(kind) + " " + string(c.Status) + " claims"}
	}

	return "", &InvalidTransitionError{From: c.Status, Kind: kind, Role: role}
}

func stageOwnedBy(role access.Role) (stage, bool) {
	for _, s := range stages {
		if s.role == role {
			return s, true
		}
	}
	return stage{}, false
}

func stageAt(status Status) (stage, bool) {
	for _, s := range stages {
		if s.from == status {
			return s, true
		}
	}
	return stage{}, false
}
