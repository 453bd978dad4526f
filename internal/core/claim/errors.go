package claim

import (
	"errors"
	"fmt"

	"github.com/ogurasousui/contract-claims/internal/core/access"
)

var (
	// ErrValidation は入力値が不正な場合の分類です。ValidationError がこれに一致します。
	ErrValidation = errors.New("claim: validation failed")
	// ErrUnauthorized はロールに権限がない場合の分類です。AuthorizationError がこれに一致します。
	ErrUnauthorized = errors.New("claim: not authorized")
	// ErrInvalidTransition は定義されていない状態遷移の分類です。
	ErrInvalidTransition = errors.New("claim: invalid transition")
	// ErrConflict は同一請求への同時更新を検出した場合に返却されます。再読込して再試行できます。
	ErrConflict = errors.New("claim: concurrent update detected")
	// ErrStorage は添付ファイルの保存に失敗した場合の分類です。
	ErrStorage = errors.New("claim: document storage failed")
	// ErrClaimNotFound は請求が存在しない場合に返却されます。
	ErrClaimNotFound = errors.New("claim: not found")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("claim: invalid id")
)

// ValidationError はフィールド単位の入力エラーです。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("claim: invalid %s: %s", e.Field, e.Message)
}

// Is は ErrValidation との比較を可能にします。
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError はロールが操作権限を持たない場合のエラーです。
type AuthorizationError struct {
	Role   access.Role
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("claim: role %q may not %s", e.Role, e.Action)
}

// Is は ErrUnauthorized との比較を可能にします。
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrUnauthorized
}

// InvalidTransitionError は現在の状態とロールの組み合わせに遷移が定義されていない場合のエラーです。
type InvalidTransitionError struct {
	From Status
	Kind TransitionKind
	Role access.Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("claim: cannot %s a %s claim as %s", e.Kind, e.From, e.Role)
}

// Is は ErrInvalidTransition との比較を可能にします。
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StorageError は添付ファイルの永続化失敗を表します。請求レコード自体は保存済みです。
type StorageError struct {
	ClaimID int64
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("claim: store document for claim %d: %v", e.ClaimID, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is は ErrStorage との比較を可能にします。
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
