package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/shopspring/decimal"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const dashboardRecentClaims = 10

// Service は請求に関するユースケースをまとめます。
type Service struct {
	repo   Repository
	store  DocumentStore
	keys   KeyGenerator
	engine *Engine
	clock  Clock
	tx     TransactionManager
	logger *slog.Logger
}

// UseCase は請求ユースケースの公開インターフェースです。
type UseCase interface {
	SubmitClaim(ctx context.Context, in SubmitClaimInput) (*Claim, error)
	AttachDocument(ctx context.Context, in AttachDocumentInput) (*Claim, error)
	GetClaim(ctx context.Context, in GetClaimInput) (*Claim, error)
	ListOwnClaims(ctx context.Context, in ListInput) ([]*Claim, error)
	ListPendingQueue(ctx context.Context, in ListInput) ([]*Claim, error)
	ListApprovalQueue(ctx context.Context, in ListInput) ([]*Claim, error)
	ListAllClaims(ctx context.Context, in ListInput) ([]*Claim, error)
	Approve(ctx context.Context, in ReviewInput) (*TransitionResult, error)
	Reject(ctx context.Context, in ReviewInput) (*TransitionResult, error)
	Summarize(ctx context.Context, in ListInput) (*Summary, error)
	ExportClaims(ctx context.Context, in ListInput) ([]*Claim, error)
	Dashboard(ctx context.Context, in ListInput) (*DashboardResult, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithClock は時刻の提供元を差し替えます。
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTransactionManager はトランザクション制御を設定します。
func WithTransactionManager(tx TransactionManager) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLogger はロガーを設定します。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService は Service を生成します。store が nil の場合、添付ファイルは受け付けません。
func NewService(repo Repository, store DocumentStore, keys KeyGenerator, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		store:  store,
		keys:   keys,
		engine: NewEngine(),
		clock:  realClock{},
		tx:     noopTransactionManager{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitClaimInput は請求提出時の入力です。
type SubmitClaimInput struct {
	Actor         access.Principal
	LecturerName  string
	LecturerEmail string
	HoursWorked   decimal.Decimal
	HourlyRate    decimal.Decimal
	Notes         string
	Document      *Document
}

// AttachDocumentInput は既存請求への添付時の入力です。
type AttachDocumentInput struct {
	Actor    access.Principal
	ClaimID  int64
	Document *Document
}

// GetClaimInput は請求取得時の入力です。
type GetClaimInput struct {
	Actor access.Principal
	ID    int64
}

// ListInput は一覧系ユースケースの入力です。
type ListInput struct {
	Actor access.Principal
}

// ReviewInput は承認・却下時の入力です。
type ReviewInput struct {
	Actor  access.Principal
	ID     int64
	Reason string
}

// TransitionResult は遷移後の請求と結果種別です。
type TransitionResult struct {
	Claim   *Claim
	Outcome Outcome
}

// DashboardResult は管理者ダッシュボードの内容です。
type DashboardResult struct {
	Summary Summary
	Recent  []*Claim
}

// SubmitClaim は新しい請求を提出します。
// 添付ファイルは請求の保存が確定した後に保存し、その後パスを紐付けます。
func (s *Service) SubmitClaim(ctx context.Context, in SubmitClaimInput) (*Claim, error) {
	if !in.Actor.Can(access.CapSubmitClaim) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "submit claims"}
	}

	name := in.LecturerName
	if strings.TrimSpace(name) == "" {
		name = in.Actor.Name
	}
	email := in.LecturerEmail
	if actorEmail := strings.TrimSpace(in.Actor.Email); actorEmail != "" {
		// 請求の所有者は常にログイン中の講師です。
		if body := strings.TrimSpace(email); body != "" && !strings.EqualFold(body, actorEmail) {
			return nil, invalidField("lecturer_email", "must match the signed-in lecturer")
		}
		email = actorEmail
	}

	candidate, err := NewClaim(NewClaimParams{
		LecturerName:  name,
		LecturerEmail: email,
		HoursWorked:   in.HoursWorked,
		HourlyRate:    in.HourlyRate,
		Notes:         in.Notes,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	var doc *validatedDocument
	if in.Document != nil {
		if s.store == nil {
			return nil, invalidField("document", "document uploads are disabled")
		}
		doc, err = validateDocument(in.Document)
		if err != nil {
			return nil, err
		}
	}

	var created *Claim
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.Create(txCtx, candidate)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "claim submitted",
		"claim_id", created.ID,
		"total", created.Total().StringFixed(2),
	)

	if doc == nil {
		return created, nil
	}

	attached, err := s.storeDocument(ctx, created.ID, doc)
	if err != nil {
		return created, err
	}
	return attached, nil
}

// AttachDocument は講師本人の請求に添付ファイルを追加または差し替えます。
func (s *Service) AttachDocument(ctx context.Context, in AttachDocumentInput) (*Claim, error) {
	if !in.Actor.Can(access.CapSubmitClaim) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "attach documents"}
	}
	if in.ClaimID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if s.store == nil {
		return nil, invalidField("document", "document uploads are disabled")
	}
	if in.Document == nil {
		return nil, invalidField("document", "file is required")
	}

	doc, err := validateDocument(in.Document)
	if err != nil {
		return nil, err
	}

	var existing *Claim
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ClaimID)
		if err != nil {
			return err
		}
		existing = found
		return nil
	}); err != nil {
		return nil, err
	}

	if !ownsClaim(in.Actor, existing) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "attach documents to another lecturer's claim"}
	}

	return s.storeDocument(ctx, existing.ID, doc)
}

func (s *Service) storeDocument(ctx context.Context, claimID int64, doc *validatedDocument) (*Claim, error) {
	key := s.keys.DocumentKey(claimID, doc.ext)

	path, err := s.store.Put(ctx, key, doc.Body, doc.Size, doc.contentType)
	if err != nil {
		s.logger.WarnContext(ctx, "document upload failed", "claim_id", claimID, "error", err)
		return nil, &StorageError{ClaimID: claimID, Err: err}
	}

	var attached *Claim
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.AttachDocument(txCtx, claimID, doc.FileName, path)
		if err != nil {
			return err
		}
		attached = result
		return nil
	}); err != nil {
		if rmErr := s.store.Remove(ctx, key); rmErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned document", "claim_id", claimID, "key", key, "error", rmErr)
		}
		return nil, err
	}

	return attached, nil
}

// GetClaim は請求を取得します。講師は自身の請求のみ参照できます。
func (s *Service) GetClaim(ctx context.Context, in GetClaimInput) (*Claim, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if !canViewAny(in.Actor) && !in.Actor.Can(access.CapViewOwnClaims) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "view claims"}
	}

	var found *Claim
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		found = result
		return nil
	}); err != nil {
		return nil, err
	}

	if !canViewAny(in.Actor) && !ownsClaim(in.Actor, found) {
		// 他人の請求の存在は明かさない
		return nil, ErrClaimNotFound
	}
	return found, nil
}

// ListOwnClaims は呼び出し元の講師が提出した請求を返します。
func (s *Service) ListOwnClaims(ctx context.Context, in ListInput) ([]*Claim, error) {
	if !in.Actor.Can(access.CapViewOwnClaims) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "view own claims"}
	}
	email := strings.ToLower(strings.TrimSpace(in.Actor.Email))
	if email == "" {
		return []*Claim{}, nil
	}

	return s.readList(ctx, func(txCtx context.Context) ([]*Claim, error) {
		return s.repo.FindBySubmitter(txCtx, email)
	})
}

// ListPendingQueue はコーディネーター審査待ちの請求を返します。
func (s *Service) ListPendingQueue(ctx context.Context, in ListInput) ([]*Claim, error) {
	if !in.Actor.Can(access.CapViewPendingQueue) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "view the pending queue"}
	}
	return s.readList(ctx, func(txCtx context.Context) ([]*Claim, error) {
		return s.repo.FindByStatus(txCtx, StatusPending)
	})
}

// ListApprovalQueue はマネージャー審査待ちの請求を返します。
func (s *Service) ListApprovalQueue(ctx context.Context, in ListInput) ([]*Claim, error) {
	if !in.Actor.Can(access.CapViewApprovalQueue) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "view the approval queue"}
	}
	return s.readList(ctx, func(txCtx context.Context) ([]*Claim, error) {
		return s.repo.FindByStatus(txCtx, StatusCoordinatorApproved)
	})
}

// ListAllClaims は全請求を提出日時の降順で返します。
func (s *Service) ListAllClaims(ctx context.Context, in ListInput) ([]*Claim, error) {
	if !in.Actor.Can(access.CapViewAllClaims) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "view all claims"}
	}
	return s.readList(ctx, func(txCtx context.Context) ([]*Claim, error) {
		return s.repo.ListAll(txCtx, 0)
	})
}

// Approve は請求を承認します。
func (s *Service) Approve(ctx context.Context, in ReviewInput) (*TransitionResult, error) {
	return s.Transition(ctx, in, TransitionApprove)
}

// Reject は請求を却下します。理由は必須です。
func (s *Service) Reject(ctx context.Context, in ReviewInput) (*TransitionResult, error) {
	return s.Transition(ctx, in, TransitionReject)
}

// Transition は最新の状態を読み直して遷移を検証し、状態が変わっていない場合に限り書き込みます。
func (s *Service) Transition(ctx context.Context, in ReviewInput, kind TransitionKind) (*TransitionResult, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if !in.Actor.Can(access.CapActOnPending) && !in.Actor.Can(access.CapActOnApproved) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: string(kind) + " claims"}
	}

	var result *TransitionResult
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		expected := current.Status
		next := current.Clone()
		outcome, err := s.engine.Apply(next, kind, in.Actor.Role, in.Reason)
		if err != nil {
			return err
		}

		if outcome == OutcomeNoop {
			result = &TransitionResult{Claim: current, Outcome: OutcomeNoop}
			return nil
		}

		saved, err := s.repo.Save(txCtx, next, expected)
		if err != nil {
			return err
		}
		result = &TransitionResult{Claim: saved, Outcome: OutcomeApplied}
		return nil
	}); err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.WarnContext(ctx, "claim transition conflict", "claim_id", in.ID, "kind", string(kind))
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "claim transition",
		"claim_id", in.ID,
		"kind", string(kind),
		"role", string(in.Actor.Role),
		"outcome", string(result.Outcome),
		"status", string(result.Claim.Status),
	)
	return result, nil
}

// Summarize は全請求の状態別集計を返します。
func (s *Service) Summarize(ctx context.Context, in ListInput) (*Summary, error) {
	if !in.Actor.Can(access.CapExportReport) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "export reports"}
	}

	claims, err := s.readList(ctx, func(txCtx context.Context) ([]*Claim, error) {
		return s.repo.ListAll(txCtx, 0)
	})
	if err != nil {
		return nil, err
	}

	summary := Summarize(claims, s.clock.Now())
	return &summary, nil
}

// ExportClaims は CSV 出力用に全請求を提出日時の降順で返します。
func (s *Service) ExportClaims(ctx context.Context, in ListInput) ([]*Claim, error) {
	if !in.Actor.Can(access.CapExportReport) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "export reports"}
	}
	return s.readList(ctx, func(txCtx context.Context) ([]*Claim, error) {
		return s.repo.ListAll(txCtx, 0)
	})
}

// Dashboard は集計と直近の請求を返します。
func (s *Service) Dashboard(ctx context.Context, in ListInput) (*DashboardResult, error) {
	if !in.Actor.Can(access.CapViewAllClaims) {
		return nil, &AuthorizationError{Role: in.Actor.Role, Action: "view the dashboard"}
	}

	var (
		all    []*Claim
		recent []*Claim
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		var err error
		all, err = s.repo.ListAll(txCtx, 0)
		if err != nil {
			return err
		}
		recent, err = s.repo.ListAll(txCtx, dashboardRecentClaims)
		return err
	}); err != nil {
		return nil, err
	}

	return &DashboardResult{Summary: Summarize(all, s.clock.Now()), Recent: recent}, nil
}

func (s *Service) readList(ctx context.Context, fn func(context.Context) ([]*Claim, error)) ([]*Claim, error) {
	var claims []*Claim
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := fn(txCtx)
		if err != nil {
			return err
		}
		claims = result
		return nil
	}); err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []*Claim{}
	}
	return claims, nil
}

func canViewAny(p access.Principal) bool {
	return p.Can(access.CapViewAllClaims) || p.Can(access.CapActOnPending) || p.Can(access.CapActOnApproved)
}

func ownsClaim(p access.Principal, c *Claim) bool {
	if c == nil {
		return false
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	return email != "" && email == c.LecturerEmail
}
