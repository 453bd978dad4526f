package claim

import (
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status は請求のワークフロー状態です。
type Status string

const (
	StatusPending             Status = "pending"
	StatusCoordinatorApproved Status = "coordinator_approved"
	StatusCoordinatorRejected Status = "coordinator_rejected"
	StatusManagerApproved     Status = "manager_approved"
	StatusManagerRejected     Status = "manager_rejected"
)

// Statuses は全状態をパイプライン順に返します。
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusCoordinatorApproved,
		StatusCoordinatorRejected,
		StatusManagerApproved,
		StatusManagerRejected,
	}
}

// IsValid は既知の状態かどうかを返します。
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCoordinatorApproved, StatusCoordinatorRejected, StatusManagerApproved, StatusManagerRejected:
		return true
	default:
		return false
	}
}

// IsTerminal はこれ以上遷移できない状態かどうかを返します。
func (s Status) IsTerminal() bool {
	switch s {
	case StatusManagerApproved, StatusCoordinatorRejected, StatusManagerRejected:
		return true
	default:
		return false
	}
}

// IsRejected は却下済みかどうかを返します。
func (s Status) IsRejected() bool {
	return s == StatusCoordinatorRejected || s == StatusManagerRejected
}

var (
	MinHoursWorked = decimal.RequireFromString("0.5")
	MaxHoursWorked = decimal.NewFromInt(200)
	MinHourlyRate  = decimal.NewFromInt(50)
	MaxHourlyRate  = decimal.NewFromInt(2000)
)

// Claim は講師の月次請求です。
type Claim struct {
	ID            int64
	LecturerName  string
	LecturerEmail string
	HoursWorked   decimal.Decimal
	HourlyRate    decimal.Decimal
	Notes         *string
	FileName      *string
	FilePath      *string
	Status        Status
	SubmittedAt   time.Time
}

// Total は時間と単価から請求額を都度計算します。保存はしません。
func (c *Claim) Total() decimal.Decimal {
	return c.HoursWorked.Mul(c.HourlyRate).Round(2)
}

// HasDocument は添付ファイルが設定済みかどうかを返します。
func (c *Claim) HasDocument() bool {
	return c.FilePath != nil && *c.FilePath != ""
}

// Clone はポインタフィールドを含めて複製します。
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Notes = cloneString(c.Notes)
	cp.FileName = cloneString(c.FileName)
	cp.FilePath = cloneString(c.FilePath)
	return &cp
}

// NewClaimParams は請求生成時の値です。
type NewClaimParams struct {
	LecturerName  string
	LecturerEmail string
	HoursWorked   decimal.Decimal
	HourlyRate    decimal.Decimal
	Notes         string
}

// NewClaim は入力を検証し Pending 状態の請求を構築します。永続化は行いません。
func NewClaim(p NewClaimParams, now time.Time) (*Claim, error) {
	name := strings.TrimSpace(p.LecturerName)
	if name == "" {
		return nil, invalidField("lecturer_name", "is required")
	}

	email, err := normalizeEmail(p.LecturerEmail)
	if err != nil {
		return nil, err
	}

	if p.HoursWorked.LessThan(MinHoursWorked) || p.HoursWorked.GreaterThan(MaxHoursWorked) {
		return nil, invalidField("hours_worked", "must be between 0.5 and 200")
	}
	if !hasAtMostTwoDecimals(p.HoursWorked) {
		return nil, invalidField("hours_worked", "must have at most 2 decimal places")
	}

	if p.HourlyRate.LessThan(MinHourlyRate) || p.HourlyRate.GreaterThan(MaxHourlyRate) {
		return nil, invalidField("hourly_rate", "must be between 50 and 2000")
	}
	if !hasAtMostTwoDecimals(p.HourlyRate) {
		return nil, invalidField("hourly_rate", "must have at most 2 decimal places")
	}

	return &Claim{
		LecturerName:  name,
		LecturerEmail: email,
		HoursWorked:   p.HoursWorked,
		HourlyRate:    p.HourlyRate,
		Notes:         optionalString(p.Notes),
		Status:        StatusPending,
		SubmittedAt:   now,
	}, nil
}

// NUMERIC(6,2) / NUMERIC(10,2) に丸めずに収まる値だけを受け付けます。
func hasAtMostTwoDecimals(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalidField("lecturer_email", "is required")
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", invalidField("lecturer_email", "is not a valid address")
	}

	return strings.ToLower(addr.Address), nil
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
