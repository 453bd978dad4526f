package handler

import (
	"time"

	"github.com/ogurasousui/contract-claims/internal/core/access"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	"github.com/ogurasousui/contract-claims/internal/core/user"
)

// ClaimResponse は請求の JSON 表現です。金額は小数点以下 2 桁の文字列で返します。
type ClaimResponse struct {
	ID            int64     `json:"id"`
	LecturerName  string    `json:"lecturer_name"`
	LecturerEmail string    `json:"lecturer_email"`
	HoursWorked   string    `json:"hours_worked"`
	HourlyRate    string    `json:"hourly_rate"`
	TotalAmount   string    `json:"total_amount"`
	Notes         *string   `json:"notes,omitempty"`
	FileName      *string   `json:"file_name,omitempty"`
	FilePath      *string   `json:"file_path,omitempty"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func toClaimResponse(c *claim.Claim) ClaimResponse {
	return ClaimResponse{
		ID:            c.ID,
		LecturerName:  c.LecturerName,
		LecturerEmail: c.LecturerEmail,
		HoursWorked:   c.HoursWorked.String(),
		HourlyRate:    c.HourlyRate.StringFixed(2),
		TotalAmount:   c.Total().StringFixed(2),
		Notes:         c.Notes,
		FileName:      c.FileName,
		FilePath:      c.FilePath,
		Status:        string(c.Status),
		SubmittedAt:   c.SubmittedAt,
	}
}

func toClaimResponses(claims []*claim.Claim) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, toClaimResponse(c))
	}
	return out
}

// SummaryResponse は集計結果の JSON 表現です。
type SummaryResponse struct {
	GeneratedAt    time.Time                  `json:"generated_at"`
	TotalClaims    int                        `json:"total_claims"`
	TotalAmount    string                     `json:"total_amount"`
	AverageAmount  string                     `json:"average_amount"`
	InReviewCount  int                        `json:"in_review_count"`
	InReviewAmount string                     `json:"in_review_amount"`
	ApprovedCount  int                        `json:"approved_count"`
	ApprovedAmount string                     `json:"approved_amount"`
	RejectedCount  int                        `json:"rejected_count"`
	ByStatus       map[string]StatusTotalsDTO `json:"by_status"`
}

// StatusTotalsDTO は状態ごとの件数と金額です。
type StatusTotalsDTO struct {
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

func toSummaryResponse(s claim.Summary) SummaryResponse {
	byStatus := make(map[string]StatusTotalsDTO, len(s.ByStatus))
	for _, st := range claim.Statuses() {
		byStatus[string(st)] = StatusTotalsDTO{Count: s.Count(st), Amount: s.Amount(st).StringFixed(2)}
	}
	return SummaryResponse{
		GeneratedAt:    s.GeneratedAt,
		TotalClaims:    s.TotalClaims,
		TotalAmount:    s.TotalAmount.StringFixed(2),
		AverageAmount:  s.AverageAmount().StringFixed(2),
		InReviewCount:  s.InReviewCount(),
		InReviewAmount: s.InReviewAmount().StringFixed(2),
		ApprovedCount:  s.ApprovedCount(),
		ApprovedAmount: s.ApprovedAmount().StringFixed(2),
		RejectedCount:  s.RejectedCount(),
		ByStatus:       byStatus,
	}
}

// UserResponse はユーザーの JSON 表現です。パスワードハッシュは含めません。
type UserResponse struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		Status:       string(u.Status),
		Capabilities: capabilityNames(u.Role),
	}
}

// PrincipalResponse はトークンから復元した呼び出し元の JSON 表現です。
type PrincipalResponse struct {
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	DefaultView  string   `json:"default_view"`
	Capabilities []string `json:"capabilities"`
}

func toPrincipalResponse(p access.Principal) PrincipalResponse {
	return PrincipalResponse{
		UserID:       p.UserID,
		Name:         p.Name,
		Email:        p.Email,
		Role:         string(p.Role),
		DefaultView:  string(access.DefaultView(p.Role)),
		Capabilities: capabilityNames(p.Role),
	}
}

func capabilityNames(role access.Role) []string {
	caps := access.Capabilities(role)
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}
