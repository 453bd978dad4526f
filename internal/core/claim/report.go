package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusTotals は状態ごとの件数と金額です。
type StatusTotals struct {
	Count  int
	Amount decimal.Decimal
}

// Summary は請求一覧の集計結果です。書式化は行いません。
type Summary struct {
	GeneratedAt time.Time
	TotalClaims int
	TotalAmount decimal.Decimal
	ByStatus    map[Status]StatusTotals
}

// Summarize は請求を状態別に集計します。
func Summarize(claims []*Claim, now time.Time) Summary {
	s := Summary{
		GeneratedAt: now,
		TotalAmount: decimal.Zero,
		ByStatus:    make(map[Status]StatusTotals, len(Statuses())),
	}
	for _, st := range Statuses() {
		s.ByStatus[st] = StatusTotals{Amount: decimal.Zero}
	}

	for _, c := range claims {
		if c == nil {
			continue
		}
		total := c.Total()
		s.TotalClaims++
		s.TotalAmount = s.TotalAmount.Add(total)

		bucket := s.ByStatus[c.Status]
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(total)
		s.ByStatus[c.Status] = bucket
	}

	return s
}

// Count は指定状態の件数を返します。
func (s Summary) Count(status Status) int {
	return s.ByStatus[status].Count
}

// Amount は指定状態の合計金額を返します。
func (s Summary) Amount(status Status) decimal.Decimal {
	return s.ByStatus[status].Amount
}

// InReviewCount は審査中 (pending と coordinator_approved) の件数です。
func (s Summary) InReviewCount() int {
	return s.Count(StatusPending) + s.Count(StatusCoordinatorApproved)
}

// InReviewAmount は審査中の合計金額です。
func (s Summary) InReviewAmount() decimal.Decimal {
	return s.Amount(StatusPending).Add(s.Amount(StatusCoordinatorApproved))
}

// ApprovedCount は最終承認済みの件数です。
func (s Summary) ApprovedCount() int {
	return s.Count(StatusManagerApproved)
}

// ApprovedAmount は最終承認済みの合計金額です。
func (s Summary) ApprovedAmount() decimal.Decimal {
	return s.Amount(StatusManagerApproved)
}

// RejectedCount はいずれかの段階で却下された件数です。
func (s Summary) RejectedCount() int {
	n := 0
	for _, st := range Statuses() {
		if st.IsRejected() {
			n += s.Count(st)
		}
	}
	return n
}

// AverageAmount は 1 件あたりの平均請求額を返します。請求がなければ 0 です。
func (s Summary) AverageAmount() decimal.Decimal {
	if s.TotalClaims == 0 {
		return decimal.Zero
	}
	return s.TotalAmount.Div(decimal.NewFromInt(int64(s.TotalClaims))).Round(2)
}
