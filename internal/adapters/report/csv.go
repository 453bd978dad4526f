// Package report は請求一覧と集計を CSV として書き出します。
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "2006-01-02 15:04"
	fileDateLayout = "20060102"
	summaryTitle   = "Summary Report - Contract Monthly Claim System"
	currencyPrefix = "R "
)

var claimsHeader = []string{
	"Claim ID", "Lecturer Name", "Email", "Hours Worked", "Hourly Rate", "Total Amount", "Status", "Date Submitted",
}

// ClaimsFileName は請求一覧 CSV のファイル名を返します。
func ClaimsFileName(now time.Time) string {
	return "ClaimsReport_" + now.Format(fileDateLayout) + ".csv"
}

// SummaryFileName は集計 CSV のファイル名を返します。
func SummaryFileName(now time.Time) string {
	return "SummaryReport_" + now.Format(fileDateLayout) + ".csv"
}

// WriteClaims は請求を 1 行 1 件で書き出します。金額は請求から再計算します。
func WriteClaims(w io.Writer, claims []*claim.Claim) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(claimsHeader); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	for _, c := range claims {
		if c == nil {
			continue
		}
		record := []string{
			strconv.FormatInt(c.ID, 10),
			c.LecturerName,
			c.LecturerEmail,
			c.HoursWorked.String(),
			c.HourlyRate.StringFixed(2),
			c.Total().StringFixed(2),
			string(c.Status),
			c.SubmittedAt.UTC().Format(dateLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("report: write claim %d: %w", c.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

// WriteSummary は集計を Metric,Value 形式で書き出します。
// 審査中 (pending と coordinator_approved) を Pending として数えます。
func WriteSummary(w io.Writer, s claim.Summary) error {
	rows := [][]string{
		{summaryTitle},
		{"Generated: " + s.GeneratedAt.UTC().Format(dateLayout)},
		{""},
		{"Metric", "Value"},
		{"Total Claims", strconv.Itoa(s.TotalClaims)},
		{"Pending Claims", strconv.Itoa(s.InReviewCount())},
		{"Approved Claims", strconv.Itoa(s.ApprovedCount())},
		{"Rejected Claims", strconv.Itoa(s.RejectedCount())},
		{"Total Amount", FormatAmount(s.TotalAmount)},
		{"Approved Amount", FormatAmount(s.ApprovedAmount())},
		{"Pending Amount", FormatAmount(s.InReviewAmount())},
		{"Average Claim Amount", FormatAmount(s.AverageAmount())},
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}
	return nil
}

// FormatAmount は "R 1,234.50" 形式で金額を整形します。
func FormatAmount(d decimal.Decimal) string {
	return currencyPrefix + humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}
