package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	pgdb "github.com/ogurasousui/contract-claims/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

const (
	checkViolationCode   = "23514"
	notNullViolationCode = "23502"
)

const claimColumns = `id, lecturer_name, lecturer_email, hours_worked, hourly_rate, notes, file_name, file_path, status, submitted_at`

const (
	insertClaimQuery = `
        INSERT INTO claims (lecturer_name, lecturer_email, hours_worked, hourly_rate, notes, status, submitted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + claimColumns

	selectClaimByIDQuery = `
        SELECT ` + claimColumns + `
          FROM claims
         WHERE id = $1
         LIMIT 1
    `

	selectClaimsByStatusQuery = `
        SELECT ` + claimColumns + `
          FROM claims
         WHERE status = $1
         ORDER BY submitted_at DESC, id DESC
    `

	selectClaimsBySubmitterQuery = `
        SELECT ` + claimColumns + `
          FROM claims
         WHERE lecturer_email = $1
         ORDER BY submitted_at DESC, id DESC
    `

	selectAllClaimsQuery = `
        SELECT ` + claimColumns + `
          FROM claims
         ORDER BY submitted_at DESC, id DESC
    `

	selectRecentClaimsQuery = `
        SELECT ` + claimColumns + `
          FROM claims
         ORDER BY submitted_at DESC, id DESC
         LIMIT $1
    `

	// 読み込み時点のステータスのままである場合に限り更新する
	updateClaimStatusQuery = `
        UPDATE claims
           SET status = $1,
               notes = $2
         WHERE id = $3
           AND status = $4
        RETURNING ` + claimColumns

	updateClaimDocumentQuery = `
        UPDATE claims
           SET file_name = $1,
               file_path = $2
         WHERE id = $3
        RETURNING ` + claimColumns
)

// ClaimRepository は PostgreSQL を利用した請求永続化の実装です。
type ClaimRepository struct {
	pool pgdb.Queryer
}

// NewClaimRepository は ClaimRepository を生成します。
func NewClaimRepository(pool pgdb.Queryer) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

// Create は請求を新規作成します。
func (r *ClaimRepository) Create(ctx context.Context, c *claim.Claim) (*claim.Claim, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, insertClaimQuery,
		c.LecturerName, c.LecturerEmail, c.HoursWorked, c.HourlyRate,
		nullableString(c.Notes), string(c.Status), c.SubmittedAt,
	)

	created, err := scanClaim(row)
	if err != nil {
		return nil, translateClaimPgError(err)
	}
	return created, nil
}

// FindByID は ID で請求を取得します。
func (r *ClaimRepository) FindByID(ctx context.Context, id int64) (*claim.Claim, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanClaim(exec.QueryRow(ctx, selectClaimByIDQuery, id))
	if err != nil {
		return nil, translateClaimPgError(err)
	}
	return found, nil
}

// FindByStatus は指定ステータスの請求を提出日時の降順で取得します。
func (r *ClaimRepository) FindByStatus(ctx context.Context, status claim.Status) ([]*claim.Claim, error) {
	return r.query(ctx, selectClaimsByStatusQuery, string(status))
}

// FindBySubmitter は講師のメールアドレスで請求を取得します。
func (r *ClaimRepository) FindBySubmitter(ctx context.Context, email string) ([]*claim.Claim, error) {
	return r.query(ctx, selectClaimsBySubmitterQuery, email)
}

// ListAll は全請求を提出日時の降順で取得します。limit が 0 以下の場合は件数を制限しません。
func (r *ClaimRepository) ListAll(ctx context.Context, limit int) ([]*claim.Claim, error) {
	if limit > 0 {
		return r.query(ctx, selectRecentClaimsQuery, limit)
	}
	return r.query(ctx, selectAllClaimsQuery)
}

// Save は請求のステータスとメモを更新します。
// 保存済みのステータスが expected と異なる場合は claim.ErrConflict を返します。
func (r *ClaimRepository) Save(ctx context.Context, c *claim.Claim, expected claim.Status) (*claim.Claim, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, updateClaimStatusQuery,
		string(c.Status), nullableString(c.Notes), c.ID, string(expected),
	)

	saved, err := scanClaim(row)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateClaimPgError(err)
	}

	// 0 件更新は「存在しない」か「先に更新された」のどちらか
	if _, findErr := r.FindByID(ctx, c.ID); findErr != nil {
		return nil, findErr
	}
	return nil, claim.ErrConflict
}

// AttachDocument は添付ファイルの名前と保存先を記録します。
func (r *ClaimRepository) AttachDocument(ctx context.Context, id int64, fileName, filePath string) (*claim.Claim, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	updated, err := scanClaim(exec.QueryRow(ctx, updateClaimDocumentQuery, fileName, filePath, id))
	if err != nil {
		return nil, translateClaimPgError(err)
	}
	return updated, nil
}

func (r *ClaimRepository) query(ctx context.Context, q string, args ...any) ([]*claim.Claim, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, q, args...)
	if err != nil {
		return nil, translateClaimPgError(err)
	}
	defer rows.Close()

	claims := make([]*claim.Claim, 0)
	for rows.Next() {
		found, err := scanClaim(rows)
		if err != nil {
			return nil, translateClaimPgError(err)
		}
		claims = append(claims, found)
	}

	if err := rows.Err(); err != nil {
		return nil, translateClaimPgError(err)
	}

	return claims, nil
}

func scanClaim(row pgx.Row) (*claim.Claim, error) {
	var (
		id          int64
		name        string
		email       string
		hours       decimal.Decimal
		rate        decimal.Decimal
		notes       sql.NullString
		fileName    sql.NullString
		filePath    sql.NullString
		status      string
		submittedAt time.Time
	)

	if err := row.Scan(&id, &name, &email, &hours, &rate, &notes, &fileName, &filePath, &status, &submittedAt); err != nil {
		return nil, err
	}

	return &claim.Claim{
		ID:            id,
		LecturerName:  name,
		LecturerEmail: email,
		HoursWorked:   hours,
		HourlyRate:    rate,
		Notes:         stringPtr(notes),
		FileName:      stringPtr(fileName),
		FilePath:      stringPtr(filePath),
		Status:        claim.Status(status),
		SubmittedAt:   submittedAt.UTC(),
	}, nil
}

func translateClaimPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return claim.ErrClaimNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case checkViolationCode:
			return &claim.ValidationError{Field: constraintField(pgErr.ConstraintName), Message: "violates constraint " + pgErr.ConstraintName}
		case notNullViolationCode:
			return &claim.ValidationError{Field: pgErr.ColumnName, Message: "is required"}
		}
	}

	return err
}

func constraintField(constraint string) string {
	switch constraint {
	case "claims_hours_worked_check":
		return "hours_worked"
	case "claims_hourly_rate_check":
		return "hourly_rate"
	case "claims_status_check":
		return "status"
	default:
		return constraint
	}
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
