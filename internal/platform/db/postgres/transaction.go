package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	defaultMaxAttempts = 3
)

// ErrNoTransactionFunc は実行する関数が渡されなかった場合に返却されます。
var ErrNoTransactionFunc = errors.New("postgres: transaction function is required")

type transactionContextKey struct{}

var txContextKey = transactionContextKey{}

type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager は pgx を用いたトランザクション制御を提供します。
// 直列化失敗とデッドロックは最外側のトランザクションに限り再実行します。
type TransactionManager struct {
	pool        txStarter
	maxAttempts int
}

// TxOption は TransactionManager の任意設定です。
type TxOption func(*TransactionManager)

// WithMaxAttempts は再実行を含めた最大試行回数を設定します。
func WithMaxAttempts(n int) TxOption {
	return func(m *TransactionManager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter, opts ...TxOption) *TransactionManager {
	if pool == nil {
		return nil
	}
	m := &TransactionManager{pool: pool, maxAttempts: defaultMaxAttempts}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithinReadOnly は読み取り専用トランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

// WithinReadWrite は読み書きトランザクションを開始し、fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite}, fn)
}

func (m *TransactionManager) within(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	if fn == nil {
		return ErrNoTransactionFunc
	}

	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		err = m.runOnce(ctx, opts, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(err, ctxErr)
		}
	}
	return err
}

func (m *TransactionManager) runOnce(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(contextWithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		finished = true
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if !errors.Is(err, pgx.ErrTxClosed) {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				return errors.Join(fmt.Errorf("postgres: commit: %w", err), fmt.Errorf("postgres: rollback after commit failure: %w", rbErr))
			}
		}
		finished = true
		return fmt.Errorf("postgres: commit: %w", err)
	}

	finished = true
	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

func contextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey, tx)
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey).(pgx.Tx)
	return tx, ok
}

// QueryerFromContext はコンテキスト内にトランザクションが存在すればそれを返し、存在しなければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx および pgxpool.Pool と互換性のあるクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
