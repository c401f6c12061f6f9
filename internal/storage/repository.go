package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertAttemptSQL = `INSERT INTO stake_attempts (
        product,
        operation,
        amount_stx,
        amount_ustx,
        term_selector,
        status,
        txid,
        error
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, product, operation, amount_stx, amount_ustx, term_selector, status, txid, error, created_at;`

	listRecentAttemptsSQL = `SELECT
        id,
        product,
        operation,
        amount_stx,
        amount_ustx,
        term_selector,
        status,
        txid,
        error,
        created_at
    FROM stake_attempts
    ORDER BY created_at DESC
    LIMIT $1;`

	countAttemptsSQL = `SELECT COUNT(*) FROM stake_attempts;`

	deleteAttemptsBeforeSQL = `DELETE FROM stake_attempts WHERE created_at < $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// AttemptStore defines persistence for submission attempt auditing.
type AttemptStore interface {
	InsertAttempt(ctx context.Context, attempt AttemptRecord) (AttemptRecord, error)
	ListRecentAttempts(ctx context.Context, limit int) ([]AttemptRecord, error)
	CountAttempts(ctx context.Context) (int64, error)
	DeleteAttemptsBefore(ctx context.Context, olderThan time.Time) error
}

// AdvisoryLocker exposes advisory lock helpers. The orchestrator uses
// it to extend single-attempt exclusion across gateway instances.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to the stake attempt audit trail.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAttempt persists a submission attempt outcome.
func (s *Store) InsertAttempt(ctx context.Context, attempt AttemptRecord) (AttemptRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AttemptRecord{}, err
	}

	amount := attempt.Amount.String()

	var micro interface{}
	if attempt.MicroSTX != nil {
		micro = *attempt.MicroSTX
	}
	var term interface{}
	if attempt.Term != nil {
		term = *attempt.Term
	}
	var txid interface{}
	if attempt.TxID != nil {
		txid = *attempt.TxID
	}
	var errMsg interface{}
	if attempt.Error != nil {
		errMsg = *attempt.Error
	}

	row := pool.QueryRow(ctx, insertAttemptSQL,
		attempt.Product,
		attempt.Operation,
		amount,
		micro,
		term,
		attempt.Status,
		txid,
		errMsg,
	)

	rec, scanErr := scanAttempt(row)
	if scanErr != nil {
		return AttemptRecord{}, fmt.Errorf("insert attempt: %w", scanErr)
	}
	return rec, nil
}

// ListRecentAttempts lists the most recent submission attempts.
func (s *Store) ListRecentAttempts(ctx context.Context, limit int) ([]AttemptRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAttemptsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent attempts: %w", queryErr)
	}
	defer rows.Close()

	attempts := make([]AttemptRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanAttempt(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		attempts = append(attempts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return attempts, nil
}

// CountAttempts counts stored attempts.
func (s *Store) CountAttempts(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countAttemptsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count attempts: %w", scanErr)
	}
	return count, nil
}

// DeleteAttemptsBefore deletes historical attempts.
func (s *Store) DeleteAttemptsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAttemptsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete attempts before: %w", execErr)
	}
	return nil
}

func scanAttempt(row pgx.Row) (AttemptRecord, error) {
	var (
		rec       AttemptRecord
		amountStr string
		micro     sql.NullInt64
		term      sql.NullInt64
		txid      sql.NullString
		errMsg    sql.NullString
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Product,
		&rec.Operation,
		&amountStr,
		&micro,
		&term,
		&rec.Status,
		&txid,
		&errMsg,
		&rec.CreatedAt,
	); err != nil {
		return AttemptRecord{}, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return AttemptRecord{}, fmt.Errorf("parse amount: %w", err)
	}
	rec.Amount = amount

	if micro.Valid {
		value := micro.Int64
		rec.MicroSTX = &value
	}
	if term.Valid {
		value := int(term.Int64)
		rec.Term = &value
	}
	if txid.Valid {
		value := txid.String
		rec.TxID = &value
	}
	if errMsg.Valid {
		value := errMsg.String
		rec.Error = &value
	}

	return rec, nil
}

var (
	_ AttemptStore   = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
)
