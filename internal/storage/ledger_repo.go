package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sceneflow/internal/models"
)

// ErrInsufficientBalance is permanent for the current attempt: the caller
// must credit the account before analysis can resume.
var ErrInsufficientBalance = errors.New("insufficient balance")

var ErrAccountNotFound = errors.New("account not found")

// LedgerRepo is the consumption-accounting collaborator. The conditional
// UPDATE keeps concurrent decrements for one account serialized on the row,
// so the balance can never go negative.
type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.db.Pool.QueryRow(ctx, `SELECT balance FROM credit_accounts WHERE account_id=$1`, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// Charge debits amount units for one scene and returns the new balance. It
// fails with ErrInsufficientBalance without touching the row when the balance
// is short. The ledger entry is keyed by (account_id, project_id,
// scene_number) with a unique constraint, so a replayed charge for a scene
// that was already billed leaves the balance untouched; activity executions
// are at-least-once and the debit must not be.
func (r *LedgerRepo) Charge(ctx context.Context, accountID, projectID string, sceneNumber int, amount int64) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin charge: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
INSERT INTO ledger_entries (account_id, project_id, scene_number, delta, reason)
VALUES ($1, $2, $3, $4, 'scene analysis')
ON CONFLICT (account_id, project_id, scene_number) DO NOTHING`,
		accountID, projectID, sceneNumber, -amount)
	if err != nil {
		return 0, fmt.Errorf("record charge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// This scene was already billed by an earlier execution.
		return r.Balance(ctx, accountID)
	}

	var balance int64
	err = tx.QueryRow(ctx, `
UPDATE credit_accounts
SET balance = balance - $2, updated_at = NOW()
WHERE account_id = $1 AND balance >= $2
RETURNING balance`,
		accountID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, berr := r.Balance(ctx, accountID); errors.Is(berr, ErrAccountNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("charge account: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit charge: %w", err)
	}
	return balance, nil
}

// Credit tops up the account, creating it on first use.
func (r *LedgerRepo) Credit(ctx context.Context, accountID string, amount int64, reason string) (int64, error) {
	var balance int64
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO credit_accounts (account_id, balance)
VALUES ($1, $2)
ON CONFLICT (account_id)
DO UPDATE SET balance = credit_accounts.balance + EXCLUDED.balance, updated_at = NOW()
RETURNING balance`,
		accountID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credit account: %w", err)
	}
	if err := r.appendEntry(ctx, accountID, amount, reason); err != nil {
		return balance, err
	}
	return balance, nil
}

func (r *LedgerRepo) appendEntry(ctx context.Context, accountID string, delta int64, reason string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO ledger_entries (account_id, delta, reason) VALUES ($1, $2, NULLIF($3,''))`,
		accountID, delta, reason)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) GetAccount(ctx context.Context, accountID string) (models.CreditAccount, error) {
	var a models.CreditAccount
	err := r.db.Pool.QueryRow(ctx, `
SELECT account_id, balance, created_at, updated_at FROM credit_accounts WHERE account_id=$1`, accountID).
		Scan(&a.AccountID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CreditAccount{}, ErrAccountNotFound
	}
	if err != nil {
		return models.CreditAccount{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}
