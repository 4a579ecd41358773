package repository

import (
	"context"
	"fmt"
	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *model.WalletTransaction) (*model.WalletTransaction, error)
	List(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) ([]*model.WalletTransaction, int, error)
}

type TransactionRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) TransactionRepository {
	return &TransactionRepositoryImpl{
		pool: pool,
	}
}

func (r *TransactionRepositoryImpl) Create(ctx context.Context, txn *model.WalletTransaction) (*model.WalletTransaction, error) {
	query := `
		INSERT INTO wallet_transactions (
			reference, user_id, provider, type, status, amount, currency
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		txn.Reference, txn.User.ID, txn.Provider, txn.Type, txn.Status, txn.Amount, txn.Currency,
	).Scan(
		&txn.ID,
		&txn.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return txn, nil
}

func (r *TransactionRepositoryImpl) List(ctx context.Context, provider model.TransactionProvider, q model.FilterQuery) ([]*model.WalletTransaction, int, error) {
	q = q.Normalize()

	var w whereBuilder
	w.add("wt.provider = $%[1]d", string(provider))
	w.search(q.Search, "wt.reference", "u.name", "u.email")
	if q.Status != "" {
		if !model.TransactionStatus(q.Status).IsValid() {
			return nil, 0, apperrors.ErrInvalidInput
		}
		w.add("wt.status = $%[1]d", q.Status)
	}
	if q.Type != "" {
		if !model.TransactionType(q.Type).IsValid() {
			return nil, 0, apperrors.ErrInvalidInput
		}
		w.add("wt.type = $%[1]d", q.Type)
	}
	if q.Currency != "" {
		w.add("wt.currency = $%[1]d", q.Currency)
	}
	w.dateRange("wt.created_at", q.DateFrom, q.DateTo)

	from := `
		FROM wallet_transactions wt
		JOIN users u ON u.id = wt.user_id
	`

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+from+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := w.limit(q.PerPage, q.Offset())
	query := fmt.Sprintf(`
		SELECT wt.id, wt.reference, wt.provider, wt.type, wt.status,
		       wt.amount, wt.currency, wt.created_at,
		       u.id, u.name, u.email
		%s %s
		ORDER BY wt.created_at DESC, wt.id DESC
		%s
	`, from, w.String(), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txns := make([]*model.WalletTransaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return txns, total, nil
}

func scanTransaction(row pgx.Row) (*model.WalletTransaction, error) {
	var txn model.WalletTransaction
	err := row.Scan(
		&txn.ID,
		&txn.Reference,
		&txn.Provider,
		&txn.Type,
		&txn.Status,
		&txn.Amount,
		&txn.Currency,
		&txn.CreatedAt,
		&txn.User.ID,
		&txn.User.Name,
		&txn.User.Email,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
