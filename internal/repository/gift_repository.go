package repository

import (
	"context"
	"fmt"
	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GiftRepository interface {
	Create(ctx context.Context, gift *model.Gift) (*model.Gift, error)
	FindByID(ctx context.Context, id int) (*model.Gift, error)
	List(ctx context.Context, q model.FilterQuery) ([]*model.Gift, int, error)
}

type GiftRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewGiftRepository(pool *pgxpool.Pool) GiftRepository {
	return &GiftRepositoryImpl{
		pool: pool,
	}
}

const giftColumns = `id, name, description, value, currency, active, pack_id, image, created_at, updated_at`

func scanGift(row pgx.Row) (*model.Gift, error) {
	var gift model.Gift
	err := row.Scan(
		&gift.ID,
		&gift.Name,
		&gift.Description,
		&gift.Value,
		&gift.Currency,
		&gift.Active,
		&gift.PackID,
		&gift.Image,
		&gift.CreatedAt,
		&gift.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

func (r *GiftRepositoryImpl) Create(ctx context.Context, gift *model.Gift) (*model.Gift, error) {
	query := `
		INSERT INTO gifts (name, description, value, currency, active, pack_id, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + giftColumns

	return scanGift(r.pool.QueryRow(ctx, query,
		gift.Name, gift.Description, gift.Value, gift.Currency, gift.Active, gift.PackID, gift.Image,
	))
}

func (r *GiftRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Gift, error) {
	query := `SELECT ` + giftColumns + ` FROM gifts WHERE id = $1 AND deleted_at IS NULL`

	gift, err := scanGift(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrGiftNotFound
		}
		return nil, err
	}
	return gift, nil
}

func (r *GiftRepositoryImpl) List(ctx context.Context, q model.FilterQuery) ([]*model.Gift, int, error) {
	q = q.Normalize()

	var w whereBuilder
	w.raw("deleted_at IS NULL")
	w.search(q.Search, "name", "description")
	switch q.Status {
	case "":
	case model.GiftStatusActive:
		w.raw("active = TRUE")
	case model.GiftStatusInactive:
		w.raw("active = FALSE")
	default:
		return nil, 0, apperrors.ErrInvalidInput
	}
	if q.Currency != "" {
		w.add("currency = $%[1]d", q.Currency)
	}
	w.dateRange("created_at", q.DateFrom, q.DateTo)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM gifts "+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := w.limit(q.PerPage, q.Offset())
	query := fmt.Sprintf(`SELECT %s FROM gifts %s ORDER BY created_at DESC, id DESC %s`, giftColumns, w.String(), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	gifts := make([]*model.Gift, 0)
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, 0, err
		}
		gifts = append(gifts, gift)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return gifts, total, nil
}
