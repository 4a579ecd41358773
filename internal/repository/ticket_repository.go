package repository

import (
	"context"
	"fmt"
	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	FindByID(ctx context.Context, id int) (*model.Ticket, error)
	FindByCode(ctx context.Context, code string) (*model.Ticket, error)
	// List 回傳符合條件的票券與總筆數；now 用於判斷過期
	List(ctx context.Context, q model.FilterQuery, now time.Time) ([]*model.Ticket, int, error)

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error)
	MarkConsumed(ctx context.Context, tx pgx.Tx, id int, distributorID int, at time.Time) error
	MarkScheduled(ctx context.Context, tx pgx.Tx, id int, distributorID int, when time.Time) error
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketSelect = `
	SELECT t.id, t.code_verification, t.state, t.expiration_at,
			t.consumed_at, t.scheduled_for, t.created_at, t.updated_at,
			g.id, g.name, g.description, g.value, g.currency, g.active,
			g.pack_id, g.image, g.created_at, g.updated_at,
			b.id, b.name, b.email,
			d.id, d.name, d.email
	FROM tickets t
	JOIN gifts g ON g.id = t.gift_id
	JOIN users b ON b.id = t.beneficiary_id
	LEFT JOIN users d ON d.id = t.distributor_id
`

const ticketFrom = `
	FROM tickets t
	JOIN gifts g ON g.id = t.gift_id
	JOIN users b ON b.id = t.beneficiary_id
	LEFT JOIN users d ON d.id = t.distributor_id
`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var (
		ticket           model.Ticket
		distributorID    *int
		distributorName  *string
		distributorEmail *string
	)
	err := row.Scan(
		&ticket.ID,
		&ticket.CodeVerification,
		&ticket.State,
		&ticket.ExpirationAt,
		&ticket.ConsumedAt,
		&ticket.ScheduledFor,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.Gift.ID,
		&ticket.Gift.Name,
		&ticket.Gift.Description,
		&ticket.Gift.Value,
		&ticket.Gift.Currency,
		&ticket.Gift.Active,
		&ticket.Gift.PackID,
		&ticket.Gift.Image,
		&ticket.Gift.CreatedAt,
		&ticket.Gift.UpdatedAt,
		&ticket.Beneficiary.ID,
		&ticket.Beneficiary.Name,
		&ticket.Beneficiary.Email,
		&distributorID,
		&distributorName,
		&distributorEmail,
	)
	if err != nil {
		return nil, err
	}

	if distributorID != nil {
		ticket.Distributor = &model.User{ID: *distributorID}
		if distributorName != nil {
			ticket.Distributor.Name = *distributorName
		}
		if distributorEmail != nil {
			ticket.Distributor.Email = *distributorEmail
		}
	}

	return &ticket, nil
}

func (r *TicketRepositoryImpl) Create(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (
		code_verification, gift_id, beneficiary_id, state, expiration_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if ticket.State == "" {
		ticket.State = model.TicketStateNotConsumed
	}

	var id int
	err := r.pool.QueryRow(ctx, query,
		ticket.CodeVerification, ticket.Gift.ID, ticket.Beneficiary.ID,
		ticket.State, ticket.ExpirationAt,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	return r.findOne(ctx, r.pool, "WHERE t.id = $1", id)
}

func (r *TicketRepositoryImpl) FindByCode(ctx context.Context, code string) (*model.Ticket, error) {
	return r.findOne(ctx, r.pool, "WHERE t.code_verification = $1", code)
}

func (r *TicketRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Ticket, error) {
	// LEFT JOIN 的另一側不能上鎖，只鎖 tickets
	return r.findOne(ctx, tx, "WHERE t.id = $1 FOR UPDATE OF t", id)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *TicketRepositoryImpl) findOne(ctx context.Context, q querier, where string, arg interface{}) (*model.Ticket, error) {
	ticket, err := scanTicket(q.QueryRow(ctx, ticketSelect+where, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepositoryImpl) List(ctx context.Context, q model.FilterQuery, now time.Time) ([]*model.Ticket, int, error) {
	q = q.Normalize()

	var w whereBuilder
	w.search(q.Search, "t.code_verification", "b.name", "b.email", "g.name", "d.name")
	if err := ticketStatusFilter(&w, q.Status, now); err != nil {
		return nil, 0, err
	}
	if q.Currency != "" {
		w.add("g.currency = $%[1]d", q.Currency)
	}
	w.dateRange("t.created_at", q.DateFrom, q.DateTo)
	w.dateRange("t.expiration_at", q.ExpirationDateFrom, q.ExpirationDateTo)

	var total int
	countQuery := "SELECT COUNT(*) " + ticketFrom + w.String()
	if err := r.pool.QueryRow(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := w.limit(q.PerPage, q.Offset())
	query := fmt.Sprintf("%s %s ORDER BY t.updated_at DESC, t.id DESC %s", ticketSelect, w.String(), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

// ticketStatusFilter 狀態篩選與 Ticket.IsExpired 一致：過期由 expiration_at 推導
func ticketStatusFilter(w *whereBuilder, status string, now time.Time) error {
	switch model.TicketState(status) {
	case "":
	case model.TicketStateConsumed:
		w.raw("t.state = 'consumed'")
	case model.TicketStateNotConsumed, model.TicketStateScheduled:
		w.add("t.state = $%[1]d", status)
		w.add("t.expiration_at >= $%[1]d", now)
	case model.TicketStateExpired:
		w.add("t.state <> 'consumed' AND (t.state = 'expired' OR t.expiration_at < $%[1]d)", now)
	default:
		return apperrors.ErrInvalidInput
	}
	return nil
}

func (r *TicketRepositoryImpl) MarkConsumed(ctx context.Context, tx pgx.Tx, id int, distributorID int, at time.Time) error {
	query := `
		UPDATE tickets
		SET state = 'consumed', consumed_at = $1, distributor_id = $2, updated_at = $1
		WHERE id = $3 AND state IN ('not_consumed', 'scheduled')
	`

	result, err := tx.Exec(ctx, query, at.UTC(), distributorID, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketAlreadyConsumed
	}

	return nil
}

func (r *TicketRepositoryImpl) MarkScheduled(ctx context.Context, tx pgx.Tx, id int, distributorID int, when time.Time) error {
	query := `
		UPDATE tickets
		SET state = 'scheduled', scheduled_for = $1, distributor_id = $2, updated_at = NOW()
		WHERE id = $3 AND state IN ('not_consumed', 'scheduled')
	`

	result, err := tx.Exec(ctx, query, when, distributorID, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketAlreadyConsumed
	}

	return nil
}
