package service

import (
	"context"
	"errors"
	"time"

	"go-gin-gift-admin/internal/model"
	"go-gin-gift-admin/internal/repository"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/clock"
	"go-gin-gift-admin/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner *pgxpool.Pool 滿足此介面；測試時可替換
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type TicketService interface {
	GetByCode(ctx context.Context, code string) (*model.Ticket, error)
	History(ctx context.Context, q model.FilterQuery) (model.Page[*model.Ticket], error)
	// Consume / Schedule 業務拒絕時同時回傳目前的快照與 sentinel error
	Consume(ctx context.Context, ticketID int, actorID int) (*model.Ticket, error)
	Schedule(ctx context.Context, ticketID int, actorID int, when time.Time) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	db       TxBeginner
	repo     repository.TicketRepository
	userRepo repository.UserRepository
	clock    clock.Clock
	log      *zap.Logger
}

func NewTicketService(db TxBeginner, repo repository.TicketRepository, userRepo repository.UserRepository, clk clock.Clock) TicketService {
	return &TicketServiceImpl{
		db:       db,
		repo:     repo,
		userRepo: userRepo,
		clock:    clk,
		log:      logger.WithComponent("ticket_service"),
	}
}

func (s *TicketServiceImpl) GetByCode(ctx context.Context, code string) (*model.Ticket, error) {
	if code == "" {
		return nil, apperrors.ErrInvalidInput
	}
	return s.repo.FindByCode(ctx, code)
}

func (s *TicketServiceImpl) History(ctx context.Context, q model.FilterQuery) (model.Page[*model.Ticket], error) {
	q = q.Normalize()
	tickets, total, err := s.repo.List(ctx, q, s.clock.Now())
	if err != nil {
		return model.Page[*model.Ticket]{}, err
	}
	return model.NewPage(tickets, total, q), nil
}

func (s *TicketServiceImpl) Consume(ctx context.Context, ticketID int, actorID int) (*model.Ticket, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 鎖定票券，避免兩個管理員同時兌換
	ticket, err := s.repo.FindByIDWithLock(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := ticket.CheckConsume(now, actor.ID); err != nil {
		s.log.Warn("consume refused", zap.Int("ticket_id", ticketID), zap.Int("actor_id", actor.ID), zap.Error(err))
		return ticket, err
	}

	if err := s.repo.MarkConsumed(ctx, tx, ticketID, actor.ID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	ticket.State = model.TicketStateConsumed
	ticket.ConsumedAt = &now
	ticket.Distributor = actor
	ticket.UpdatedAt = now
	s.log.Info("ticket consumed", zap.Int("ticket_id", ticketID), zap.Int("actor_id", actor.ID))
	return ticket, nil
}

// Schedule when 只取日期部分
func (s *TicketServiceImpl) Schedule(ctx context.Context, ticketID int, actorID int, when time.Time) (*model.Ticket, error) {
	if when.IsZero() {
		return nil, apperrors.ErrInvalidInput
	}

	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ticket, err := s.repo.FindByIDWithLock(ctx, tx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	day := model.CalendarDay(when, now.Location())
	if err := ticket.CheckSchedule(now, day, actor.ID); err != nil {
		s.log.Warn("schedule refused", zap.Int("ticket_id", ticketID), zap.Int("actor_id", actor.ID), zap.Error(err))
		return ticket, err
	}

	if err := s.repo.MarkScheduled(ctx, tx, ticketID, actor.ID, day); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	ticket.State = model.TicketStateScheduled
	ticket.ScheduledFor = &day
	ticket.Distributor = actor
	ticket.UpdatedAt = now
	s.log.Info("ticket scheduled", zap.Int("ticket_id", ticketID), zap.Int("actor_id", actor.ID),
		zap.String("scheduled_for", day.Format(model.DateLayout)))
	return ticket, nil
}

// actor 兌換者必須是已存在的使用者；驗證本身在上游完成
func (s *TicketServiceImpl) actor(ctx context.Context, actorID int) (*model.User, error) {
	if actorID <= 0 {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, actorID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	return user, err
}
