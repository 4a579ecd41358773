// Package lifecycle resolves verification codes to tickets and drives the
// consume / schedule transitions against the admin API. The API stays the
// source of truth; the local checks only avoid round trips that are known
// to fail.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-gin-gift-admin/internal/model"
	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/clock"
	"go-gin-gift-admin/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// API 後端票券操作。業務拒絕以 *model.Rejection 回傳，其餘錯誤視為傳輸錯誤
type API interface {
	LookupTicket(ctx context.Context, code string) (*model.Ticket, error)
	ConsumeTicket(ctx context.Context, ticketID int) (*model.Ticket, error)
	ScheduleTicket(ctx context.Context, ticketID int, when time.Time) (*model.Ticket, error)
}

// SnapshotStore 保存最後一次看到的票券快照
type SnapshotStore interface {
	// Get 沒有快照時回傳 nil, nil
	Get(ctx context.Context, ticketID int) (*model.Ticket, error)
	Put(ctx context.Context, ticket *model.Ticket) error
}

// Outcome 成功時 Ticket 為更新後的快照；業務拒絕時 Rejection 不為 nil
type Outcome struct {
	Ticket    *model.Ticket
	Rejection *model.Rejection
}

func (o Outcome) OK() bool {
	return o.Rejection == nil
}

// Actions 目前使用者對該票券可以進行的操作
type Actions struct {
	CanConsume    bool
	CanSchedule   bool
	CanReschedule bool
	// Notice 無法操作時顯示的唯讀訊息
	Notice string
}

type options struct {
	clock clock.Clock
	store SnapshotStore
	log   *zap.Logger
}

type Option func(*options)

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithStore(s SnapshotStore) Option {
	return func(o *options) { o.store = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

type Lifecycle struct {
	api    API
	actor  model.User
	clock  clock.Clock
	store  SnapshotStore
	log    *zap.Logger
	lookup singleflight.Group
}

func New(api API, actor model.User, opts ...Option) *Lifecycle {
	o := options{
		clock: clock.Real(),
		store: NewMemoryStore(),
		log:   logger.WithComponent("lifecycle"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Lifecycle{
		api:   api,
		actor: actor,
		clock: o.clock,
		store: o.store,
		log:   o.log.With(zap.Int("actor_id", actor.ID)),
	}
}

func (l *Lifecycle) Actor() model.User {
	return l.actor
}

// Lookup 相同 code 的並行查詢只送出一次
func (l *Lifecycle) Lookup(ctx context.Context, code string) (Outcome, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Outcome{}, apperrors.ErrInvalidInput
	}

	// 共用的請求不跟隨任何單一呼叫者取消；各呼叫者只等待自己的 ctx
	shared := context.WithoutCancel(ctx)
	ch := l.lookup.DoChan(code, func() (interface{}, error) {
		return l.api.LookupTicket(shared, code)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return l.reject("lookup", res.Err)
	}

	ticket := res.Val.(*model.Ticket)
	l.remember(ctx, ticket)
	return Outcome{Ticket: ticket}, nil
}

// Consume 已知快照無法兌換時直接拒絕，不送出請求
func (l *Lifecycle) Consume(ctx context.Context, ticketID int) (Outcome, error) {
	if snapshot := l.snapshot(ctx, ticketID); snapshot != nil {
		if err := snapshot.CheckConsume(l.clock.Now(), l.actor.ID); err != nil {
			return l.rejectLocally("consume", err, snapshot), nil
		}
	}

	ticket, err := l.api.ConsumeTicket(ctx, ticketID)
	return l.settle(ctx, "consume", ticket, err)
}

// Schedule 排程到 when 當天（以 clock 的時區計算），早於今天直接拒絕
func (l *Lifecycle) Schedule(ctx context.Context, ticketID int, when time.Time) (Outcome, error) {
	if when.IsZero() {
		return Outcome{}, apperrors.ErrInvalidInput
	}

	now := l.clock.Now()
	day := model.ScheduleDay(when, now.Location())
	snapshot := l.snapshot(ctx, ticketID)

	if snapshot != nil {
		if err := snapshot.CheckSchedule(now, day, l.actor.ID); err != nil {
			return l.rejectLocally("schedule", err, snapshot), nil
		}
	} else if day.Before(clock.StartOfDay(now)) {
		return l.rejectLocally("schedule", apperrors.ErrInvalidScheduleDate, nil), nil
	}

	ticket, err := l.api.ScheduleTicket(ctx, ticketID, day)
	return l.settle(ctx, "schedule", ticket, err)
}

// Reschedule 僅限已排程的票券，其餘規則同 Schedule
func (l *Lifecycle) Reschedule(ctx context.Context, ticketID int, when time.Time) (Outcome, error) {
	snapshot := l.snapshot(ctx, ticketID)
	if snapshot != nil && snapshot.EffectiveState(l.clock.Now()) == model.TicketStateNotConsumed {
		return l.rejectLocally("reschedule", apperrors.ErrTicketNotScheduled, snapshot), nil
	}
	return l.Schedule(ctx, ticketID, when)
}

func (l *Lifecycle) IsExpired(t *model.Ticket) bool {
	return t.IsExpired(l.clock.Now())
}

func (l *Lifecycle) Actions(t *model.Ticket) Actions {
	now := l.clock.Now()
	consumeErr := t.CheckConsume(now, l.actor.ID)
	scheduleErr := t.CheckSchedule(now, now, l.actor.ID)

	actions := Actions{
		CanConsume:    consumeErr == nil,
		CanSchedule:   scheduleErr == nil,
		CanReschedule: scheduleErr == nil && t.State == model.TicketStateScheduled,
	}
	if consumeErr != nil {
		actions.Notice = model.RejectionMessage(consumeErr, t)
	}
	return actions
}

func (l *Lifecycle) snapshot(ctx context.Context, ticketID int) *model.Ticket {
	ticket, err := l.store.Get(ctx, ticketID)
	if err != nil {
		l.log.Warn("failed to read ticket snapshot", zap.Int("ticket_id", ticketID), zap.Error(err))
		return nil
	}
	return ticket
}

func (l *Lifecycle) remember(ctx context.Context, ticket *model.Ticket) {
	if ticket == nil {
		return
	}
	if err := l.store.Put(ctx, ticket); err != nil {
		l.log.Warn("failed to store ticket snapshot", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (l *Lifecycle) settle(ctx context.Context, op string, ticket *model.Ticket, err error) (Outcome, error) {
	if err != nil {
		return l.reject(op, err)
	}
	l.remember(ctx, ticket)
	l.log.Info("ticket updated",
		zap.String("op", op), zap.Int("ticket_id", ticket.ID), zap.String("state", string(ticket.State)))
	return Outcome{Ticket: ticket}, nil
}

// reject 業務拒絕轉成 Outcome 並保存伺服器附帶的快照；傳輸錯誤原樣回傳
func (l *Lifecycle) reject(op string, err error) (Outcome, error) {
	var rejection *model.Rejection
	if !errors.As(err, &rejection) {
		l.log.Error("ticket request failed", zap.String("op", op), zap.Error(err))
		return Outcome{}, err
	}

	l.log.Warn("ticket request rejected",
		zap.String("op", op), zap.String("code", rejection.Code()), zap.String("message", rejection.Message))
	if rejection.Ticket != nil {
		l.remember(context.Background(), rejection.Ticket)
	}
	return Outcome{Ticket: rejection.Ticket, Rejection: rejection}, nil
}

func (l *Lifecycle) rejectLocally(op string, err error, snapshot *model.Ticket) Outcome {
	rejection := model.NewRejection(err, snapshot)
	l.log.Warn("ticket action refused",
		zap.String("op", op), zap.String("code", rejection.Code()), zap.String("message", rejection.Message))
	return Outcome{Ticket: snapshot, Rejection: rejection}
}
