package model

import (
	"fmt"
	"time"

	apperrors "go-gin-gift-admin/pkg/app_errors"
	"go-gin-gift-admin/pkg/clock"
)

// TicketState 票券狀態類型
type TicketState string

const (
	TicketStateNotConsumed TicketState = "not_consumed"
	TicketStateScheduled   TicketState = "scheduled"
	TicketStateConsumed    TicketState = "consumed"
	TicketStateExpired     TicketState = "expired"
)

// IsValid 驗證狀態是否有效
func (s TicketState) IsValid() bool {
	switch s {
	case TicketStateNotConsumed, TicketStateScheduled, TicketStateConsumed, TicketStateExpired:
		return true
	}
	return false
}

// Ticket 兌換票券模型
type Ticket struct {
	ID               int         `json:"id" db:"id"`
	CodeVerification string      `json:"code_verification" db:"code_verification"`
	Gift             Gift        `json:"gift" db:"-"`
	Beneficiary      User        `json:"beneficiary" db:"-"`
	Distributor      *User       `json:"distributor" db:"-"`
	State            TicketState `json:"state" db:"state"`
	ExpirationAt     time.Time   `json:"expiration_at" db:"expiration_at"`
	ConsumedAt       *time.Time  `json:"consumed_at,omitempty" db:"consumed_at"`
	ScheduledFor     *time.Time  `json:"scheduled_for,omitempty" db:"scheduled_for"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// IsExpired 過期判斷：只看 expiration_at，不信任可能過時的 state 欄位
func (t *Ticket) IsExpired(now time.Time) bool {
	return now.After(t.ExpirationAt) && t.State != TicketStateConsumed
}

// EffectiveState 回傳考慮過期後的顯示狀態
func (t *Ticket) EffectiveState(now time.Time) TicketState {
	if t.IsExpired(now) {
		return TicketStateExpired
	}
	return t.State
}

// OwnedBy 檢查票券是否由該管理員排程或兌換
func (t *Ticket) OwnedBy(userID int) bool {
	return t.Distributor != nil && t.Distributor.ID == userID
}

func (t *Ticket) DistributorName() string {
	if t.Distributor == nil {
		return ""
	}
	if t.Distributor.Name != "" {
		return t.Distributor.Name
	}
	return t.Distributor.Email
}

// CheckConsume 檢查是否可以兌換
//
//	not_consumed -> consumed
//	scheduled    -> consumed (僅限原排程者)
func (t *Ticket) CheckConsume(now time.Time, actorID int) error {
	switch {
	case t.State == TicketStateConsumed:
		return apperrors.ErrTicketAlreadyConsumed
	case t.State == TicketStateExpired || t.IsExpired(now):
		return apperrors.ErrTicketExpired
	case t.State == TicketStateScheduled && !t.OwnedBy(actorID):
		return apperrors.ErrNotTicketOwner
	}
	return nil
}

// CheckSchedule 檢查是否可以排程（或重新排程）到 when。
// when 以日期為單位比較，等於今天是允許的。
func (t *Ticket) CheckSchedule(now, when time.Time, actorID int) error {
	if ScheduleDay(when, now.Location()).Before(clock.StartOfDay(now)) {
		return apperrors.ErrInvalidScheduleDate
	}
	switch {
	case t.State == TicketStateConsumed:
		return apperrors.ErrTicketAlreadyConsumed
	case t.State == TicketStateExpired || t.IsExpired(now):
		return apperrors.ErrTicketExpired
	case t.State == TicketStateScheduled && !t.OwnedBy(actorID):
		return apperrors.ErrNotTicketOwner
	}
	return nil
}

// ScheduleDay 將排程時間轉到 loc 並截斷為當天零點
func ScheduleDay(when time.Time, loc *time.Location) time.Time {
	return clock.StartOfDay(when.In(loc))
}

// CalendarDay 保留 when 的年月日，改用 loc 的零點。
// 用於只帶日期 (YYYY-MM-DD) 的請求，避免時區轉換跨日。
func CalendarDay(when time.Time, loc *time.Location) time.Time {
	year, month, day := when.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// Validate 檢查快照是否符合狀態不變量
func (t *Ticket) Validate() error {
	if !t.State.IsValid() {
		return fmt.Errorf("unknown ticket state %q", t.State)
	}
	switch t.State {
	case TicketStateConsumed:
		if t.ConsumedAt == nil || t.Distributor == nil {
			return fmt.Errorf("consumed ticket %d without consumed_at or distributor", t.ID)
		}
	case TicketStateScheduled:
		if t.ScheduledFor == nil || t.Distributor == nil {
			return fmt.Errorf("scheduled ticket %d without scheduled_for or distributor", t.ID)
		}
	}
	return nil
}
