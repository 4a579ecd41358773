package model

import (
	"fmt"

	apperrors "go-gin-gift-admin/pkg/app_errors"
)

// Envelope 所有 API 回應的統一格式
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// Page 分頁結果
type Page[T any] struct {
	Items      []T `json:"data"`
	Page       int `json:"currentPage"`
	PerPage    int `json:"perPage"`
	LastPage   int `json:"lastPage"`
	TotalCount int `json:"total"`
}

func NewPage[T any](items []T, total int, q FilterQuery) Page[T] {
	q = q.Normalize()
	if items == nil {
		items = make([]T, 0)
	}
	lastPage := (total + q.PerPage - 1) / q.PerPage
	if lastPage < 1 {
		lastPage = 1
	}
	return Page[T]{
		Items:      items,
		Page:       q.Page,
		PerPage:    q.PerPage,
		LastPage:   lastPage,
		TotalCount: total,
	}
}

// Rejection 預期中的業務拒絕，例如已兌換、已過期、非排程者。
// 與傳輸層錯誤不同，呼叫端應該將 Message 原樣顯示。
type Rejection struct {
	Err     error
	Message string
	// Ticket 伺服器回傳的最新快照，可能為 nil
	Ticket *Ticket
}

func NewRejection(err error, ticket *Ticket) *Rejection {
	return &Rejection{
		Err:     err,
		Message: RejectionMessage(err, ticket),
		Ticket:  ticket,
	}
}

func (r *Rejection) Error() string {
	return r.Message
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func (r *Rejection) Code() string {
	return apperrors.Code(r.Err)
}

// RejectionMessage 產生給使用者看的訊息
func RejectionMessage(err error, ticket *Ticket) string {
	if ticket == nil {
		return err.Error()
	}
	switch err {
	case apperrors.ErrNotTicketOwner:
		return fmt.Sprintf("ticket %s is scheduled by %s; only they can redeem or reschedule it",
			ticket.CodeVerification, ticket.DistributorName())
	case apperrors.ErrTicketAlreadyConsumed:
		if ticket.ConsumedAt != nil && ticket.Distributor != nil {
			return fmt.Sprintf("ticket %s was already consumed on %s by %s",
				ticket.CodeVerification, ticket.ConsumedAt.Format(DateLayout), ticket.DistributorName())
		}
		return fmt.Sprintf("ticket %s was already consumed", ticket.CodeVerification)
	case apperrors.ErrTicketExpired:
		return fmt.Sprintf("ticket %s expired on %s",
			ticket.CodeVerification, ticket.ExpirationAt.Format(DateLayout))
	}
	return err.Error()
}
