package apperrors

import "errors"

var (
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrGiftNotFound          = errors.New("gift not found")
	ErrTicketAlreadyConsumed = errors.New("ticket already consumed")
	ErrTicketExpired         = errors.New("ticket already expired")
	ErrNotTicketOwner        = errors.New("ticket is scheduled by another distributor")
	ErrTicketNotScheduled    = errors.New("ticket is not scheduled")
	ErrInvalidScheduleDate   = errors.New("scheduled date is before today")
	ErrInvalidInput          = errors.New("invalid input")
	ErrNothingToExport       = errors.New("nothing to export")
	ErrExportInProgress      = errors.New("export already in progress")
	ErrUnauthorized          = errors.New("missing acting user")
	ErrInternalServerError   = errors.New("internal server error")
)

// 錯誤碼：回應 envelope 中的 code 欄位
const (
	CodeNotFound         = "not_found"
	CodeAlreadyConsumed  = "already_consumed"
	CodeAlreadyExpired   = "already_expired"
	CodeNotOwner         = "not_owner"
	CodeNotScheduled     = "not_scheduled"
	CodeInvalidDate      = "invalid_date"
	CodeInvalidInput     = "invalid_input"
	CodeNothingToExport  = "nothing_to_export"
	CodeExportInProgress = "export_in_progress"
	CodeUnauthorized     = "unauthorized"
	CodeInternal         = "internal_error"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrTicketNotFound, CodeNotFound},
	{ErrUserNotFound, CodeNotFound},
	{ErrGiftNotFound, CodeNotFound},
	{ErrTicketAlreadyConsumed, CodeAlreadyConsumed},
	{ErrTicketExpired, CodeAlreadyExpired},
	{ErrNotTicketOwner, CodeNotOwner},
	{ErrTicketNotScheduled, CodeNotScheduled},
	{ErrInvalidScheduleDate, CodeInvalidDate},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrNothingToExport, CodeNothingToExport},
	{ErrExportInProgress, CodeExportInProgress},
	{ErrUnauthorized, CodeUnauthorized},
}

// Code 回傳錯誤對應的 wire code，未知錯誤一律視為 internal_error
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// FromCode 將 wire code 轉回 sentinel error，未知的 code 回傳 nil
func FromCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
