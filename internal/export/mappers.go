package export

import (
	"strconv"
	"time"

	"go-gin-gift-admin/internal/model"
)

// Mapper 將一筆領域資料轉成匯出列
type Mapper[T any] func(item T) FlatRecord

var ticketStateLabels = map[model.TicketState]string{
	model.TicketStateNotConsumed: "Not consumed",
	model.TicketStateScheduled:   "Scheduled",
	model.TicketStateConsumed:    "Consumed",
	model.TicketStateExpired:     "Expired",
}

// TicketHistoryMapper 狀態欄位使用 EffectiveState，過期由 now 推導
func TicketHistoryMapper(f *Formatter, now func() time.Time) Mapper[*model.Ticket] {
	return func(t *model.Ticket) FlatRecord {
		distributor := ""
		if t.Distributor != nil {
			distributor = t.DistributorName()
		}
		return FlatRecord{}.
			With("Code", t.CodeVerification).
			With("Gift", f.Text(t.Gift.Name)).
			With("Value", f.Money(t.Gift.Value, t.Gift.Currency)).
			With("Beneficiary", f.Text(t.Beneficiary.Name)).
			With("Beneficiary email", f.Text(t.Beneficiary.Email)).
			With("Distributor", distributor).
			With("Status", ticketStateLabels[t.EffectiveState(now())]).
			With("Expiration date", f.Date(t.ExpirationAt)).
			With("Consumed at", f.DatePtr(t.ConsumedAt)).
			With("Scheduled for", f.DatePtr(t.ScheduledFor))
	}
}

func WalletTransactionMapper(f *Formatter) Mapper[*model.WalletTransaction] {
	return func(t *model.WalletTransaction) FlatRecord {
		return FlatRecord{}.
			With("Reference", t.Reference).
			With("User", f.Text(t.User.Name)).
			With("Email", f.Text(t.User.Email)).
			With("Type", string(t.Type)).
			With("Status", string(t.Status)).
			With("Amount", f.Money(t.Amount, t.Currency)).
			With("Date", f.Date(t.CreatedAt))
	}
}

func GiftMapper(f *Formatter) Mapper[*model.Gift] {
	return func(g *model.Gift) FlatRecord {
		status := "Inactive"
		if g.Active {
			status = "Active"
		}
		pack := ""
		if g.PackID != nil {
			pack = strconv.Itoa(*g.PackID)
		}
		return FlatRecord{}.
			With("Name", f.Text(g.Name)).
			With("Description", f.TextPtr(g.Description)).
			With("Value", f.Money(g.Value, g.Currency)).
			With("Status", status).
			With("Pack", pack).
			With("Image", f.TextPtr(g.Image))
	}
}
