package model

import "time"

type TransactionProvider string

const (
	ProviderWallet   TransactionProvider = "wallet"
	ProviderSerdipay TransactionProvider = "serdipay"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// TransactionStatus 交易狀態類型
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsValid 驗證狀態是否有效
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// WalletTransaction 錢包交易紀錄
type WalletTransaction struct {
	ID        int                 `json:"id" db:"id"`
	Reference string              `json:"reference" db:"reference"`
	Provider  TransactionProvider `json:"provider" db:"provider"`
	Type      TransactionType     `json:"type" db:"type"`
	Status    TransactionStatus   `json:"status" db:"status"`
	Amount    float64             `json:"amount" db:"amount"`
	Currency  string              `json:"currency" db:"currency"`
	User      User                `json:"user" db:"-"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
}
