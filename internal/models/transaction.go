package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы транзакции. StatusFailed зарезервирован: ни одно правило его не выставляет.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusConfirmed = "confirmed"
)

// Transaction — смоделированный перевод внутри песочницы. Он не отправляется ни в
// одну реальную сеть, txHash генерируется случайно.
type Transaction struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	WalletID      *string             `json:"walletId,omitempty"`
	FromAddress   *string             `json:"fromAddress,omitempty"`
	ToAddress     string              `json:"toAddress"`
	Amount        decimal.Decimal     `json:"amount"`
	Token         string              `json:"token"`
	Network       string              `json:"network"`
	GasSpeed      *string             `json:"gasSpeed,omitempty"`
	GasFee        decimal.NullDecimal `json:"gasFee"`
	GasFeePaid    bool                `json:"gasFeePaid"`
	FlashFee      decimal.NullDecimal `json:"flashFee"`
	FlashAddress  string              `json:"flashAddress"`
	Status        string              `json:"status"`
	TxHash        string              `json:"txHash"`
	BlockNumber   *int64              `json:"blockNumber,omitempty"`
	Confirmations int                 `json:"confirmations"`
	ErrorMessage  *string             `json:"errorMessage,omitempty"`
	CompleteAt    time.Time           `json:"-"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// IsFinal сообщает, что транзакция больше не меняет состояние.
func (t *Transaction) IsFinal() bool {
	return t.Status != StatusPending
}

// NewTransaction — запрос на создание транзакции.
type NewTransaction struct {
	FromAddress  string `json:"fromAddress,omitempty" validate:"max=128"`
	ToAddress    string `json:"toAddress" validate:"required,max=128"`
	Amount       string `json:"amount" validate:"required,numeric"`
	Token        string `json:"token" validate:"required,max=20"`
	Network      string `json:"network" validate:"required,oneof=BTC ETH BSC TRX"`
	GasSpeed     string `json:"gasSpeed,omitempty" validate:"omitempty,oneof=slow standard fast"`
	GasFee       string `json:"gasFee,omitempty" validate:"omitempty,numeric"`
	GasFeePaid   bool   `json:"gasFeePaid"`
	FlashFee     string `json:"flashFee,omitempty" validate:"omitempty,numeric"`
	FlashAddress string `json:"flashAddress,omitempty" validate:"max=128"`
}

// TransactionPatch — частичное обновление транзакции.
type TransactionPatch struct {
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending completed failed confirmed"`
	GasFeePaid    *bool   `json:"gasFeePaid,omitempty"`
	BlockNumber   *int64  `json:"blockNumber,omitempty"`
	Confirmations *int    `json:"confirmations,omitempty"`
	ErrorMessage  *string `json:"errorMessage,omitempty"`
}
