package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Поддерживаемые сети.
const (
	NetworkBTC = "BTC"
	NetworkETH = "ETH"
	NetworkBSC = "BSC"
	NetworkTRX = "TRX"
)

// Networks перечисляет сети, для которых заводятся кошельки при засеве балансов.
var Networks = []string{NetworkBTC, NetworkETH, NetworkTRX, NetworkBSC}

// Wallet — баланс пользователя в одной сети. Balance сериализуется в JSON строкой.
type Wallet struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	Network    string          `json:"network"`
	Balance    decimal.Decimal `json:"balance"`
	LastSyncAt *time.Time      `json:"lastSyncAt,omitempty"`
	IsActive   bool            `json:"isActive"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewWallet — данные для создания кошелька.
type NewWallet struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=128"`
	Network string `json:"network" validate:"required,oneof=BTC ETH BSC TRX"`
	Balance string `json:"balance,omitempty" validate:"omitempty,numeric"`
}
