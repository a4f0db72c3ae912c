package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы подписки пользователя.
const (
	SubscriptionPending  = "pending"
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionRejected = "rejected"
)

// Plan — тарифный план из статического каталога.
type Plan struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Duration time.Duration   `json:"-"`
	Features []string        `json:"features"`
}

// Subscription — подписка пользователя на план.
type Subscription struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	PlanID        string     `json:"planId"`
	Status        string     `json:"status"`
	PaymentTxHash string     `json:"paymentTxHash"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// NewSubscription — запрос на оформление подписки.
type NewSubscription struct {
	UserID        string `json:"userId" validate:"required,uuid"`
	PlanID        string `json:"planId" validate:"required"`
	PaymentTxHash string `json:"paymentTxHash" validate:"required,max=128"`
}
