// Package metrics объявляет метрики Prometheus песочницы.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsCreated считает созданные транзакции по сети.
	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger_sandbox",
		Name:      "transactions_created_total",
		Help:      "Number of simulated transactions accepted.",
	}, []string{"network"})

	// TransactionsRejected считает отклонённые запросы на создание транзакции по причине.
	TransactionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger_sandbox",
		Name:      "transactions_rejected_total",
		Help:      "Number of transaction requests rejected before persistence.",
	}, []string{"reason"})

	// TransactionsCompleted считает транзакции, переведённые в completed.
	TransactionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger_sandbox",
		Name:      "transactions_completed_total",
		Help:      "Number of pending transactions flipped to completed by the sweeper.",
	})

	// BalanceResets считает полные сбросы балансов.
	BalanceResets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger_sandbox",
		Name:      "balance_resets_total",
		Help:      "Number of full wallet balance resets.",
	})
)
