// Package scheduler периодически завершает транзакции, срок которых наступил.
// Срок хранится в базе, поэтому после перезапуска первый же проход
// подхватывает всё, что не успело завершиться.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ledgersandbox/ledger-sandbox/internal/lib/sl"
)

// Completer завершает просроченные pending-транзакции.
type Completer interface {
	CompleteDue(ctx context.Context) (int, error)
}

// Sweeper вызывает Completer с фиксированным интервалом.
type Sweeper struct {
	completer Completer
	interval  time.Duration
	log       *slog.Logger
}

// NewSweeper создает новый экземпляр Sweeper.
func NewSweeper(completer Completer, interval time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		completer: completer,
		interval:  interval,
		log:       log,
	}
}

// Run делает проход сразу, затем по таймеру, пока ctx не отменён.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("starting transaction sweeper", slog.Duration("interval", s.interval))
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("transaction sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	n, err := s.completer.CompleteDue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("failed to complete due transactions", sl.Err(err))
		}
		return
	}
	if n > 0 {
		s.log.Info("completed due transactions", "count", n)
	}
}
