package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper периодически вычищает истёкшие сессии из хранилища.
// Уборка необязательна для корректности (истечение ленивое),
// но возвращает память брошенных сессий.
type Sweeper struct {
	cron   *cron.Cron
	store  Store
	logger *slog.Logger
}

// NewSweeper создаёт уборщик с cron-расписанием, например "@every 1m".
func NewSweeper(store Store, schedule string, logger *slog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("add sweep job %q: %w", schedule, err)
	}
	return s, nil
}

// Start запускает расписание уборки.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop останавливает расписание и дожидается завершения текущей уборки.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	deleted, err := s.store.ClearExpired(context.Background(), time.Now())
	if err != nil {
		s.logger.Error("session sweep failed", slog.String("error", err.Error()))
		return
	}
	if deleted > 0 {
		s.logger.Info("expired sessions removed", slog.Int("count", deleted))
	}
}
