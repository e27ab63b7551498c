// janitor периодически удаляет просроченные refresh-сессии
// и записи чёрного списка access-токенов.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/pribylovaa/go-shop-auth/internal/pkg/log"
)

// Sweeper — операции очистки, которые выполняет janitor.
type Sweeper interface {
	SweepExpiredRefreshTokens(ctx context.Context) (int64, error)
	SweepExpiredBlacklist(ctx context.Context) (int64, error)
}

// Janitor запускает Sweeper по таймеру.
type Janitor struct {
	sweeper  Sweeper
	interval time.Duration
}

// New создаёт Janitor. interval <= 0 отключает очистку.
func New(sweeper Sweeper, interval time.Duration) *Janitor {
	return &Janitor{sweeper: sweeper, interval: interval}
}

// Run блокируется до отмены ctx. Ошибки очистки логируются и не прерывают цикл.
func (j *Janitor) Run(ctx context.Context) {
	const op = "janitor.Run"

	lg := log.From(ctx)

	if j.interval <= 0 {
		lg.Info("janitor_disabled", slog.String("op", op))
		return
	}

	lg.Info("janitor_start",
		slog.String("op", op),
		slog.Duration("interval", j.interval),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("janitor_stop", slog.String("op", op))
			return
		case <-ticker.C:
			j.sweepOnce(ctx)
		}
	}
}

// sweepOnce — один проход очистки.
func (j *Janitor) sweepOnce(ctx context.Context) {
	const op = "janitor.sweepOnce"

	lg := log.From(ctx)

	refresh, err := j.sweeper.SweepExpiredRefreshTokens(ctx)
	if err != nil {
		lg.Error("refresh_sweep_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	blacklist, err := j.sweeper.SweepExpiredBlacklist(ctx)
	if err != nil {
		lg.Error("blacklist_sweep_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	lg.Debug("sweep_done",
		slog.String("op", op),
		slog.Int64("refresh_tokens", refresh),
		slog.Int64("blacklist", blacklist),
	)
}
