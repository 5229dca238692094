package batch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

func runHeartbeat(ctx context.Context, interval time.Duration, total int, done, failed *atomic.Int64, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("heartbeat", "done", done.Load(), "total", total, "failed", failed.Load())
		}
	}
}
