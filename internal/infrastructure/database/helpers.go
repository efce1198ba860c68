package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PoolStats là snapshot của pgxpool, dùng cho /health và monitor
type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
	AcquireCount  int64 `json:"acquire_count"`
	EmptyAcquires int64 `json:"empty_acquire_count"`
}

func (db *PostgresDB) Stats() *PoolStats {
	if db.Pool == nil {
		return &PoolStats{}
	}
	s := db.Pool.Stat()
	return &PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
		AcquireCount:  s.AcquireCount(),
		EmptyAcquires: s.EmptyAcquireCount(),
	}
}

// MonitorPoolHealth log pool stats định kỳ cho tới khi ctx bị cancel.
// Cảnh báo khi pool gần cạn (>= 80% acquired).
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			if stats.MaxConns > 0 && stats.AcquiredConns*5 >= stats.MaxConns*4 {
				log.Warn().
					Int32("acquired", stats.AcquiredConns).
					Int32("max", stats.MaxConns).
					Msg("[DATABASE] Pool near exhaustion")
				continue
			}
			log.Debug().
				Int32("total", stats.TotalConns).
				Int32("idle", stats.IdleConns).
				Msg("[DATABASE] Pool stats")
		}
	}
}
