package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"cuentacorriente/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	statsCacheKey   = "cuentas:estadisticas"
	statsVersionKey = "cuentas:estadisticas:version"
)

// statsEntry is the cached aggregate tagged with the version it was computed
// under. Every committed movement or status change bumps the version, so an
// entry written by a read that overlapped a commit is never served.
type statsEntry struct {
	Version int64                     `json:"version"`
	Stats   *dto.EstadisticasResponse `json:"stats"`
}

// statsCache keeps the dashboard aggregate in Redis. A nil cache (or nil
// client) is a no-op.
type statsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func newStatsCache(rdb *redis.Client, ttl time.Duration) *statsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &statsCache{rdb: rdb, ttl: ttl}
}

// get returns the cached aggregate when it matches the current version. The
// version is returned on a miss so the caller can tag what it computes; -1
// means Redis could not be read and nothing should be stored.
func (c *statsCache) get(ctx context.Context) (*dto.EstadisticasResponse, int64, bool) {
	if c == nil || c.rdb == nil {
		return nil, -1, false
	}
	vals, err := c.rdb.MGet(ctx, statsVersionKey, statsCacheKey).Result()
	if err != nil {
		log.Warn().Err(err).Msg("stats_cache: get failed")
		return nil, -1, false
	}

	var version int64
	if s, ok := vals[0].(string); ok {
		if version, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, -1, false
		}
	}
	raw, ok := vals[1].(string)
	if !ok {
		return nil, version, false
	}
	var entry statsEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.Stats == nil || entry.Version != version {
		return nil, version, false
	}
	return entry.Stats, version, true
}

func (c *statsCache) set(ctx context.Context, version int64, resp *dto.EstadisticasResponse) {
	if c == nil || c.rdb == nil || version < 0 {
		return
	}
	data, err := json.Marshal(statsEntry{Version: version, Stats: resp})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, statsCacheKey, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("stats_cache: set failed")
	}
}

func (c *statsCache) invalidar(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, statsVersionKey).Err(); err != nil {
		log.Warn().Err(err).Msg("stats_cache: invalidate failed")
	}
}
