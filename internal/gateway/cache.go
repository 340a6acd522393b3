package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/seating-plan/internal/model"
)

// ReservedCache decorates a Gateway with a Redis cache of reserved seat ids
// per venue, date and time.  Layout calls pass straight through.  Redis
// failures are logged and never fail the call.
type ReservedCache struct {
	Gateway
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// NewReservedCache wraps next.  A nil rdb disables caching and returns next.
func NewReservedCache(next Gateway, rdb *redis.Client, ttl time.Duration, prefix string, log *zap.Logger) Gateway {
	if rdb == nil {
		return next
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if prefix == "" {
		prefix = "seating"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservedCache{Gateway: next, rdb: rdb, ttl: ttl, prefix: prefix, log: log}
}

func (c *ReservedCache) key(venueID, date, time string) string {
	return fmt.Sprintf("%s:reserved:%s:%s:%s", c.prefix, venueID, date, time)
}

func (c *ReservedCache) FetchReservedSeatIDs(ctx context.Context, venueID, date, time string) ([]string, error) {
	key := c.key(venueID, date, time)

	bs, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ids []string
		if jerr := json.Unmarshal(bs, &ids); jerr == nil {
			return ids, nil
		}
		c.log.Warn("reserved cache: corrupt entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("reserved cache: get failed", zap.String("key", key), zap.Error(err))
	}

	ids, err := c.Gateway.FetchReservedSeatIDs(ctx, venueID, date, time)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	if payload, jerr := json.Marshal(ids); jerr == nil {
		if serr := c.rdb.SetEx(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warn("reserved cache: set failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return ids, nil
}

// CreateReservation writes through and drops the cached entry, also when the
// write is rejected because seats were taken in the meantime.
func (c *ReservedCache) CreateReservation(ctx context.Context, r model.Reservation) error {
	err := c.Gateway.CreateReservation(ctx, r)
	if err == nil || errors.Is(err, model.ErrSeatsTaken) {
		key := c.key(r.VenueID, r.Date, r.Time)
		if derr := c.rdb.Del(context.WithoutCancel(ctx), key).Err(); derr != nil {
			c.log.Warn("reserved cache: invalidate failed", zap.String("key", key), zap.Error(derr))
		}
	}
	return err
}
