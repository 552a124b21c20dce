package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ticketforge/ticketforge/internal/database"
	"github.com/ticketforge/ticketforge/internal/entity"
)

const (
	eventsKey      = "catalog:events"
	scanHistoryKey = "scan_history:"
	scanHistoryCap = 50
)

type CacheRepository struct {
	client *redis.Client
}

func NewCacheRepository(client *redis.Client) database.CacheRepository {
	return &CacheRepository{client: client}
}

func (r *CacheRepository) SetEvents(ctx context.Context, events []*entity.EventWithInventory, ttl time.Duration) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, eventsKey, data, ttl).Err()
}

func (r *CacheRepository) GetEvents(ctx context.Context) ([]*entity.EventWithInventory, error) {
	data, err := r.client.Get(ctx, eventsKey).Result()
	if err != nil {
		return nil, err
	}

	var events []*entity.EventWithInventory
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *CacheRepository) InvalidateEvents(ctx context.Context) error {
	return r.client.Del(ctx, eventsKey).Err()
}

func (r *CacheRepository) PushScan(ctx context.Context, operatorID string, rec *entity.ScanRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	key := scanHistoryKey + operatorID
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, scanHistoryCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *CacheRepository) RecentScans(ctx context.Context, operatorID string, limit int) ([]*entity.ScanRecord, error) {
	if limit <= 0 || limit > scanHistoryCap {
		limit = scanHistoryCap
	}

	items, err := r.client.LRange(ctx, scanHistoryKey+operatorID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*entity.ScanRecord, 0, len(items))
	for _, item := range items {
		var rec entity.ScanRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	return records, nil
}
