package cache

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

type redisAdapter struct {
	client *redis.Client
	key    string
}

var _ Adapter = (*redisAdapter)(nil)

// NewRedisAdapter returns an Adapter that stores the snapshot as a
// msgpack-encoded blob at a single namespaced key. The caller owns the
// redis.Client lifecycle — Close is a no-op on the client.
func NewRedisAdapter(client *redis.Client, key string) Adapter {
	return &redisAdapter{client: client, key: key}
}

func (a *redisAdapter) Load(ctx context.Context) ([]Record, error) {
	buf, err := a.client.Get(ctx, a.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache: read snapshot key")
	}
	var records []Record
	if err := msgpack.Unmarshal(buf, &records); err != nil {
		return nil, errors.Wrap(err, "cache: decode snapshot key")
	}
	return records, nil
}

func (a *redisAdapter) Save(ctx context.Context, records []Record) error {
	buf, err := msgpack.Marshal(records)
	if err != nil {
		return errors.Wrap(err, "cache: encode snapshot")
	}
	if err := a.client.Set(ctx, a.key, buf, 0).Err(); err != nil {
		return errors.Wrap(err, "cache: write snapshot key")
	}
	return nil
}

// Close is a no-op — the caller owns the redis.Client lifecycle.
func (a *redisAdapter) Close() error {
	return nil
}
