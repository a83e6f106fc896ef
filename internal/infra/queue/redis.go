package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// RedisQueue implements Queue on Redis: a SETNX dedup key with the window as
// TTL, a sorted set scored by run time, and a per-job payload key.
type RedisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(cfg Config) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

// Ping checks the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// Key helpers
func scheduleKey() string {
	return "healthwatch:jobs"
}

func jobKey(id string) string {
	return fmt.Sprintf("healthwatch:job:%s", id)
}

func dedupKey(key string) string {
	return fmt.Sprintf("healthwatch:dedup:%s", key)
}

// Enqueue reserves the dedup key, stores the payload, and schedules the job.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job, dedupWindow time.Duration) error {
	ok, err := q.rdb.SetNX(ctx, dedupKey(job.DedupKey), job.ID, dedupWindow).Result()
	if err != nil {
		return fmt.Errorf("setnx failed: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}

	data, err := json.Marshal(job)
	if err != nil {
		q.unreserve(ctx, job.DedupKey)
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	// Payload outlives the schedule entry slightly so a slow pop never races
	// its expiry.
	if err := q.rdb.Set(ctx, jobKey(job.ID), data, 24*time.Hour).Err(); err != nil {
		q.unreserve(ctx, job.DedupKey)
		return fmt.Errorf("failed to set job payload: %w", err)
	}

	if err := q.rdb.ZAdd(ctx, scheduleKey(), redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: job.ID,
	}).Err(); err != nil {
		q.rdb.Del(ctx, jobKey(job.ID))
		q.unreserve(ctx, job.DedupKey)
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	return nil
}

// unreserve gives back a dedup reservation when the enqueue it guarded did
// not complete. Leaving the key behind would starve the integration's checks
// for the whole dedup window with no job scheduled.
func (q *RedisQueue) unreserve(ctx context.Context, key string) {
	q.rdb.Del(ctx, dedupKey(key))
}

// PopDue atomically removes the earliest due job, if any.
func (q *RedisQueue) PopDue(ctx context.Context, now time.Time) (*Job, error) {
	ids, err := q.rdb.ZRangeByScore(ctx, scheduleKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.UnixMilli()),
		Count: 1,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	id := ids[0]
	removed, err := q.rdb.ZRem(ctx, scheduleKey(), id).Result()
	if err != nil {
		return nil, fmt.Errorf("zrem failed: %w", err)
	}
	if removed == 0 {
		// Another worker claimed it first.
		return nil, nil
	}

	data, err := q.rdb.Get(ctx, jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job payload failed: %w", err)
	}
	q.rdb.Del(ctx, jobKey(id))

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Release drops the dedup reservation once a job has finished.
func (q *RedisQueue) Release(ctx context.Context, key string) error {
	return q.rdb.Del(ctx, dedupKey(key)).Err()
}

// Depth returns the number of scheduled jobs.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, scheduleKey()).Result()
}
