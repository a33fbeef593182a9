package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"pipeline_forecast_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// warmTimeout bounds a single warm run; a stale run is worthless once the next one is due.
const warmTimeout = 5 * time.Minute

type Client struct {
	client *asynq.Client
	queue  string
}

// CacheWarmer enqueues cache warm-up work.
type CacheWarmer interface {
	EnqueueCacheWarm(ctx context.Context, ops []string) error
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := clientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCacheWarm schedules an immediate warm-up. Duplicate requests within
// the unique window collapse into one task.
func (c *Client) EnqueueCacheWarm(ctx context.Context, ops []string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewCacheWarmTask(CacheWarmPayload{Ops: ops})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.Timeout(warmTimeout),
		asynq.Unique(time.Minute),
	)
	return err
}

func clientOpt(cfg config.RedisConfig) (asynq.RedisClientOpt, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}
	return redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
