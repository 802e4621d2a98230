package queue

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/lshigami/Markhor/config"
	"github.com/lshigami/Markhor/internal/service"
	"github.com/lshigami/Markhor/internal/worker"
	"github.com/rs/zerolog/log"
)

// Consumer drains the submission queue and dispatches each id to the
// worker pool. BRPop blocks with a short timeout so context cancellation
// is observed promptly.
type Consumer struct {
	client   *redis.Client
	key      string
	pool     *worker.Pool
	pipeline service.SubmissionPipelineService
}

func NewConsumer(client *redis.Client, cfg *config.Config, pool *worker.Pool, pipeline service.SubmissionPipelineService) *Consumer {
	return &Consumer{
		client:   client,
		key:      cfg.Redis.SubmissionQueue,
		pool:     pool,
		pipeline: pipeline,
	}
}

// Run loops until the context is cancelled. A malformed payload is
// dropped with a log line; everything else is handed to the pool.
func (c *Consumer) Run(ctx context.Context) {
	log.Info().Str("queue", c.key).Msg("Submission queue consumer started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Submission queue consumer stopped")
			return
		default:
		}

		result, err := c.client.BRPop(ctx, 2*time.Second, c.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error().Err(err).Msg("Failed to pop from submission queue")
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value].
		if len(result) != 2 {
			continue
		}

		id, err := strconv.ParseUint(result[1], 10, 64)
		if err != nil {
			log.Error().Str("payload", result[1]).Msg("Dropping malformed queue payload")
			continue
		}

		submissionID := uint(id)
		if err := c.pool.Submit(ctx, func(taskCtx context.Context) error {
			return c.pipeline.Process(taskCtx, submissionID)
		}); err != nil {
			log.Error().Err(err).Uint("submissionID", submissionID).
				Msg("Failed to submit processing task")
		}
	}
}
