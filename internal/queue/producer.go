package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/lshigami/Markhor/config"
	"github.com/rs/zerolog/log"
)

// Producer pushes submission ids onto the processing list. The payload
// is just the id; workers reload the row, so a stale payload can never
// disagree with the database.
type Producer struct {
	client *redis.Client
	key    string
}

func NewProducer(client *redis.Client, cfg *config.Config) *Producer {
	return &Producer{
		client: client,
		key:    cfg.Redis.SubmissionQueue,
	}
}

func (p *Producer) EnqueueSubmission(ctx context.Context, submissionID uint) error {
	payload := strconv.FormatUint(uint64(submissionID), 10)
	if err := p.client.LPush(ctx, p.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue submission %d: %w", submissionID, err)
	}
	log.Debug().Uint("submissionID", submissionID).Str("queue", p.key).Msg("Submission enqueued")
	return nil
}
