package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// narrationKey is the Redis list holding pending narration jobs.
const narrationKey = "queue:narrations"

// Job is one queued narration request. The worker loads the narration and
// its story by ID; the job itself carries no text.
type Job struct {
	ID          uuid.UUID `json:"id"`
	NarrationID uuid.UUID `json:"narration_id"`
	StoryID     uuid.UUID `json:"story_id"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Queue is the narration job queue, backed by a single Redis list.
type Queue struct {
	client *redis.Client
}

func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// EnqueueNarration queues an async narration of a stored story.
func (q *Queue) EnqueueNarration(ctx context.Context, narrationID, storyID uuid.UUID) error {
	job := Job{
		ID:          uuid.New(),
		NarrationID: narrationID,
		StoryID:     storyID,
		EnqueuedAt:  time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(ctx, narrationKey, data).Err()
}

// DequeueNarration blocks up to timeout for the next narration job and
// returns (nil, nil) when none arrives.
func (q *Queue) DequeueNarration(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, narrationKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue: %w", err)
	}

	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// PendingNarrations reports how many jobs are waiting.
func (q *Queue) PendingNarrations(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, narrationKey).Result()
}
