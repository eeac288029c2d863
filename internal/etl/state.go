package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "etl_state_"

// State persists per-index sync checkpoints in Redis so a restarted
// pipeline resumes where the previous run stopped.
type State struct {
	client *redis.Client
}

// NewState connects to the given Redis instance.
func NewState(addr, password string, db int) *State {
	return &State{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Checkpoint returns the watermark stored for the index. A missing key
// means the index has never been synced and yields the zero time.
func (s *State) Checkpoint(ctx context.Context, index string) (time.Time, error) {
	raw, err := s.client.Get(ctx, stateKeyPrefix+index).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("etl: read checkpoint for %s: %w", index, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("etl: parse checkpoint for %s: %w", index, err)
	}
	return ts, nil
}

// SetCheckpoint stores the watermark for the index.
func (s *State) SetCheckpoint(ctx context.Context, index string, ts time.Time) error {
	if err := s.client.Set(ctx, stateKeyPrefix+index, ts.Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("etl: store checkpoint for %s: %w", index, err)
	}
	return nil
}

func (s *State) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *State) Close() error {
	return s.client.Close()
}
