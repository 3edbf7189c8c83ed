// Package archive persists completed research results in Redis so clients
// can re-fetch an answer by session id after the stream has ended.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/astroamber/amber/internal/research"
)

const keyPrefix = "research:"

// ErrNotFound is returned when no result is archived under a session id.
var ErrNotFound = errors.New("research result not found")

// Store is a Redis-backed archive of final answers.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, host, port, password string, db int, timeout, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        host + ":" + port,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{client: client, ttl: ttl}, nil
}

// Save archives a final answer under its session id.
func (s *Store) Save(ctx context.Context, answer research.FinalAnswer) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+answer.SessionID, data, s.ttl).Err()
}

// Get loads the archived answer for a session id.
func (s *Store) Get(ctx context.Context, sessionID string) (research.FinalAnswer, error) {
	var answer research.FinalAnswer
	val, err := s.client.Get(ctx, keyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return answer, ErrNotFound
	}
	if err != nil {
		return answer, err
	}
	if err := json.Unmarshal([]byte(val), &answer); err != nil {
		return answer, err
	}
	return answer, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
