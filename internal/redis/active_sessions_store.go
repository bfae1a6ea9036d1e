package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ActiveSession mirrors an open usage record for quick dashboard reads.
// The database stays authoritative; the cache is best effort.
type ActiveSession struct {
	RecordID  int64     `json:"record_id"`
	MemberID  int64     `json:"member_id"`
	MachineID int64     `json:"machine_id"`
	StartTime time.Time `json:"start_time"`
}

// Store manages the active session cache keyed by machine.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(machineID int64) string {
	return fmt.Sprintf("sessions:active:machine:%d", machineID)
}

// Save caches the session.
func (s *Store) Save(ctx context.Context, session ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.MachineID), data, s.ttl).Err()
}

// Get returns the cached session for a machine, (nil, nil) on cache miss.
func (s *Store) Get(ctx context.Context, machineID int64) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(machineID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes the cached session.
func (s *Store) Delete(ctx context.Context, machineID int64) error {
	err := s.client.Del(ctx, s.key(machineID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
