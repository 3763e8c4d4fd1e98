package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/storebot/internal/logger"
)

const redisKeyPrefix = "storebot:session:"

// sessionDoc is the wire form of a Session. The tagged StepData variant is
// split into explicit optional fields so the payload survives a round trip
// without reflection tricks.
type sessionDoc struct {
	Step    Step          `json:"step"`
	Order   *OrderDraft   `json:"order,omitempty"`
	Deposit *DepositDraft `json:"deposit,omitempty"`
}

type redisManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisManager constructs a Redis-backed Manager. The idle timeout maps
// onto the key TTL, so expiry is enforced by Redis itself and sessions
// survive bot restarts.
func NewRedisManager(addr string, idleTimeout time.Duration) (Manager, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}

	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &redisManager{client: client, ttl: idleTimeout}, nil
}

func (m *redisManager) key(userID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

// Get returns the stored session, or an idle one when the key is missing,
// expired or unreadable. A Redis outage degrades users to the main menu
// instead of failing their update.
func (m *redisManager) Get(userID int64) Session {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	raw, err := m.client.Get(ctx, m.key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.SVCSessions.Warn("session read failed",
				slog.String("event", "sessions.get"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		return Idle()
	}

	var doc sessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.SVCSessions.Warn("session decode failed",
			slog.String("event", "sessions.get"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return Idle()
	}

	s := Session{Step: doc.Step}
	switch {
	case doc.Order != nil:
		s.Data = *doc.Order
	case doc.Deposit != nil:
		s.Data = *doc.Deposit
	}
	return s
}

func (m *redisManager) Set(userID int64, s Session) {
	doc := sessionDoc{Step: s.Step}
	switch data := s.Data.(type) {
	case OrderDraft:
		doc.Order = &data
	case DepositDraft:
		doc.Deposit = &data
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		logger.SVCSessions.Warn("session encode failed",
			slog.String("event", "sessions.set"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.client.Set(ctx, m.key(userID), raw, m.ttl).Err(); err != nil {
		logger.SVCSessions.Warn("session write failed",
			slog.String("event", "sessions.set"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *redisManager) Clear(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.client.Del(ctx, m.key(userID)).Err(); err != nil {
		logger.SVCSessions.Warn("session clear failed",
			slog.String("event", "sessions.clear"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (m *redisManager) InProgress(userID int64) bool {
	return m.Get(userID).Step != StepIdle
}

func (m *redisManager) Close() error {
	return m.client.Close()
}
