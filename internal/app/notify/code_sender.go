package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResetCodeMessage is a request to deliver a reset code out of band.
type ResetCodeMessage struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CodeSender hands a freshly issued reset code to a delivery channel.
type CodeSender interface {
	SendResetCode(ctx context.Context, msg ResetCodeMessage) error
}

// LogCodeSender records that a code was issued. The code itself is never logged.
type LogCodeSender struct {
	log *zap.Logger
}

func NewLogCodeSender(log *zap.Logger) *LogCodeSender {
	return &LogCodeSender{log: log}
}

func (s *LogCodeSender) SendResetCode(_ context.Context, msg ResetCodeMessage) error {
	s.log.Info("password reset code issued",
		zap.String("user_id", msg.UserID),
		zap.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}

// RedisCodeSender pushes delivery requests onto a Redis list.
type RedisCodeSender struct {
	rdb   redis.Cmdable
	queue string
}

func NewRedisCodeSender(rdb redis.Cmdable, queue string) *RedisCodeSender {
	return &RedisCodeSender{rdb: rdb, queue: queue}
}

func (s *RedisCodeSender) SendResetCode(ctx context.Context, msg ResetCodeMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal reset code message: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue reset code on %q: %w", s.queue, err)
	}
	return nil
}
