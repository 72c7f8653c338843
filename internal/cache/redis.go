// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaspell/wordwire/internal/models"
)

// Rdb is the global Redis client. Connect it once at application startup;
// while nil, move publishing is a no-op.
var Rdb *redis.Client

// DefaultQueueName is the Redis list that accepted moves are pushed onto.
var DefaultQueueName = "wordwire_moves"

// MoveRecord is one accepted move, as consumed by an external history
// service.
type MoveRecord struct {
	LobbyID   string          `json:"lobby_id"`
	Seq       uint64          `json:"seq"`
	PID       models.PlayerID `json:"pid"`
	Tile      int             `json:"tile"`
	Result    string          `json:"result"`
	Timestamp int64           `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client from environment
// variables (REDIS_ADDR, optional REDIS_DB). An unset REDIS_ADDR leaves the
// client nil and move history disabled.
func ConnectRedis() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishMove serializes the record and pushes it onto the move queue.
// A nil client is a silent no-op.
func PublishMove(ctx context.Context, record MoveRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MoveRecord: %w", err)
	}

	queueName := os.Getenv("MOVE_QUEUE_NAME")
	if queueName == "" {
		queueName = DefaultQueueName
	}
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", queueName, err)
	}
	return nil
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
