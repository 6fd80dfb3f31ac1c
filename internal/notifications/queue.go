package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Entry is one confirmed delivery waiting to be mailed to its recipient.
type Entry struct {
	DeliveryID  int       `json:"delivery_id"`
	StaffName   string    `json:"staff_name"`
	PartNumber  string    `json:"part_number"`
	PartName    string    `json:"part_name"`
	Quantity    int       `json:"quantity"`
	UnitCost    string    `json:"unit_cost"`
	Building    string    `json:"building,omitempty"`
	CostCenter  string    `json:"cost_center,omitempty"`
	Signed      bool      `json:"signed,omitempty"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Queue holds pending entries grouped by recipient address.
type Queue interface {
	Push(ctx context.Context, recipient string, entries ...Entry) error
	Recipients(ctx context.Context) ([]string, error)
	// Drain removes and returns every entry queued for recipient.
	Drain(ctx context.Context, recipient string) ([]Entry, error)
	Clear(ctx context.Context) error
}

type MemoryQueue struct {
	mu      sync.Mutex
	pending map[string][]Entry
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{pending: map[string][]Entry{}}
}

func (q *MemoryQueue) Push(ctx context.Context, recipient string, entries ...Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[recipient] = append(q.pending[recipient], entries...)
	return nil
}

func (q *MemoryQueue) Recipients(ctx context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	recipients := make([]string, 0, len(q.pending))
	for r := range q.pending {
		recipients = append(recipients, r)
	}
	sort.Strings(recipients)
	return recipients, nil
}

func (q *MemoryQueue) Drain(ctx context.Context, recipient string) ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := q.pending[recipient]
	delete(q.pending, recipient)
	return entries, nil
}

func (q *MemoryQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = map[string][]Entry{}
	return nil
}

const (
	recipientsKey = "partsroom:notify:recipients"
	entriesPrefix = "partsroom:notify:entries:"
)

// RedisQueue keeps pending entries in redis so they survive a restart and
// can be shared by several server processes.
type RedisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, recipient string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode notification entry: %w", err)
		}
		values = append(values, raw)
	}

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, entriesPrefix+recipient, values...)
		pipe.SAdd(ctx, recipientsKey, recipient)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to queue notification for %s: %w", recipient, err)
	}
	return nil
}

func (q *RedisQueue) Recipients(ctx context.Context) ([]string, error) {
	recipients, err := q.client.SMembers(ctx, recipientsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notification recipients: %w", err)
	}
	sort.Strings(recipients)
	return recipients, nil
}

func (q *RedisQueue) Drain(ctx context.Context, recipient string) ([]Entry, error) {
	key := entriesPrefix + recipient
	var lrange *redis.StringSliceCmd
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		pipe.SRem(ctx, recipientsKey, recipient)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain notifications for %s: %w", recipient, err)
	}

	raw := lrange.Val()
	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return entries, fmt.Errorf("failed to decode notification entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (q *RedisQueue) Clear(ctx context.Context) error {
	recipients, err := q.client.SMembers(ctx, recipientsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list notification recipients: %w", err)
	}
	keys := []string{recipientsKey}
	for _, r := range recipients {
		keys = append(keys, entriesPrefix+r)
	}
	if err := q.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

// NewRedisClient connects and pings, failing fast when redis is unreachable.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
