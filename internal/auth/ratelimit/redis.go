package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/majesticmotors/dealerauth/pkg/idx"
)

// RedisStore keeps one sorted set per key, scored by attempt time in
// milliseconds. Old entries are pruned on every check, so a key's memory
// footprint is bounded by the limit plus whatever arrived inside the window.
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client, Prefix: "dealerauth:rl:"}
}

// Prune, count and record run as one script so two callers arriving at
// count == limit-1 cannot both slip under the limit.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
if redis.call('ZCARD', key) >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, oldest[2]}
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return {1, now}
`)

func (s *RedisStore) SlidingWindowCheck(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := time.Now()
	k := s.Prefix + key

	raw, err := slidingWindowScript.Run(ctx, s.Client, []string{k},
		now.UnixMilli(), window.Milliseconds(), limit, idx.New().String()).Slice()
	if err != nil {
		return Result{}, err
	}
	if len(raw) != 2 {
		return Result{}, fmt.Errorf("sliding window script: unexpected reply %v", raw)
	}

	allowed, err := replyInt(raw[0])
	if err != nil {
		return Result{}, err
	}
	if allowed == 1 {
		return Result{Allowed: true, ResetAt: now.Add(window)}, nil
	}

	oldestMs, err := replyInt(raw[1])
	if err != nil {
		return Result{}, err
	}
	return Result{Allowed: false, ResetAt: time.UnixMilli(oldestMs).Add(window)}, nil
}

// replyInt handles the two shapes Lua numbers come back in: integer replies
// and (for WITHSCORES values) bulk strings.
func replyInt(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("sliding window script: unexpected score %q", x)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("sliding window script: unexpected reply type %T", v)
	}
}
