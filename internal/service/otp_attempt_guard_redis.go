package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

var otpAttemptBumpScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local base_ms = tonumber(ARGV[2])
local multiplier = tonumber(ARGV[3])
local max_ms = tonumber(ARGV[4])
local reset_ms = tonumber(ARGV[5])
local free_attempts = tonumber(ARGV[6])

local key = KEYS[1]
local fail_count = tonumber(redis.call("HGET", key, "fail_count") or "0")
local last_failure_ms = tonumber(redis.call("HGET", key, "last_failure_ms") or "0")

if last_failure_ms == 0 or (now_ms - last_failure_ms) > reset_ms then
  fail_count = 0
end

fail_count = fail_count + 1
local delay = 0
if fail_count > free_attempts then
  delay = math.floor(base_ms * (multiplier ^ (fail_count - free_attempts - 1)))
end
if delay > max_ms then
  delay = max_ms
end

local cooldown_until_ms = now_ms + delay
redis.call("HSET", key, "fail_count", tostring(fail_count), "last_failure_ms", tostring(now_ms), "cooldown_until_ms", tostring(cooldown_until_ms))
redis.call("PEXPIRE", key, reset_ms + delay + 60000)
return delay
`)

// RedisOTPAttemptGuard shares attempt state across instances. The bump runs
// as a Lua script so read-compute-write is atomic per key.
type RedisOTPAttemptGuard struct {
	client redis.UniversalClient
	prefix string
	policy OTPAttemptPolicy
}

func NewRedisOTPAttemptGuard(client redis.UniversalClient, prefix string, policy OTPAttemptPolicy) *RedisOTPAttemptGuard {
	if prefix == "" {
		prefix = "otp_attempts"
	}
	return &RedisOTPAttemptGuard{
		client: client,
		prefix: prefix,
		policy: normalizeOTPAttemptPolicy(policy),
	}
}

func (g *RedisOTPAttemptGuard) Check(ctx context.Context, destination string) (time.Duration, error) {
	values, err := g.client.HMGet(ctx, g.key(destination), "last_failure_ms", "cooldown_until_ms").Result()
	if err != nil {
		return 0, err
	}
	if len(values) != 2 || values[0] == nil || values[1] == nil {
		return 0, nil
	}
	lastFailureMS, err := redisInt64(values[0])
	if err != nil {
		return 0, err
	}
	cooldownUntilMS, err := redisInt64(values[1])
	if err != nil {
		return 0, err
	}
	nowMS := time.Now().UTC().UnixMilli()
	if nowMS-lastFailureMS > g.policy.ResetWindow.Milliseconds() {
		return 0, nil
	}
	if cooldownUntilMS <= nowMS {
		return 0, nil
	}
	return time.Duration(cooldownUntilMS-nowMS) * time.Millisecond, nil
}

func (g *RedisOTPAttemptGuard) RegisterFailure(ctx context.Context, destination string) (time.Duration, error) {
	result, err := otpAttemptBumpScript.Run(
		ctx,
		g.client,
		[]string{g.key(destination)},
		time.Now().UTC().UnixMilli(),
		g.policy.BaseDelay.Milliseconds(),
		g.policy.Multiplier,
		g.policy.MaxDelay.Milliseconds(),
		g.policy.ResetWindow.Milliseconds(),
		g.policy.FreeAttempts,
	).Result()
	if err != nil {
		return 0, err
	}
	delayMS, err := redisInt64(result)
	if err != nil {
		return 0, err
	}
	if delayMS < 0 {
		delayMS = 0
	}
	return time.Duration(delayMS) * time.Millisecond, nil
}

func (g *RedisOTPAttemptGuard) Reset(ctx context.Context, destination string) error {
	return g.client.Del(ctx, g.key(destination)).Err()
}

func (g *RedisOTPAttemptGuard) key(destination string) string {
	return fmt.Sprintf("%s:%s", g.prefix, otpAttemptKey(destination))
}

func redisInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis response overflows int64")
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case string:
		var parsed int64
		if _, err := fmt.Sscan(n, &parsed); err != nil {
			return 0, fmt.Errorf("parse redis response %q: %w", n, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
