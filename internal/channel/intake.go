package channel

import (
	"context"
	"fmt"
	"time"

	"converso-platform/internal/conversation"

	"github.com/redis/go-redis/v9"
)

// intakeSlotTTL bounds how long a webhook turn can hold an intake slot
// before the counter self-heals after a crash.
const intakeSlotTTL = time.Minute

var intakeAcquireScript = redis.NewScript(`
-- KEYS[1] = per-workspace intake counter
-- ARGV[1] = limit (int)
-- ARGV[2] = ttl_ms (int)
--
-- Returns:
--  1 if a slot was acquired
--  0 if rejected (workspace at its limit)
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  -- Ensure TTL exists even if the counter already existed without one
  if redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[2])
  end
end

if current > tonumber(ARGV[1]) then
  redis.call('DECR', KEYS[1])
  return 0
end
return 1
`)

var intakeReleaseScript = redis.NewScript(`
-- KEYS[1] = per-workspace intake counter
-- Decrement, and delete once it drains
local current = redis.call('DECR', KEYS[1])
if current <= 0 then
  redis.call('DEL', KEYS[1])
end
return 1
`)

func intakeKey(channel conversation.ChannelType, workspaceID string) string {
	return "intake:" + string(channel) + ":" + workspaceID
}

// acquireIntakeSlot reserves one concurrent webhook turn for the
// workspace on the given channel. Acquisition is atomic (Lua), and the
// counter carries a TTL so crashed turns never pin a workspace at its
// limit forever.
func acquireIntakeSlot(ctx context.Context, rdb *redis.Client, channel conversation.ChannelType, workspaceID string, limit int) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if workspaceID == "" {
		return false, fmt.Errorf("workspace id is required")
	}
	if limit <= 0 {
		return false, fmt.Errorf("limit must be > 0")
	}

	res, err := intakeAcquireScript.Run(ctx, rdb, []string{intakeKey(channel, workspaceID)}, limit, intakeSlotTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// releaseIntakeSlot returns a previously acquired slot.
func releaseIntakeSlot(ctx context.Context, rdb *redis.Client, channel conversation.ChannelType, workspaceID string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if workspaceID == "" {
		return fmt.Errorf("workspace id is required")
	}
	_, err := intakeReleaseScript.Run(ctx, rdb, []string{intakeKey(channel, workspaceID)}).Result()
	return err
}
