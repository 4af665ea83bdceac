package redisstore

import "github.com/redis/go-redis/v9"

const (
	updatedMissing  int64 = 0
	updatedOK       int64 = 1
	updatedMismatch int64 = 2
)

// KEYS[1] account hash, KEYS[2] username index, KEYS[3] email index.
// ARGV[1] id, ARGV[2...] field/value pairs.
const createAccountScript = `
if redis.call("EXISTS", KEYS[1]) == 1 or redis.call("EXISTS", KEYS[2]) == 1 or redis.call("EXISTS", KEYS[3]) == 1 then
  return 0
end
redis.call("SET", KEYS[2], ARGV[1])
redis.call("SET", KEYS[3], ARGV[1])
local fields = {}
for i = 2, #ARGV do
  fields[#fields + 1] = ARGV[i]
end
redis.call("HSET", KEYS[1], unpack(fields))
return 1
`

var createAccountLua = redis.NewScript(createAccountScript)

// KEYS[1] account hash. ARGV field/value pairs. Writes only when the
// account exists.
const updateFieldsScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`

var updateFieldsLua = redis.NewScript(updateFieldsScript)

// KEYS[1] account hash. ARGV[1] presented, ARGV[2] next, ARGV[3] updated_at.
const swapRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local current = redis.call("HGET", KEYS[1], "refresh_token")
if not current or current == "" or current ~= ARGV[1] then
  return 2
end
redis.call("HSET", KEYS[1], "refresh_token", ARGV[2], "updated_at", ARGV[3])
return 1
`

var swapRefreshLua = redis.NewScript(swapRefreshScript)

// KEYS[1] account hash, KEYS[2] new reset index key.
// ARGV[1] reset index prefix, ARGV[2] id, ARGV[3] digest,
// ARGV[4] expires_at (unix ms), ARGV[5] index ttl (ms), ARGV[6] updated_at.
const setResetScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local old = redis.call("HGET", KEYS[1], "reset_hash")
if old and old ~= "" then
  redis.call("DEL", ARGV[1] .. old)
end
redis.call("HSET", KEYS[1], "reset_hash", ARGV[3], "reset_expires_at", ARGV[4], "updated_at", ARGV[6])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[5])
return 1
`

var setResetLua = redis.NewScript(setResetScript)

// KEYS[1] account hash. ARGV[1] reset index prefix, ARGV[2] updated_at.
const clearResetScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
local old = redis.call("HGET", KEYS[1], "reset_hash")
if old and old ~= "" then
  redis.call("DEL", ARGV[1] .. old)
end
redis.call("HDEL", KEYS[1], "reset_hash", "reset_expires_at")
redis.call("HSET", KEYS[1], "updated_at", ARGV[2])
return 1
`

var clearResetLua = redis.NewScript(clearResetScript)
