package infrastructure

import goredis "github.com/redis/go-redis/v9"

// 所有 key 共享 {inventory} hash tag，保证在集群中落在同一个 slot。
// KEYS[1] 可用库存 hash，KEYS[2] 已预留 hash，KEYS[3] 订单预留 hash

// reserveScript ARGV: pid1, qty1, pid2, qty2 ...
// 返回 "reserved" | "rejected" | "duplicate|<state>" | "insufficient|<pid>|<available>"
var reserveScript = goredis.NewScript(`
local state = redis.call('HGET', KEYS[3], '__state')
if state then
    if state == 'rejected' then
        return 'rejected'
    end
    return 'duplicate|' .. state
end

local n = #ARGV / 2
for i = 1, n do
    local pid = ARGV[2 * i - 1]
    local qty = tonumber(ARGV[2 * i])
    local avail = tonumber(redis.call('HGET', KEYS[1], pid) or '0')
    if avail < qty then
        redis.call('HSET', KEYS[3], '__state', 'rejected')
        return 'insufficient|' .. pid .. '|' .. avail
    end
end

for i = 1, n do
    local pid = ARGV[2 * i - 1]
    local qty = tonumber(ARGV[2 * i])
    redis.call('HINCRBY', KEYS[1], pid, -qty)
    redis.call('HINCRBY', KEYS[2], pid, qty)
    redis.call('HSET', KEYS[3], 'item:' .. pid, qty)
end
redis.call('HSET', KEYS[3], '__state', 'reserved')
return 'reserved'
`)

// releaseScript ARGV[1]: 墓碑 TTL（秒）
// 返回 "released" | "tombstone" | "noop|<state>"
var releaseScript = goredis.NewScript(`
local state = redis.call('HGET', KEYS[3], '__state')
if not state then
    redis.call('HSET', KEYS[3], '__state', 'released')
    redis.call('EXPIRE', KEYS[3], ARGV[1])
    return 'tombstone'
end
if state ~= 'reserved' then
    return 'noop|' .. state
end

local fields = redis.call('HGETALL', KEYS[3])
for i = 1, #fields, 2 do
    local f = fields[i]
    if string.sub(f, 1, 5) == 'item:' then
        local pid = string.sub(f, 6)
        local qty = tonumber(fields[i + 1])
        redis.call('HINCRBY', KEYS[1], pid, qty)
        redis.call('HINCRBY', KEYS[2], pid, -qty)
    end
end
redis.call('HSET', KEYS[3], '__state', 'released')
return 'released'
`)

// commitScript 预留的库存离开仓库，只扣减已预留数。
// 返回 "committed" | "noop|<state>"
var commitScript = goredis.NewScript(`
local state = redis.call('HGET', KEYS[3], '__state')
if state ~= 'reserved' then
    return 'noop|' .. tostring(state)
end

local fields = redis.call('HGETALL', KEYS[3])
for i = 1, #fields, 2 do
    local f = fields[i]
    if string.sub(f, 1, 5) == 'item:' then
        redis.call('HINCRBY', KEYS[2], string.sub(f, 6), -tonumber(fields[i + 1]))
    end
end
redis.call('HSET', KEYS[3], '__state', 'committed')
return 'committed'
`)
