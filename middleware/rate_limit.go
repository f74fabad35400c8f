package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"novabyte-blog/helper"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// slidingWindow admits a request when fewer than limit were admitted in the
// last window milliseconds. Returns {allowed, remaining, reset_at_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('PEXPIRE', key, window + 1000)
    return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local reset_at = now + window
if #oldest >= 2 then
    reset_at = tonumber(oldest[2]) + window
end
return {0, 0, reset_at}
`)

// RateLimit limits requests per client IP and route. It lets everything
// through when Redis is not configured or unreachable.
func RateLimit(h *helper.HTTPHelper, client *redis.Client, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || perMinute <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP()
		now := time.Now().UnixMilli()
		window := time.Minute.Milliseconds()

		result, err := slidingWindow.Run(c.Request.Context(), client, []string{key}, perMinute, window, now).Int64Slice()
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(perMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result[1], 10))

		if result[0] != 1 {
			retryAfter := (result[2] - now) / 1000
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			h.SendError(c, "too many requests", h.EmptyJsonMap(), http.StatusTooManyRequests, `rateLimited`)
			c.Abort()
			return
		}
		c.Next()
	}
}
