package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// storedReply is the replayable part of a completed response.
type storedReply struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type"`
	Body        json.RawMessage `json:"body"`
}

// replyRecorder tees the response body so it can be stored after the
// handler runs.
type replyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *replyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the stored response for a repeated
// Idempotency-Key on mutating requests. Checkout also dedupes on the key at
// the order row, so a replay that slips past this cache still cannot
// double-charge; the cache just spares the second round trip.
func IdempotencyMiddleware(redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := "idempotency:" + key

		if reply, ok := loadReply(ctx, redisClient, redisKey); ok {
			c.Data(reply.StatusCode, reply.ContentType, reply.Body)
			c.Abort()
			return
		}

		recorder := &replyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		// Server errors are not stored; the client may retry them.
		if status := c.Writer.Status(); status < http.StatusInternalServerError {
			saveReply(ctx, redisClient, redisKey, &storedReply{
				StatusCode:  status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			})
		}
	}
}

// loadReply fetches a previously stored response. Redis trouble reads as a
// miss, so the request proceeds instead of failing.
func loadReply(ctx context.Context, client *redis.Client, key string) (*storedReply, bool) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var reply storedReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, false
	}
	return &reply, true
}

func saveReply(ctx context.Context, client *redis.Client, key string, reply *storedReply) {
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	_ = client.Set(ctx, key, data, idempotencyTTL).Err()
}
