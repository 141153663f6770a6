package ratelimit

import (
	"encoding/base64"
	"math"
	"strconv"
	"time"

	"github.com/dmitrijs2005/uptask/internal/common"
	"github.com/dmitrijs2005/uptask/internal/logging"
	"github.com/gin-gonic/gin"
)

// Policy is a named limit shared by a group of routes.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	// AuthPolicy guards unauthenticated account endpoints.
	AuthPolicy = Policy{Name: "auth", Limit: 5, Window: 15 * time.Minute}
	// PasswordPolicy guards password changes of signed-in users.
	PasswordPolicy = Policy{Name: "password", Limit: 3, Window: time.Hour}
	// ProfilePolicy guards profile updates.
	ProfilePolicy = Policy{Name: "profile", Limit: 5, Window: time.Hour}
)

// KeyFunc derives the caller identity from a request.
type KeyFunc func(c *gin.Context) string

// LimitHandler writes the response for a rejected request and aborts it.
type LimitHandler func(c *gin.Context, err error)

// Limiter builds gin middleware allowing a fixed number of requests per key
// and window.
type Limiter struct {
	counter Counter
	log     logging.Logger
	key     KeyFunc
	onLimit LimitHandler
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithKeyFunc overrides ClientKey.
func WithKeyFunc(f KeyFunc) Option {
	return func(l *Limiter) { l.key = f }
}

// WithLimitHandler overrides the default 429 JSON body.
func WithLimitHandler(h LimitHandler) Option {
	return func(l *Limiter) { l.onLimit = h }
}

// NewLimiter returns a Limiter keyed by ClientKey that answers rejected
// requests with a JSON error body.
func NewLimiter(counter Counter, log logging.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		counter: counter,
		log:     log,
		key:     ClientKey,
		onLimit: defaultLimitHandler,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ClientKey identifies anonymous callers by IP plus a short user agent
// fingerprint.
func ClientKey(c *gin.Context) string {
	fp := base64.StdEncoding.EncodeToString([]byte(c.Request.UserAgent()))
	if len(fp) > 8 {
		fp = fp[:8]
	}
	return "ip:" + c.ClientIP() + ":" + fp
}

func defaultLimitHandler(c *gin.Context, err error) {
	appErr, _ := common.AsAppError(err)
	c.AbortWithStatusJSON(appErr.Status(), gin.H{
		"success":     false,
		"messageCode": appErr.Code,
		"statusCode":  appErr.Status(),
	})
}

// Middleware enforces p. Counter failures let the request through.
func (l *Limiter) Middleware(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := p.Name + ":" + l.key(c)

		hits, resetAt, err := l.counter.Increment(ctx, key, p.Window)
		if err != nil {
			l.log.Warn(ctx, "rate limit counter failed", "policy", p.Name, "error", err)
			c.Next()
			return
		}

		remaining := p.Limit - hits
		if remaining < 0 {
			remaining = 0
		}
		resetIn := int(math.Ceil(time.Until(resetAt).Seconds()))
		if resetIn < 0 {
			resetIn = 0
		}

		h := c.Writer.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(p.Limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(resetIn))

		if hits > p.Limit {
			h.Set("Retry-After", strconv.Itoa(resetIn))
			l.log.Info(ctx, "rate limit exceeded", "policy", p.Name, "key", key, "hits", hits)
			l.onLimit(c, common.ErrTooManyRequests.WithDetails(map[string]any{
				"policy":     p.Name,
				"retryAfter": resetIn,
			}))
			return
		}

		c.Next()
	}
}
