package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-commerce-backend/internal/apperr"
)

const (
	// HeaderIdempotencyKey is the request header clients use to make a
	// create safe to retry.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplayed marks a response served from an earlier
	// request with the same key.
	HeaderIdempotentReplayed = "Idempotent-Replayed"

	idempotencyKeyCtx = "idem.key"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions tunes key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length in bytes (default 200).
	MaxLen int
	// Pattern restricts the key alphabet (default URL-safe characters).
	Pattern *regexp.Regexp
}

// IdempotencyKey validates an optional Idempotency-Key header and stores it
// for IdempotencyKeyFrom. A malformed key fails the request with a
// validation error.
func IdempotencyKey(opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			_ = c.Error(apperr.Validation("Invalid Idempotency-Key header", apperr.FieldIssue{
				Field:   HeaderIdempotencyKey,
				Message: "must be at most 200 URL-safe characters",
			}))
			c.Abort()
			return
		}
		c.Set(idempotencyKeyCtx, key)
		c.Next()
	}
}

// IdempotencyKeyFrom returns the validated key, or "" when none was sent.
func IdempotencyKeyFrom(c *gin.Context) string {
	return c.GetString(idempotencyKeyCtx)
}
