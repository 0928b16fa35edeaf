package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// maxPeekBody bounds how much of an auth request body is buffered to find the email.
const maxPeekBody = 64 << 10

// RateCounter increments a windowed counter, as pkg/redis.Client does.
type RateCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// AuthRateLimitPolicy is the window and per-scope limits for one auth surface.
type AuthRateLimitPolicy struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

// LoginPolicy and RegisterPolicy read the configured limits for each endpoint.
func LoginPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{Name: "login", Window: cfg.LoginWindow, IPLimit: cfg.LoginIPLimit, EmailLimit: cfg.LoginEmailLimit}
}

func RegisterPolicy(cfg config.AuthRateLimitConfig) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{Name: "register", Window: cfg.RegisterWindow, IPLimit: cfg.RegisterIPLimit, EmailLimit: cfg.RegisterEmailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.EmailLimit > 0)
}

func (p AuthRateLimitPolicy) name() string {
	if name := strings.ToLower(strings.TrimSpace(p.Name)); name != "" {
		return name
	}
	return "auth"
}

// AuthRateLimit counts attempts per client IP and per email in fixed windows.
// A nil counter or a disabled policy passes requests through. Counter errors
// are logged and the request is let through so that a cache outage does not
// lock users out.
func AuthRateLimit(policy AuthRateLimitPolicy, counter RateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || counter == nil {
			return next
		}
		l := &authLimiter{policy: policy, counter: counter, logg: logg}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.IPLimit > 0 {
				if ip := clientIP(r); ip != "" && !l.allow(ctx, w, "ip", ip, policy.IPLimit) {
					return
				}
			}

			if policy.EmailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid JSON payload"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := emailFromBody(body); email != "" && !l.allow(ctx, w, "email", hashValue(email), policy.EmailLimit) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

type authLimiter struct {
	policy  AuthRateLimitPolicy
	counter RateCounter
	logg    *logger.Logger
}

// allow increments the counter for scope/value and writes a 429 when the
// limit is exceeded. It returns false when the request was answered.
func (l *authLimiter) allow(ctx context.Context, w http.ResponseWriter, scope, value string, limit int) bool {
	count, err := l.counter.IncrWithTTL(ctx, "rl:"+l.policy.name()+":"+scope+":"+value, l.policy.Window)
	if err != nil {
		if l.logg != nil {
			l.logg.Error(l.logg.WithField(ctx, "scope", scope), "auth.rate_limit.unavailable", err)
		}
		return true
	}
	if count <= int64(limit) {
		return true
	}

	if l.logg != nil {
		l.logg.Warn(l.logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"policy":         l.policy.name(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.Window.Seconds()),
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(l.policy.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many attempts, try again later"))
	return false
}

func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		first, _, _ := strings.Cut(header, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}
