package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/pickupz-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pickupz-backend/pkg/errors"
	"github.com/angelmondragon/pickupz-backend/pkg/logger"
)

// RateLimiterStore counts hits in a fixed window.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateLimitPolicy throttles one route family per client IP and per acting store.
// A zero limit turns that dimension off.
type RateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	storeLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, storeLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, ipLimit: ipLimit, storeLimit: storeLimit}
}

type rateDimension struct {
	scope string
	value string
	limit int
}

func (p RateLimitPolicy) dimensions(r *http.Request) []rateDimension {
	return []rateDimension{
		{"ip", clientIP(r), p.ipLimit},
		{"store", StoreIDFromContext(r.Context()), p.storeLimit},
	}
}

func RateLimit(policy RateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || policy.window <= 0 || (policy.ipLimit <= 0 && policy.storeLimit <= 0) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			for _, dim := range policy.dimensions(r) {
				if dim.limit <= 0 || dim.value == "" {
					continue
				}
				key := store.RateLimitKey(policy.name + ":" + dim.scope + ":" + dim.value)
				hits, err := store.IncrWithTTL(ctx, key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if hits <= int64(dim.limit) {
					continue
				}
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":      policy.name,
						"scope":       dim.scope,
						"scope_value": dim.value,
						"hits":        hits,
						"limit":       dim.limit,
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second)/time.Second)))
				responses.WriteError(ctx, nil, w, pkgerrors.Newf(pkgerrors.CodeRateLimit, "too many %s requests", policy.name))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the left-most parseable X-Forwarded-For entry, then X-Real-IP, then the peer.
func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
