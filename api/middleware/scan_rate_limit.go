package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rcastellanos/modemtrack-backend/api/responses"
	pkgerrors "github.com/rcastellanos/modemtrack-backend/pkg/errors"
	"github.com/rcastellanos/modemtrack-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ScanRateLimitPolicy defines throttling parameters for the scan endpoints.
// Stations share IPs, so the per-operator limit is the meaningful one; the
// per-IP limit only catches runaway clients.
type ScanRateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	operatorLimit int
}

// NewScanRateLimitPolicy builds a policy with the supplied window and limits.
func NewScanRateLimitPolicy(name string, window time.Duration, ipLimit, operatorLimit int) ScanRateLimitPolicy {
	return ScanRateLimitPolicy{
		name:          strings.ToLower(strings.TrimSpace(name)),
		window:        window,
		ipLimit:       ipLimit,
		operatorLimit: operatorLimit,
	}
}

func (p ScanRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.operatorLimit > 0)
}

func (p ScanRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "scan"
	}
	return p.name
}

func (p ScanRateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p ScanRateLimitPolicy) operatorScope(operator string) string {
	if operator == "" {
		return ""
	}
	return fmt.Sprintf("operator:%s:%s", p.normalizedName(), operator)
}

// ScanRateLimit enforces per-IP and per-operator counters for scan endpoints.
func ScanRateLimit(policy ScanRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				if scope := policy.ipScope(clientIP(r)); scope != "" {
					if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", count, policy.ipLimit)
						return
					}
				}
			}

			if policy.operatorLimit > 0 {
				if scope := policy.operatorScope(OperatorFromContext(ctx)); scope != "" {
					if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.operatorLimit), policy.window); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "operator", count, policy.operatorLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy ScanRateLimitPolicy, scope string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		logCtx := logg.WithFields(ctx, fields)
		logg.Warn(logCtx, "scan.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
