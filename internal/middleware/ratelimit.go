package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "studentms/internal/errors"
)

var errRateLimited = apperrors.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later", "RATE_LIMITED")

// Limiter counts hits per key in fixed windows. *cache.Client implements it.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration)
}

// IPExtractor returns how the client address is taken from a request. With no
// trusted proxies only the TCP peer address counts and forwarding headers are
// ignored. Otherwise X-Forwarded-For is honored for hops inside the given CIDRs.
func IPExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

// RateLimit allows limit requests per client IP and route within each window.
// When the cache is unavailable every request is allowed.
func RateLimit(store Limiter, prefix string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if store == nil {
				return next(c)
			}
			key := prefix + ":" + c.Path() + ":" + c.RealIP()
			allowed, retryAfter := store.Allow(c.Request().Context(), key, limit, window)
			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return echo.NewHTTPError(errRateLimited.StatusCode, errRateLimited.ToErrorResponse())
			}
			return next(c)
		}
	}
}
