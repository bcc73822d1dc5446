package server

import (
	"fmt"
	"net"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/AhlamBCoding/marine-propulsion-simulator/internal/metrics"
)

const tracerName = "github.com/AhlamBCoding/marine-propulsion-simulator/internal/server"

// rateLimiter hands each client address its own token bucket. Buckets of
// idle clients are evicted once maxVisitors is reached.
type rateLimiter struct {
	rate     rate.Limit
	burst    int
	visitors *lru.Cache[string, *rate.Limiter]
}

func newRateLimiter(rps float64, burst, maxVisitors int) (*rateLimiter, error) {
	visitors, err := lru.New[string, *rate.Limiter](maxVisitors)
	if err != nil {
		return nil, fmt.Errorf("creating rate limiter: %w", err)
	}
	return &rateLimiter{rate: rate.Limit(rps), burst: burst, visitors: visitors}, nil
}

func (rl *rateLimiter) limiter(ip string) *rate.Limiter {
	if l, ok := rl.visitors.Get(ip); ok {
		return l
	}
	l := rate.NewLimiter(rl.rate, rl.burst)
	// Another request from the same client may have raced us here.
	if prev, ok, _ := rl.visitors.PeekOrAdd(ip, l); ok {
		return prev
	}
	return l
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter(clientIP(r)).Allow() {
			metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// tracing wraps each API request in a span.
func tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
				attribute.String("http.remote_addr", r.RemoteAddr),
			),
		)
		defer span.End()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", sw.code))
		if sw.code >= 400 {
			span.SetStatus(codes.Error, http.StatusText(sw.code))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	})
}
