package authority

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rosterbridge/internal/roster/models"
	dErrors "rosterbridge/pkg/domain-errors"
	"rosterbridge/pkg/platform/circuit"
	"rosterbridge/pkg/platform/sentinel"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rosterbridge_authority_request_duration_seconds",
		Help:    "Latency of guild authority calls by operation, including retries",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rosterbridge_authority_retries_total",
		Help: "Total retried guild authority calls by operation",
	}, []string{"op"})

	breakerOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rosterbridge_authority_breaker_open",
		Help: "Whether the guild authority circuit breaker is currently open",
	})
)

// Progressive backoff between attempts: 250ms, 500ms, 1s.
var defaultBackoff = []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second}

// Retrying decorates a Client with bounded retries for transient failures and
// a circuit breaker so a dead guild API sheds load instead of stacking
// timeouts. Non-retryable errors pass through on the first attempt.
type Retrying struct {
	inner   Client
	breaker *circuit.Breaker
	backoff []time.Duration
	logger  *slog.Logger
}

type RetryOption func(*Retrying)

func WithBackoff(schedule []time.Duration) RetryOption {
	return func(r *Retrying) {
		if len(schedule) > 0 {
			r.backoff = schedule
		}
	}
}

func WithBreaker(b *circuit.Breaker) RetryOption {
	return func(r *Retrying) { r.breaker = b }
}

func NewRetrying(inner Client, logger *slog.Logger, opts ...RetryOption) *Retrying {
	r := &Retrying{
		inner:   inner,
		breaker: circuit.New("guild-authority"),
		backoff: defaultBackoff,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) FetchMembers(ctx context.Context) ([]models.MembershipSnapshot, error) {
	var snapshots []models.MembershipSnapshot
	err := r.do(ctx, "fetch_members", func() error {
		var err error
		snapshots, err = r.inner.FetchMembers(ctx)
		return err
	})
	return snapshots, err
}

func (r *Retrying) GrantRole(ctx context.Context, discordID string, role models.Role) error {
	return r.do(ctx, "grant_role", func() error {
		return r.inner.GrantRole(ctx, discordID, role)
	})
}

func (r *Retrying) RevokeRole(ctx context.Context, discordID string, role models.Role) error {
	return r.do(ctx, "revoke_role", func() error {
		return r.inner.RevokeRole(ctx, discordID, role)
	})
}

func (r *Retrying) do(ctx context.Context, op string, call func() error) error {
	if !r.breaker.Allow() {
		breakerOpen.Set(1)
		return dErrors.Wrap(fmt.Errorf("%w: circuit open", sentinel.ErrUnavailable),
			dErrors.CodeExternal, op)
	}

	start := time.Now()
	defer func() { requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds()) }()

	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = call()
		if lastErr == nil {
			r.breaker.RecordSuccess()
			breakerOpen.Set(0)
			return nil
		}
		if !IsRetryable(lastErr) {
			// Not an availability problem; the breaker only tracks those.
			return lastErr
		}
		r.breaker.RecordFailure()
		if r.breaker.IsOpen() {
			breakerOpen.Set(1)
		}
		if attempt >= len(r.backoff) {
			break
		}

		retriesTotal.WithLabelValues(op).Inc()
		r.logger.WarnContext(ctx, "retrying guild authority call",
			"op", op,
			"attempt", attempt+1,
			"backoff", r.backoff[attempt].String(),
			"error", lastErr,
		)
		select {
		case <-ctx.Done():
			return dErrors.Wrap(ctx.Err(), dErrors.CodeExternal, op)
		case <-time.After(r.backoff[attempt]):
		}
	}
	return lastErr
}
