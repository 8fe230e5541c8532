package providers

import (
	"context"
	"net"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DispatchOptions tunes a Dispatcher. Zero values select defaults.
type DispatchOptions struct {
	// RequestsPerMinute caps outbound requests; 0 means unlimited.
	RequestsPerMinute int
	// Burst is the token bucket size; defaults to 1.
	Burst int
	// TripAfter is the number of consecutive transient failures that open
	// the breaker; defaults to 5.
	TripAfter uint32
	// Cooldown is how long the breaker stays open; defaults to 30s.
	Cooldown time.Duration
	Logger   *zap.Logger
}

// Dispatcher routes requests to a single backend through a token-bucket
// rate limiter and a circuit breaker. It implements Backend and is safe for
// concurrent use.
type Dispatcher struct {
	backend Backend
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewDispatcher wraps b.
func NewDispatcher(b Backend, opts DispatchOptions) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	tripAfter := opts.TripAfter
	if tripAfter == 0 {
		tripAfter = 5
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        b.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// Only transport and upstream failures count against the backend.
		IsSuccessful: func(err error) bool {
			return err == nil || !transient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Dispatcher{
		backend: b,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
		log:     log,
	}
}

func (d *Dispatcher) Name() string { return d.backend.Name() }

// State reports the breaker state ("closed", "half-open" or "open").
func (d *Dispatcher) State() string { return d.breaker.State().String() }

func (d *Dispatcher) Respond(ctx context.Context, instruction, content string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "waiting for rate limiter")
	}

	start := time.Now()
	out, err := d.breaker.Execute(func() (interface{}, error) {
		return d.backend.Respond(ctx, instruction, content)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", errors.WithHint(
				&BackendError{Provider: d.backend.Name(), Message: "circuit breaker open", Err: err},
				"the backend failed repeatedly; wait and retry")
		}
		return "", err
	}

	d.log.Debug("Backend responded",
		zap.String("provider", d.backend.Name()),
		zap.Duration("elapsed", time.Since(start)))
	return out.(string), nil
}

// transient reports whether err says something about backend health rather
// than about the request or credentials.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if IsRetryable(err) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
