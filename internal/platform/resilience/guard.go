package resilience

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type GuardConfig struct {
	CircuitBreaker CircuitBreakerConfig
	RateLimit      RateLimitConfig
	// IsFailure decides which errors trip the breaker. Nil counts every
	// error.
	IsFailure func(error) bool
}

// Guard protects calls to one upstream dependency: identical concurrent
// calls are collapsed, the survivors wait for a rate limiter token and then
// pass through the circuit breaker.
type Guard struct {
	breaker   *CircuitBreaker
	breakerOn bool
	limiter   *rate.Limiter
	isFailure func(error) bool
	flight    SingleFlight[[]byte]
}

func NewGuard(cfg GuardConfig) *Guard {
	breakerCfg := NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Guard{
		breaker:   NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		breakerOn: breakerCfg.Enabled,
		limiter:   cfg.RateLimit.NewLimiter(),
		isFailure: cfg.IsFailure,
	}
}

func (g *Guard) Breaker() *CircuitBreaker {
	return g.breaker
}

// Do runs fn once per key among concurrent callers. ErrCircuitOpen is
// returned without calling fn while the breaker is open.
func (g *Guard) Do(ctx context.Context, key string, fn func(context.Context) ([]byte, error)) ([]byte, error) {
	raw, err, _ := g.flight.Do(key, func() ([]byte, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("wait for rate limiter: %w", err)
			}
		}
		if !g.breakerOn {
			return fn(ctx)
		}

		var out []byte
		err := g.breaker.Execute(func() error {
			var callErr error
			out, callErr = fn(ctx)
			return callErr
		}, g.isFailure)
		return out, err
	})
	return raw, err
}
