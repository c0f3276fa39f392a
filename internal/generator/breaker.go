package generator

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// WithBreaker wraps a backend in a circuit breaker. After five consecutive
// failures the breaker opens for thirty seconds and calls fail fast, so a
// dead backend does not stall every unit for its full deadline.
func WithBreaker(g Generator) Generator {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        g.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &breakerGenerator{inner: g, cb: cb}
}

type breakerGenerator struct {
	inner Generator
	cb    *gobreaker.CircuitBreaker
}

func (b *breakerGenerator) Name() string { return b.inner.Name() }

func (b *breakerGenerator) Generate(ctx context.Context, req Request) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *breakerGenerator) IsAvailable(ctx context.Context) error {
	return b.inner.IsAvailable(ctx)
}
