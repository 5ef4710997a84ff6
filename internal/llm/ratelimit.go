package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/rs/zerolog/log"
)

// Limiter decides whether another remote call may be made for key
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int, time.Time, error)
}

// RateLimited wraps a Provider so every Generate call consumes limiter budget
type RateLimited struct {
	Provider
	limiter Limiter
}

// WithRateLimit wraps p with limiter
func WithRateLimit(p Provider, limiter Limiter) *RateLimited {
	return &RateLimited{Provider: p, limiter: limiter}
}

func (r *RateLimited) Generate(ctx context.Context, prompt string, model string) (*Response, error) {
	allowed, remaining, reset, err := r.limiter.Allow(ctx, r.Name())
	if err != nil {
		// The limiter is advisory; an unreachable backend must not block chatting
		log.Warn().Err(err).Str("provider", r.Name()).Msg("rate limiter unavailable")
		return r.Provider.Generate(ctx, prompt, model)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: retry after %s", domain.ErrRateLimited, reset.Format(time.Kitchen))
	}

	log.Debug().Str("provider", r.Name()).Int("remaining", remaining).Msg("rate limit check passed")
	return r.Provider.Generate(ctx, prompt, model)
}
