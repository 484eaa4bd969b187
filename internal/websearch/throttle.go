package websearch

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlosedAG/contract-finder/internal/collect"
	"github.com/AlosedAG/contract-finder/internal/models"
)

// Throttled spaces out calls to the wrapped searcher.
type Throttled struct {
	next    collect.Searcher
	limiter *rate.Limiter
}

// NewThrottled allows one query per interval, with up to burst queries at once.
func NewThrottled(next collect.Searcher, interval time.Duration, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Search waits for the limiter, then delegates.
func (t *Throttled) Search(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Search(ctx, q)
}
