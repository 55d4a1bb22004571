package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
)

// SyntheticFeed produces a random-walk price stream. It doubles as a
// DataSource so a session can be bootstrapped without any external
// service. The walk is deterministic for a fixed seed.
type SyntheticFeed struct {
	mu     sync.Mutex
	rng    *rand.Rand
	price  float64
	volPct float64
	floor  float64
}

// NewSyntheticFeed creates a feed starting at startPrice with per-tick
// volatility volPct (percent of current price). Prices never fall
// below floor. A zero seed selects a time-based seed.
func NewSyntheticFeed(startPrice, volPct, floor float64, seed int64) *SyntheticFeed {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticFeed{
		rng:    rand.New(rand.NewSource(seed)),
		price:  startPrice,
		volPct: volPct,
		floor:  floor,
	}
}

// Open is a no-op; the walk needs no connection.
func (f *SyntheticFeed) Open(ctx context.Context) error { return nil }

// Next returns the next point of the walk. It does not sleep; pacing
// belongs to the session loop.
func (f *SyntheticFeed) Next(ctx context.Context) (models.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return models.PricePoint{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = f.step()
	return models.PricePoint{
		Timestamp: time.Now(),
		Price:     f.price,
		Volume:    float64(f.rng.Intn(900) + 100),
	}, nil
}

func (f *SyntheticFeed) Close() error { return nil }

// Fetch synthesizes minute-resolution history ending now. Points are
// in chronological order and continue the same walk, so history and
// live ticks share one distribution.
func (f *SyntheticFeed) Fetch(ctx context.Context, days int) (models.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := days * 24 * 60
	if n <= 0 {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	start := time.Now().Add(-time.Duration(n) * time.Minute)
	points := make(models.RawSeries, 0, n)
	for i := 0; i < n; i++ {
		f.price = f.step()
		points = append(points, models.PricePoint{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Price:     f.price,
			Volume:    float64(f.rng.Intn(900) + 100),
		})
	}
	return points, nil
}

func (f *SyntheticFeed) step() float64 {
	delta := f.price * (f.volPct / 100) * f.rng.NormFloat64()
	next := f.price + delta
	if next < f.floor {
		next = f.floor
	}
	return next
}
