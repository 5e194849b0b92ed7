// internal/catalog/source.go
//
// Pool sources: the boundary between catalog data and game sessions.
// Responsibilities:
//   - Static:   a pool that is final immediately.
//   - Populate: probe every item concurrently, exclude failures, then publish the pool.
//
// Notes:
//   - Population runs on a detached context: it cannot be cancelled once started,
//     and each item is bounded by its own timeout. Failed items are never retried.
//   - Population only filters items; it never touches ledgers or progress.
//   - Loaded() is closed exactly once, after the final pool is published.

package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/namequiz/internal/quiz"
)

const (
	DefaultProbeTimeout     = 5 * time.Second
	DefaultProbeConcurrency = 8
)

// Prober checks one item's remote image. It returns the image URL to use,
// which may differ from item.ImageURL when the prober resolves it.
type Prober interface {
	Probe(ctx context.Context, item quiz.Item) (string, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, item quiz.Item) (string, error)

func (f ProberFunc) Probe(ctx context.Context, item quiz.Item) (string, error) { return f(ctx, item) }

// Source publishes one game's item pool.
type Source struct {
	mu     sync.RWMutex
	pool   *quiz.Pool
	loaded chan struct{}
	total  int
	done   atomic.Int64
}

// Static returns a source whose pool is final.
func Static(p *quiz.Pool) *Source {
	s := &Source{pool: p, loaded: make(chan struct{}), total: p.Len()}
	s.done.Store(int64(p.Len()))
	close(s.loaded)
	return s
}

type PopulateOptions struct {
	Timeout     time.Duration
	Concurrency int
}

// Populate starts probing every item of p in the background and returns
// immediately. Items without an image URL are kept without probing.
func Populate(name string, p *quiz.Pool, prober Prober, opt PopulateOptions) *Source {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultProbeTimeout
	}
	if opt.Concurrency <= 0 {
		opt.Concurrency = DefaultProbeConcurrency
	}
	s := &Source{loaded: make(chan struct{}), total: p.Len()}
	go s.populate(name, p, prober, opt)
	return s
}

func (s *Source) populate(name string, p *quiz.Pool, prober Prober, opt PopulateOptions) {
	start := time.Now()
	items := p.Items()
	kept := make([]*quiz.Item, len(items))

	var g errgroup.Group
	g.SetLimit(opt.Concurrency)
	for i := range items {
		it := items[i]
		g.Go(func() error {
			defer s.done.Add(1)
			if it.ImageURL == "" && !resolves(prober) {
				kept[i] = &it
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
			defer cancel()
			url, err := prober.Probe(ctx, it)
			if err != nil {
				log.Warn().Err(err).Str("pool", name).Str("itemId", it.ID).Msg("item excluded")
				return nil
			}
			it.ImageURL = url
			kept[i] = &it
			return nil
		})
	}
	_ = g.Wait()

	final := make([]quiz.Entry, 0, len(items))
	for _, it := range kept {
		if it != nil {
			final = append(final, *it)
		}
	}
	pool, err := quiz.NewPool(final)
	if err != nil {
		// Unreachable for a subset of a valid pool.
		log.Error().Err(err).Str("pool", name).Msg("rebuild populated pool")
		pool = p
	}

	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()
	close(s.loaded)
	log.Info().
		Str("pool", name).
		Int("kept", pool.Len()).
		Int("excluded", len(items)-pool.Len()).
		Dur("took", time.Since(start)).
		Msg("pool populated")
}

// Pool returns the final pool, or nil while loading.
func (s *Source) Pool() *quiz.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

func (s *Source) Loaded() <-chan struct{} { return s.loaded }

// Percent reports population progress, 0..100.
func (s *Source) Percent() int {
	select {
	case <-s.loaded:
		return 100
	default:
	}
	if s.total == 0 {
		return 0
	}
	return min(99, int(s.done.Load()*100/int64(s.total)))
}

// Total is the number of items before exclusion.
func (s *Source) Total() int { return s.total }

// resolvingProber is implemented by probers that find an image for items that have none.
type resolvingProber interface {
	ResolvesImages() bool
}

func resolves(p Prober) bool {
	r, ok := p.(resolvingProber)
	return ok && r.ResolvesImages()
}
