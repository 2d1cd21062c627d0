// Package tokensource fetches candidate tokens from public market-data feeds.
//
// Every provider normalises its own response shape into domain.Candidate at
// the boundary. Fetching is best effort: upstream failures are logged and
// yield an empty candidate list.
package tokensource

import (
	"context"
	"fmt"
	"log"
	"time"

	"token-launchpad/internal/domain"
)

// Selector values.
const (
	SelectorRotate = "rotate"

	DefaultTimeout = 10 * time.Second
	MaxCandidates  = 30
)

// Trend filter categories.
const (
	TrendNone    = ""
	TrendVolume  = "volume"
	TrendGainers = "gainers"
	TrendNew     = "new"
)

// Filters narrow a fetched batch.
type Filters struct {
	MinVolume float64
	Trend     string
	Chain     string
	Limit     int // capped at MaxCandidates; 0 means MaxCandidates
}

// Source is one upstream provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context, f Filters) ([]domain.Candidate, error)
}

// Result is the outcome of one Fetcher call.
type Result struct {
	Candidates      []domain.Candidate `json:"candidates"`
	NextSourceIndex int                `json:"next_source_index"`
	SourceLabel     string             `json:"source_label"`
	Err             error              `json:"-"` // upstream error, already logged
}

// Fetcher dispatches a selector to its provider and applies filters.
type Fetcher struct {
	sources   []Source
	byName    map[string]Source
	isReal    ImagePredicate
	timeout   time.Duration
	logger    *log.Logger
	onFetched func(source string, n int, err error)
}

// Options for creating Fetcher.
type Options struct {
	Sources        []Source       // rotation order
	ImagePredicate ImagePredicate // nil uses DefaultImagePredicate
	Timeout        time.Duration  // per-fetch bound; 0 uses DefaultTimeout
	Logger         *log.Logger

	// OnFetched is called after every provider call (metrics hook).
	OnFetched func(source string, n int, err error)
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		sources:   opts.Sources,
		byName:    make(map[string]Source, len(opts.Sources)),
		isReal:    opts.ImagePredicate,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
		onFetched: opts.OnFetched,
	}
	if f.isReal == nil {
		f.isReal = DefaultImagePredicate
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.logger == nil {
		f.logger = log.Default()
	}
	for _, s := range opts.Sources {
		f.byName[s.Name()] = s
	}
	return f
}

// Names returns provider names in rotation order.
func (f *Fetcher) Names() []string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return names
}

// Fetch resolves selector, calls its provider and filters the batch.
// For SelectorRotate (or empty) the provider at nextIndex is used and the
// result reports the following index; a pinned selector leaves it unchanged.
func (f *Fetcher) Fetch(ctx context.Context, selector string, filters Filters, nextIndex int) Result {
	res := Result{NextSourceIndex: nextIndex, Candidates: []domain.Candidate{}}

	src, next, err := f.resolve(selector, nextIndex)
	if err != nil {
		f.logger.Printf("%v", err)
		res.Err = err
		return res
	}
	res.NextSourceIndex = next
	res.SourceLabel = src.Name()

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := src.Fetch(fetchCtx, filters)
	if f.onFetched != nil {
		f.onFetched(src.Name(), len(raw), err)
	}
	if err != nil {
		f.logger.Printf("%s: %v", src.Name(), err)
		res.Err = fmt.Errorf("%s: %w", src.Name(), err)
		return res
	}

	for i := range raw {
		if raw[i].SourceLabel == "" {
			raw[i].SourceLabel = src.Name()
		}
		raw[i].HasRealImage = f.isReal(raw[i].ImageURL)
	}
	res.Candidates = Apply(raw, filters)
	return res
}

func (f *Fetcher) resolve(selector string, nextIndex int) (Source, int, error) {
	if len(f.sources) == 0 {
		return nil, nextIndex, fmt.Errorf("no token sources configured")
	}
	if selector == "" || selector == SelectorRotate {
		idx := nextIndex % len(f.sources)
		if idx < 0 {
			idx += len(f.sources)
		}
		return f.sources[idx], (idx + 1) % len(f.sources), nil
	}
	src, ok := f.byName[selector]
	if !ok {
		return nil, nextIndex, fmt.Errorf("unknown token source %q", selector)
	}
	return src, nextIndex, nil
}
