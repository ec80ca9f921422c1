package batch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/appleniks969/kmmNetworkClient/pkg/transport"
	"github.com/rs/zerolog/log"
)

// Doer issues a single raw request. *client.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, body []byte, header http.Header) (*transport.Response, error)
}

// Config holds fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests.
	MaxConcurrency int

	// Timeout bounds each individual fetch.
	Timeout time.Duration

	// BufferSize for the internal channels (default: number of paths).
	BufferSize int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// Result is the outcome of fetching a single path.
type Result struct {
	Path     string
	Response *transport.Response
	Err      error
}

// Fetcher fans GET requests out over a worker pool.
type Fetcher struct {
	client Doer
	config Config
}

// NewFetcher creates a fetcher around the given client.
func NewFetcher(client Doer, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Fetcher{
		client: client,
		config: config,
	}
}

// FetchAll fetches every path concurrently and returns the successful
// responses keyed by path. When some paths fail, the partial result map is
// returned together with the first error observed.
func (f *Fetcher) FetchAll(ctx context.Context, paths []string) (map[string]*transport.Response, error) {
	start := time.Now()

	bufferSize := f.config.BufferSize
	if bufferSize <= 0 {
		bufferSize = len(paths)
	}

	pathQueue := make(chan string, bufferSize)
	results := make(chan Result, bufferSize)

	// The queue may be smaller than the path list; stop feeding it when
	// the context ends so cancelled workers do not strand this goroutine.
	go func() {
		defer close(pathQueue)
		for _, path := range paths {
			select {
			case pathQueue <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < f.config.MaxConcurrency; i++ {
		wg.Add(1)
		go f.worker(ctx, pathQueue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	responses := make(map[string]*transport.Response, len(paths))
	var firstErr error
	failed := 0

	for result := range results {
		if result.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = result.Err
			}
			log.Warn().
				Err(result.Err).
				Str("path", result.Path).
				Msg("Fetch failed")
			continue
		}
		responses[result.Path] = result.Response
	}

	log.Info().
		Int("fetched", len(responses)).
		Int("failed", failed).
		Int("total", len(paths)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	if firstErr != nil {
		return responses, fmt.Errorf("batch fetch (partial data: %d/%d paths): %w", len(responses), len(paths), firstErr)
	}

	return responses, nil
}

// worker processes paths from the queue.
func (f *Fetcher) worker(ctx context.Context, pathQueue <-chan string, results chan<- Result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for path := range pathQueue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		resp, err := f.client.Do(fetchCtx, http.MethodGet, path, nil, nil)
		cancel()

		select {
		case results <- Result{Path: path, Response: resp, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}
