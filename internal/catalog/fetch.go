package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	fetchTimeout = 30 * time.Second

	// maxDocumentSize caps how much of an untrusted catalog document is read.
	maxDocumentSize = 8 << 20
)

// NetworkError reports a failed catalog round trip. It is transient: the
// caller may retry. The fetcher itself never retries.
type NetworkError struct {
	URI string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetching catalog from %s: %v", e.URI, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Fetcher retrieves and parses catalog documents over HTTP. Each Fetch call
// performs a fresh round trip; nothing is cached and concurrent calls share
// no mutable state.
type Fetcher struct {
	client *http.Client
	policy HostPolicy
	log    zerolog.Logger
}

// NewFetcher creates a fetcher validating against the given host policy.
func NewFetcher(policy HostPolicy, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: fetchTimeout},
		policy: policy,
		log:    log,
	}
}

// Fetch retrieves the catalog document at uri and returns the validated
// catalog. Failures are typed: *NetworkError for transport problems,
// *ParseError for undecodable documents, *ValidationError for documents that
// decode but violate a model invariant.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &NetworkError{URI: uri, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{URI: uri, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &NetworkError{URI: uri, Err: err}
	}

	cat, err := Parse(body, f.policy)
	if err != nil {
		f.log.Warn().Str("uri", uri).Err(err).Msg("catalog rejected")
		return nil, err
	}

	f.log.Debug().Str("uri", uri).Str("catalog", cat.Name).
		Int("extensions", len(cat.Extensions)).Msg("catalog fetched")
	return cat, nil
}

// Result pairs a fetched catalog with the error that produced it.
type Result struct {
	Catalog *Catalog
	Err     error
}

// Go runs Fetch on its own goroutine and delivers the outcome on the returned
// channel, so callers never block on the network.
func (f *Fetcher) Go(ctx context.Context, uri string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		cat, err := f.Fetch(ctx, uri)
		ch <- Result{Catalog: cat, Err: err}
	}()
	return ch
}
